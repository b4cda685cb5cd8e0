package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/internal/status"
	"storefront/models"
	"storefront/monitoring"
	"storefront/notify"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"
)

const (
	PlaceholderID   = "placeholder"
	PlaceholderCity = "Uberaba-MG"

	placeholderLead = 48 * time.Hour
)

// LoadResult summarizes one catalog load. Load never fails; Err records
// why the placeholder was used, if it was.
type LoadResult struct {
	Events      int
	Placeholder bool
	Source      string
	Err         error
}

// Catalog is the in-memory event list and its identifier index. Both are
// replaced together on every load.
type Catalog struct {
	backend   *Backend
	requester Requester
	printer   *message.Printer
	monitor   *monitoring.Monitor
	publisher notify.Publisher
	log       zerolog.Logger
	now       func() time.Time

	mu          sync.RWMutex
	events      []models.Event
	index       map[string]int
	placeholder bool
	loadedAt    time.Time
}

func NewCatalog(backend *Backend, requester Requester, printer *message.Printer, monitor *monitoring.Monitor, publisher notify.Publisher, log zerolog.Logger) *Catalog {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &Catalog{
		backend:   backend,
		requester: requester,
		printer:   printer,
		monitor:   monitor,
		publisher: publisher,
		log:       log.With().Str("component", "catalog").Logger(),
		now:       time.Now,
		index:     map[string]int{},
	}
}

// Load fetches {api}/events then {root}/events and swaps the catalog. An
// empty or failed load installs the single placeholder event.
func (c *Catalog) Load(ctx context.Context) LoadResult {
	urls := c.backend.Endpoints().Candidates("/events")

	var (
		events []models.Event
		result LoadResult
	)

	resp, err := c.requester.Do(ctx, urls, fetch.Options{})
	if err == nil {
		result.Source = resp.URL
		records, perr := ParseCatalogPayload(resp.Body)
		if perr != nil {
			err = perr
		}
		events = normalizeAll(records)
	}

	outcome := monitoring.OutcomeOK
	switch {
	case err != nil:
		outcome = monitoring.OutcomeFailed
		c.log.Warn().Err(err).Msg("catalog load failed, using placeholder")
	case len(events) == 0:
		outcome = monitoring.OutcomeEmpty
		c.log.Info().Str("source", result.Source).Msg("catalog empty, using placeholder")
	}

	if len(events) == 0 {
		events = []models.Event{c.placeholderEvent()}
		result.Placeholder = true
	}
	result.Events = len(events)
	result.Err = err

	c.swap(events, result.Placeholder)
	c.monitor.TrackCatalogLoad(outcome, len(events))

	if !result.Placeholder {
		c.log.Info().Int("events", len(events)).Str("source", result.Source).Msg("catalog loaded")
		_ = c.publisher.Publish(ctx, notify.Activity{Kind: notify.KindCatalog, Outcome: outcome, Count: len(events)})
	}
	return result
}

func normalizeAll(records []map[string]any) []models.Event {
	events := make([]models.Event, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		ev := NormalizeEvent(rec)
		_, dup := seen[ev.ID]
		if dup && firstString(rec, idKeys...) == "" {
			// id-less twins are distinct records, not duplicates
			ev.ID = syntheticEventIDAt(ev, i)
			_, dup = seen[ev.ID]
		}
		// first record wins on duplicate ids
		if dup {
			continue
		}
		seen[ev.ID] = struct{}{}
		events = append(events, ev)
	}
	return events
}

func (c *Catalog) placeholderEvent() models.Event {
	return models.Event{
		ID:          PlaceholderID,
		Name:        c.printer.Sprintf(i18n.PlaceholderName),
		City:        PlaceholderCity,
		StartsAt:    c.now().Add(placeholderLead).Truncate(time.Minute),
		VenueMapURL: MapsSearchURL("", PlaceholderCity),
		Status:      models.StatusLowStock,
		StatusLabel: c.printer.Sprintf(i18n.PlaceholderStatus),
		Description: c.printer.Sprintf(i18n.PlaceholderDescription),
	}
}

func (c *Catalog) swap(events []models.Event, placeholder bool) {
	index := make(map[string]int, len(events))
	for i, ev := range events {
		index[ev.ID] = i
	}

	c.mu.Lock()
	c.events = events
	c.index = index
	c.placeholder = placeholder
	c.loadedAt = c.now()
	c.mu.Unlock()
}

// Events returns a copy of the current catalog in load order.
func (c *Catalog) Events() []models.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// IsPlaceholder reports whether the last load fell back to the placeholder.
func (c *Catalog) IsPlaceholder() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.placeholder
}

func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Lookup resolves an event by identifier.
func (c *Catalog) Lookup(id string) (models.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return models.Event{}, &status.NotFoundError{Kind: "event", ID: id}
	}
	return c.events[i], nil
}

// FilteredView applies f to the current catalog.
func (c *Catalog) FilteredView(f models.FilterState) []models.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return FilterEvents(c.events, f)
}

// Cities lists distinct cities in catalog order.
func (c *Catalog) Cities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var cities []string
	for _, ev := range c.events {
		if ev.City == "" {
			continue
		}
		key := strings.ToLower(ev.City)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cities = append(cities, ev.City)
	}
	return cities
}

// FilterEvents keeps events matching both the city and the text predicate,
// preserving order. It never modifies events.
func FilterEvents(events []models.Event, f models.FilterState) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if MatchesCity(ev, f.City) && MatchesQuery(ev, f.Query) {
			out = append(out, ev)
		}
	}
	return out
}

// MatchesCity is an exact case-insensitive match; the All sentinel and an
// empty selection pass everything.
func MatchesCity(ev models.Event, city string) bool {
	city = strings.TrimSpace(city)
	if city == "" || city == models.AllCities {
		return true
	}
	return strings.EqualFold(ev.City, city)
}

// MatchesQuery is a case-insensitive substring match on name or description.
func MatchesQuery(ev models.Event, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(ev.Name), q) ||
		strings.Contains(strings.ToLower(ev.Description), q)
}
