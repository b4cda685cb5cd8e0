package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"storefront/internal/status"
	"storefront/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Alternate backend field names, in priority order.
var (
	idKeys          = []string{"id", "_id", "eventId", "slug"}
	nameKeys        = []string{"title", "name", "nome"}
	cityKeys        = []string{"city", "cidade"}
	venueKeys       = []string{"venue", "local", "venueName"}
	mapKeys         = []string{"mapsUrl", "map", "mapUrl", "venueUrl"}
	categoryKeys    = []string{"category", "categoria", "type"}
	statusKeys      = []string{"status", "statusLabel", "label"}
	descriptionKeys = []string{"description", "descricao", "desc"}
	imageKeys       = []string{"image", "imageUrl", "img", "cover"}
	dateKeys        = []string{"date", "data", "startsAt", "start_time"}
	priceKeys       = []string{"price", "preco", "valor"}
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// eventNamespace scopes synthesized identifiers.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("storefront/events"))

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

// ParseCatalogPayload accepts a bare array or an object exposing an items
// or events array. Elements that are not objects are dropped.
func ParseCatalogPayload(body []byte) ([]map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &status.DecodeError{Err: err}
	}

	var list []any
	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range []string{"items", "events"} {
			if arr, ok := v[key].([]any); ok {
				list = arr
				break
			}
		}
	}

	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// NormalizeEvent maps one raw backend record onto the strict Event shape.
// The returned event always carries an identifier.
func NormalizeEvent(raw map[string]any) models.Event {
	ev := models.Event{
		Name:        firstString(raw, nameKeys...),
		City:        firstString(raw, cityKeys...),
		Venue:       firstString(raw, venueKeys...),
		VenueMapURL: firstString(raw, mapKeys...),
		Category:    firstString(raw, categoryKeys...),
		StatusLabel: firstString(raw, statusKeys...),
		Description: firstString(raw, descriptionKeys...),
		ImageURL:    firstString(raw, imageKeys...),
		StartsAt:    parseStartsAt(raw),
		Price:       parsePrice(raw),
	}

	// Nested venue objects carry their own name and city.
	if venue, ok := raw["venue"].(map[string]any); ok {
		if ev.Venue == "" {
			ev.Venue = firstString(venue, "name", "nome")
		}
		if ev.City == "" {
			ev.City = firstString(venue, cityKeys...)
		}
		if ev.VenueMapURL == "" {
			ev.VenueMapURL = firstString(venue, mapKeys...)
		}
	}

	ev.Status = NormalizeStatus(ev.StatusLabel)

	if ev.VenueMapURL == "" {
		ev.VenueMapURL = MapsSearchURL(ev.Venue, ev.City)
	}

	ev.ID = firstString(raw, idKeys...)
	if ev.ID == "" {
		ev.ID = SyntheticEventID(ev.Name, ev.City, ev.StartsAt)
	}
	return ev
}

// NormalizeStatus folds a free-text availability label into a category.
func NormalizeStatus(label string) models.Status {
	folded := foldText(label)
	switch {
	case folded == "":
		return models.StatusComingSoon
	case strings.Contains(folded, "esgot"),
		strings.Contains(folded, "sold out"),
		strings.Contains(folded, "sold-out"),
		strings.Contains(folded, "soldout"):
		return models.StatusSoldOut
	case strings.Contains(folded, "ultim"),
		strings.Contains(folded, "last unit"),
		strings.Contains(folded, "low-stock"),
		strings.Contains(folded, "low stock"),
		strings.Contains(folded, "poucos"):
		return models.StatusLowStock
	default:
		return models.StatusComingSoon
	}
}

// SyntheticEventID derives a stable identifier for records without one.
func SyntheticEventID(name, city string, startsAt time.Time) string {
	seed := strings.Join([]string{name, city, startsAt.UTC().Format(time.RFC3339)}, "|")
	return uuid.NewSHA1(eventNamespace, []byte(seed)).String()
}

// syntheticEventIDAt mixes the record position into the seed.
func syntheticEventIDAt(ev models.Event, index int) string {
	seed := strings.Join([]string{ev.Name, ev.City, ev.StartsAt.UTC().Format(time.RFC3339), strconv.Itoa(index)}, "|")
	return uuid.NewSHA1(eventNamespace, []byte(seed)).String()
}

// MapsSearchURL builds a map search link for a venue, or "" when nothing is known.
func MapsSearchURL(venue, city string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{venue, city} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return mapsSearchURL + url.QueryEscape(strings.Join(parts, ", "))
}

// foldText lowercases and strips diacritics.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func parseStartsAt(raw map[string]any) time.Time {
	for _, k := range dateKeys {
		switch v := raw[k].(type) {
		case string:
			if t, ok := parseTime(strings.TrimSpace(v)); ok {
				return t
			}
		case float64:
			// epoch seconds or milliseconds
			if v > 1e12 {
				return time.UnixMilli(int64(v)).UTC()
			}
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		}
	}
	return time.Time{}
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parsePrice(raw map[string]any) decimal.Decimal {
	for _, k := range priceKeys {
		var (
			d   decimal.Decimal
			err error
		)
		switch v := raw[k].(type) {
		case float64:
			d = decimal.NewFromFloat(v)
		case string:
			d, err = parsePriceText(v)
		default:
			continue
		}
		if err == nil && d.IsPositive() {
			return d.Round(2)
		}
	}
	return decimal.Zero
}

// parsePriceText accepts "89.90", "89,90", "R$ 1.234,50".
func parsePriceText(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty price")
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}
