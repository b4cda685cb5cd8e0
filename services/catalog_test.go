package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/status"
	"storefront/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, fb *fakeBackend) *Catalog {
	t.Helper()
	return NewCatalog(fb.backend(), newTestRequester(t), testPrinter(), nil, nil, zerolog.Nop())
}

func TestCatalog_Load_Success(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/api/events", http.StatusOK, sampleCatalog)
	pub := &recordingPublisher{}

	c := NewCatalog(fb.backend(), newTestRequester(t), testPrinter(), nil, pub, zerolog.Nop())
	res := c.Load(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Events)
	assert.False(t, res.Placeholder)
	assert.False(t, c.IsPlaceholder())
	assert.Equal(t, 0, fb.hitCount("/events"))

	events := c.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []string{"ev-1", "ev-2", "ev-3"}, []string{events[0].ID, events[1].ID, events[2].ID})
	assert.Equal(t, models.StatusLowStock, events[0].Status)
	assert.Equal(t, models.StatusSoldOut, events[1].Status)
	assert.Equal(t, "Festival Sertanejo", events[1].Name)

	ev, err := c.Lookup("ev-2")
	require.NoError(t, err)
	assert.Equal(t, "Uberlândia-MG", ev.City)
	assert.Equal(t, []string{"catalog_loaded"}, pub.kinds())
	assert.False(t, c.LoadedAt().IsZero())
}

func TestCatalog_Load_FallsBackToRootBase(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/api/events", http.StatusBadGateway, ``)
	fb.handle("/events", http.StatusOK, `{"events":[{"id":"root-1","title":"Via raiz"}]}`)

	c := newTestCatalog(t, fb)
	res := c.Load(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, fb.srv.URL+"/events", res.Source)
	assert.Equal(t, 1, fb.hitCount("/api/events"))

	ev, err := c.Lookup("root-1")
	require.NoError(t, err)
	assert.Equal(t, "Via raiz", ev.Name)
}

func TestCatalog_Load_EmptyUsesPlaceholder(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/api/events", http.StatusOK, `{"items":[]}`)

	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCatalog(t, fb)
	c.now = func() time.Time { return fixed }

	res := c.Load(context.Background())

	assert.True(t, res.Placeholder)
	assert.NoError(t, res.Err)

	events := c.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusLowStock, events[0].Status)
	assert.Equal(t, "Uberaba-MG", events[0].City)
	assert.Equal(t, fixed.Add(48*time.Hour), events[0].StartsAt)
	assert.NotEmpty(t, events[0].ID)

	_, err := c.Lookup(PlaceholderID)
	assert.NoError(t, err)
}

func TestCatalog_Load_FailureUsesPlaceholder(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestCatalog(t, fb)
	fb.srv.Close()

	res := c.Load(context.Background())

	assert.True(t, res.Placeholder)
	assert.ErrorIs(t, res.Err, status.ErrExhausted)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "Uberaba-MG", c.Events()[0].City)
}

func TestCatalog_Load_InvalidJSONUsesPlaceholder(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/api/events", http.StatusOK, `<html>maintenance</html>`)

	c := newTestCatalog(t, fb)
	res := c.Load(context.Background())

	assert.True(t, res.Placeholder)
	assert.ErrorIs(t, res.Err, status.ErrDecode)
}

func TestCatalog_Load_ReplacesWholesale(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/api/events", http.StatusOK, sampleCatalog)
	c := newTestCatalog(t, fb)
	c.Load(context.Background())

	fb.handle("/api/events", http.StatusOK, `[{"id":"ev-9","title":"Novo"}, {"id":"ev-9","title":"Duplicado"}]`)
	c.Load(context.Background())

	_, err := c.Lookup("ev-1")
	assert.ErrorIs(t, err, status.ErrNotFound)

	ev, err := c.Lookup("ev-9")
	require.NoError(t, err)
	assert.Equal(t, "Novo", ev.Name)
	assert.Equal(t, 1, c.Len())
}

func TestCatalog_Lookup_NotFound(t *testing.T) {
	fb := newFakeBackend(t)
	c := newTestCatalog(t, fb)

	_, err := c.Lookup("missing")

	var nf *status.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
}

func TestCatalog_FilteredView(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/api/events", http.StatusOK, sampleCatalog)
	c := newTestCatalog(t, fb)
	c.Load(context.Background())

	tests := []struct {
		name   string
		filter models.FilterState
		want   []string
	}{
		{"all", models.NewFilterState(), []string{"ev-1", "ev-2", "ev-3"}},
		{"empty city passes", models.FilterState{}, []string{"ev-1", "ev-2", "ev-3"}},
		{"city case-insensitive", models.FilterState{City: "UBERABA-MG"}, []string{"ev-1", "ev-3"}},
		{"query on name", models.FilterState{City: models.AllCities, Query: "sertanejo"}, []string{"ev-2"}},
		{"query on description", models.FilterState{City: models.AllCities, Query: "ROCK"}, []string{"ev-1", "ev-3"}},
		{"both", models.FilterState{City: "Uberaba-MG", Query: "risadas"}, []string{"ev-3"}},
		{"whitespace query", models.FilterState{City: models.AllCities, Query: "   "}, []string{"ev-1", "ev-2", "ev-3"}},
		{"no match", models.FilterState{City: "Araxá-MG"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.FilteredView(tt.filter)
			ids := make([]string, 0, len(got))
			for _, ev := range got {
				ids = append(ids, ev.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterEvents_IdempotentAndCommutative(t *testing.T) {
	records, err := ParseCatalogPayload([]byte(sampleCatalog))
	require.NoError(t, err)
	events := normalizeAll(records)

	cities := []string{models.AllCities, "Uberaba-MG", "uberlândia-mg", "Nowhere"}
	queries := []string{"", "rock", "DUPLAS", "zzz"}

	for _, city := range cities {
		for _, q := range queries {
			both := models.FilterState{City: city, Query: q}
			cityOnly := models.FilterState{City: city}
			textOnly := models.FilterState{City: models.AllCities, Query: q}

			direct := FilterEvents(events, both)
			cityThenText := FilterEvents(FilterEvents(events, cityOnly), textOnly)
			textThenCity := FilterEvents(FilterEvents(events, textOnly), cityOnly)

			assert.Equal(t, direct, cityThenText, "city=%q q=%q", city, q)
			assert.Equal(t, direct, textThenCity, "city=%q q=%q", city, q)
			assert.Equal(t, direct, FilterEvents(direct, both), "idempotent city=%q q=%q", city, q)
		}
	}
}

func TestCatalog_Cities(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle("/api/events", http.StatusOK, sampleCatalog)
	c := newTestCatalog(t, fb)
	c.Load(context.Background())

	assert.Equal(t, []string{"Uberaba-MG", "Uberlândia-MG"}, c.Cities())
}

func TestNormalizeAll_IDLessTwinsKept(t *testing.T) {
	records := []map[string]any{
		{"title": "Forró", "city": "Araxá-MG", "date": "2026-12-01"},
		{"title": "Forró", "city": "Araxá-MG", "date": "2026-12-01"},
		{"id": "ev-9", "title": "Com ID"},
		{"id": "ev-9", "title": "Repetido"},
	}

	events := normalizeAll(records)

	require.Len(t, events, 3)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.Equal(t, NormalizeEvent(records[0]).ID, events[0].ID)
	assert.Equal(t, "Com ID", events[2].Name)

	again := normalizeAll(records)
	assert.Equal(t, events[1].ID, again[1].ID)
}
