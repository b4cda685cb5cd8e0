package views

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"storefront/internal/i18n"
	"storefront/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	organizer = models.VisibilityFor(models.Session{Organizer: true, Phone: "5534999999999"})
	visitor   = models.VisibilityFor(models.Session{})
)

func sampleEvents() []models.Event {
	return []models.Event{
		{ID: "ev-1", Name: "Rock na Praça", City: "Uberaba-MG", Status: models.StatusLowStock, StartsAt: time.Date(2026, 11, 20, 21, 0, 0, 0, time.UTC), Price: decimal.NewFromInt(50)},
		{ID: "ev-2", Name: "Festival <Sertanejo>", City: "Uberlândia-MG", Status: models.StatusSoldOut},
	}
}

func TestBuildGallery(t *testing.T) {
	p := i18n.Printer("pt-BR")

	g := BuildGallery(p, sampleEvents(), []string{"Uberaba-MG", "Uberlândia-MG"}, models.FilterState{City: "uberaba-mg"})

	require.Len(t, g.Cards, 2)
	assert.Equal(t, "/events/ev-1", g.Cards[0].Href)
	assert.Equal(t, "20/11/2026 21:00", g.Cards[0].Date)
	assert.Equal(t, "#e5a50a", g.Cards[0].Chip.Color)
	assert.Equal(t, "chip chip--sold-out", g.Cards[1].Chip.Class)
	assert.Equal(t, "Esgotado", g.Cards[1].Chip.Text)

	require.Len(t, g.Cities, 3)
	assert.Equal(t, models.AllCities, g.Cities[0].Value)
	assert.Equal(t, "Todas", g.Cities[0].Label)
	assert.False(t, g.Cities[0].Active)
	assert.True(t, g.Cities[1].Active)
}

func TestBuildGallery_AllSelectedByDefault(t *testing.T) {
	g := BuildGallery(i18n.Printer("en"), nil, nil, models.FilterState{})

	require.Len(t, g.Cities, 1)
	assert.True(t, g.Cities[0].Active)
	assert.Equal(t, "All", g.Cities[0].Label)
	assert.Empty(t, g.Cards)
}

func TestBuildSheet(t *testing.T) {
	p := i18n.Printer("pt-BR")
	events := sampleEvents()

	tests := []struct {
		name     string
		event    models.Event
		vis      models.Visibility
		canBuy   bool
		showEdit bool
	}{
		{"visitor low stock", events[0], visitor, true, false},
		{"visitor sold out", events[1], visitor, false, false},
		{"organizer low stock", events[0], organizer, true, true},
		{"organizer sold out", events[1], organizer, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := BuildSheet(p, tt.event, tt.vis, "https://painel.example/")
			assert.Equal(t, tt.canBuy, s.CanBuy)
			assert.Equal(t, tt.showEdit, s.ShowEdit)
			if tt.showEdit {
				assert.Equal(t, "https://painel.example/events/"+tt.event.ID+"/edit", s.EditURL)
			}
		})
	}
}

func TestBuildSheet_Price(t *testing.T) {
	s := BuildSheet(i18n.Printer("pt-BR"), sampleEvents()[0], visitor, "")

	assert.Equal(t, "A partir de R$ 50.00", s.PriceText)
	assert.Empty(t, BuildSheet(i18n.Printer("pt-BR"), sampleEvents()[1], visitor, "").PriceText)
}

func TestBuildNav(t *testing.T) {
	p := i18n.Printer("pt-BR")

	off := BuildNav(p, visitor, "https://painel.example")
	assert.False(t, off.ShowAdmin)
	assert.False(t, off.ShowValidator)
	assert.Equal(t, "offline", off.Indicator)

	on := BuildNav(p, organizer, "https://painel.example")
	assert.True(t, on.ShowAdmin)
	assert.True(t, on.ShowValidator)
	assert.Equal(t, "https://painel.example", on.AdminURL)
	assert.Equal(t, "5534999999999", on.Indicator)
}

func TestChipColor_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, ChipColor(models.StatusComingSoon), ChipColor(models.Status("weird")))
}

func TestRenderer_Gallery(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	p := i18n.Printer("pt-BR")

	html, err := r.GalleryHTML(BuildGallery(p, sampleEvents(), nil, models.NewFilterState()))
	require.NoError(t, err)

	assert.Contains(t, html, `id="card-ev-1"`)
	assert.Contains(t, html, "Festival &lt;Sertanejo&gt;")
	assert.Contains(t, html, "#d64545")
	assert.Equal(t, 2, strings.Count(html, `class="card"`))

	empty, err := r.GalleryHTML(BuildGallery(p, nil, nil, models.NewFilterState()))
	require.NoError(t, err)
	assert.Contains(t, empty, "Nenhum evento encontrado.")
}

func TestRenderer_Sheet(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	p := i18n.Printer("pt-BR")
	events := sampleEvents()

	var buf bytes.Buffer
	require.NoError(t, r.Sheet(&buf, BuildSheet(p, events[1], visitor, "https://painel.example")))
	assert.NotContains(t, buf.String(), `action="/flows/purchase"`)
	assert.Contains(t, buf.String(), "Esgotado")
	assert.NotContains(t, buf.String(), `class="edit"`)

	buf.Reset()
	require.NoError(t, r.Sheet(&buf, BuildSheet(p, events[0], organizer, "https://painel.example")))
	assert.Contains(t, buf.String(), `action="/flows/purchase"`)
	assert.Contains(t, buf.String(), `class="edit"`)
}

func TestRenderer_Page(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	p := i18n.Printer("pt-BR")

	var buf bytes.Buffer
	err = r.Page(&buf, PageView{
		Lang:    "pt-BR",
		Title:   "Ingressos",
		Nav:     BuildNav(p, organizer, "https://painel.example"),
		Gallery: BuildGallery(p, sampleEvents(), nil, models.NewFilterState()),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `<html lang="pt-BR">`)
	assert.Contains(t, out, `id="validator"`)
	assert.Contains(t, out, "Painel")
	assert.Contains(t, out, `id="card-ev-2"`)
}
