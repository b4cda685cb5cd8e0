// Package views maps catalog and session state to HTML fragments. The
// Build functions are pure; Renderer only executes templates.
package views

import (
	"strings"
	"time"

	"storefront/internal/i18n"
	"storefront/models"

	"golang.org/x/text/message"
)

const dateLayout = "02/01/2006 15:04"

var chipColors = map[models.Status]string{
	models.StatusSoldOut:    "#d64545",
	models.StatusLowStock:   "#e5a50a",
	models.StatusComingSoon: "#3b82f6",
}

var statusKeys = map[models.Status]string{
	models.StatusSoldOut:    i18n.StatusSoldOut,
	models.StatusLowStock:   i18n.StatusLowStock,
	models.StatusComingSoon: i18n.StatusComingSoon,
}

// ChipColor is the status chip color for a category.
func ChipColor(s models.Status) string {
	if c, ok := chipColors[s]; ok {
		return c
	}
	return chipColors[models.StatusComingSoon]
}

type Chip struct {
	Class string
	Color string
	Text  string
}

func statusChip(p *message.Printer, s models.Status) Chip {
	key, ok := statusKeys[s]
	if !ok {
		key = i18n.StatusComingSoon
		s = models.StatusComingSoon
	}
	return Chip{Class: "chip chip--" + string(s), Color: ChipColor(s), Text: p.Sprintf(key)}
}

type Card struct {
	ID       string
	Href     string
	Name     string
	City     string
	Date     string
	ImageURL string
	Chip     Chip
}

type CityChip struct {
	Value  string
	Label  string
	Active bool
}

type Nav struct {
	ShowAdmin     bool
	AdminLabel    string
	AdminURL      string
	ShowValidator bool
	ValidatorText string
	Indicator     string
	SignedIn      bool
	SessionLabel  string
	PhoneLabel    string
	CodeLabel     string
}

type GalleryView struct {
	Cards     []Card
	Cities    []CityChip
	Query     string
	EmptyText string
}

type SheetView struct {
	ID          string
	Name        string
	City        string
	Venue       string
	Date        string
	Category    string
	Description string
	ImageURL    string
	Chip        Chip
	PriceText   string
	MapURL      string
	MapLabel    string
	CanBuy      bool
	BuyLabel    string
	SoldOutText string
	ShowEdit    bool
	EditURL     string
	EditLabel   string
}

type PageView struct {
	Lang    string
	Title   string
	Nav     Nav
	Gallery GalleryView
	Sheet   *SheetView
}

// BuildGallery produces one card per event of the filtered view, in order.
func BuildGallery(p *message.Printer, events []models.Event, cities []string, f models.FilterState) GalleryView {
	g := GalleryView{
		Cards:     make([]Card, 0, len(events)),
		Query:     f.Query,
		EmptyText: p.Sprintf(i18n.GalleryEmpty),
	}

	selected := f.City
	if strings.TrimSpace(selected) == "" {
		selected = models.AllCities
	}
	g.Cities = append(g.Cities, CityChip{
		Value:  models.AllCities,
		Label:  p.Sprintf(i18n.GalleryAll),
		Active: selected == models.AllCities,
	})
	for _, c := range cities {
		g.Cities = append(g.Cities, CityChip{Value: c, Label: c, Active: strings.EqualFold(c, selected)})
	}

	for _, ev := range events {
		g.Cards = append(g.Cards, Card{
			ID:       ev.ID,
			Href:     "/events/" + ev.ID,
			Name:     ev.Name,
			City:     ev.City,
			Date:     formatDate(ev.StartsAt),
			ImageURL: ev.ImageURL,
			Chip:     statusChip(p, ev.Status),
		})
	}
	return g
}

// BuildSheet produces the detail panel. Purchase is suppressed for sold-out
// events; the edit link needs organizer visibility.
func BuildSheet(p *message.Printer, ev models.Event, vis models.Visibility, dashboardURL string) SheetView {
	s := SheetView{
		ID:          ev.ID,
		Name:        ev.Name,
		City:        ev.City,
		Venue:       ev.Venue,
		Date:        formatDate(ev.StartsAt),
		Category:    ev.Category,
		Description: ev.Description,
		ImageURL:    ev.ImageURL,
		Chip:        statusChip(p, ev.Status),
		MapURL:      ev.VenueMapURL,
		MapLabel:    p.Sprintf(i18n.SheetMap),
		CanBuy:      ev.Status.Purchasable(),
		BuyLabel:    p.Sprintf(i18n.SheetBuy),
		SoldOutText: p.Sprintf(i18n.SheetSoldOut),
	}
	if ev.HasPrice() {
		s.PriceText = p.Sprintf(i18n.SheetPrice, ev.Price.StringFixed(2))
	}
	if vis.OrganizerFields && dashboardURL != "" {
		s.ShowEdit = true
		s.EditURL = strings.TrimRight(dashboardURL, "/") + "/events/" + ev.ID + "/edit"
		s.EditLabel = p.Sprintf(i18n.SheetEdit)
	}
	return s
}

// BuildNav maps visibility onto the header.
func BuildNav(p *message.Printer, vis models.Visibility, dashboardURL string) Nav {
	n := Nav{
		ShowAdmin:     vis.AdminNav,
		ShowValidator: vis.ValidatorPanel,
		Indicator:     vis.Indicator,
		SignedIn:      vis.AdminNav,
		PhoneLabel:    p.Sprintf(i18n.LoginPhone),
		CodeLabel:     p.Sprintf(i18n.LoginCode),
	}
	if n.SignedIn {
		n.SessionLabel = p.Sprintf(i18n.NavLogout)
	} else {
		n.SessionLabel = p.Sprintf(i18n.NavLogin)
	}
	if vis.Indicator == models.IndicatorOffline {
		n.Indicator = p.Sprintf(i18n.IndicatorOffline)
	}
	if n.ShowAdmin {
		n.AdminLabel = p.Sprintf(i18n.NavAdmin)
		n.AdminURL = dashboardURL
	}
	if n.ShowValidator {
		n.ValidatorText = p.Sprintf(i18n.NavValidator)
	}
	return n
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
