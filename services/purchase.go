package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/monitoring"
	"storefront/notify"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
)

const (
	flowPurchase = "purchase"

	whatsAppBase = "https://wa.me/"
	maxQuantity  = 20
)

type PurchaseRequest struct {
	EventID string `json:"event_id" form:"event_id"`
	Phone   string `json:"phone" form:"phone"`
	Name    string `json:"name" form:"name"`
	Qty     int    `json:"qty" form:"qty"`
}

// PurchaseFlow starts a purchase on the backend and falls back to a
// prefilled WhatsApp message when the backend cannot be reached.
type PurchaseFlow struct {
	backend   *Backend
	requester Requester
	catalog   *Catalog
	printer   *message.Printer
	support   string
	monitor   *monitoring.Monitor
	publisher notify.Publisher
	log       zerolog.Logger
}

func NewPurchaseFlow(backend *Backend, requester Requester, catalog *Catalog, printer *message.Printer, supportWhatsApp string, monitor *monitoring.Monitor, publisher notify.Publisher, log zerolog.Logger) *PurchaseFlow {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &PurchaseFlow{
		backend:   backend,
		requester: requester,
		catalog:   catalog,
		printer:   printer,
		support:   digitsOnly(supportWhatsApp),
		monitor:   monitor,
		publisher: publisher,
		log:       log.With().Str("flow", flowPurchase).Logger(),
	}
}

func (f *PurchaseFlow) Start(ctx context.Context, req PurchaseRequest) FlowResult {
	ev, err := f.catalog.Lookup(req.EventID)
	if err != nil {
		f.monitor.TrackFlow(flowPurchase, monitoring.OutcomeRejected)
		return FlowResult{Message: f.printer.Sprintf(i18n.PurchaseInvalidEvent), Err: err}
	}

	phone, err := CleanPhone(req.Phone)
	if err != nil {
		f.monitor.TrackFlow(flowPurchase, monitoring.OutcomeRejected)
		return FlowResult{Message: f.printer.Sprintf(i18n.PurchaseInvalidPhone), Err: err}
	}

	qty := req.Qty
	if qty < 1 {
		qty = 1
	}
	if qty > maxQuantity {
		qty = maxQuantity
	}
	name := strings.TrimSpace(req.Name)

	query := url.Values{}
	query.Set("ev", ev.ID)
	query.Set("to", phone)
	query.Set("name", name)
	query.Set("qty", strconv.Itoa(qty))

	candidates := f.backend.Endpoints().Candidates("/purchase/start")
	for i := range candidates {
		candidates[i] += "?" + query.Encode()
	}

	_, err = f.requester.Do(ctx, candidates, fetch.Options{Method: http.MethodPost})
	if err != nil {
		f.monitor.TrackFlow(flowPurchase, monitoring.OutcomeFailed)
		f.log.Warn().Err(err).Str("event_id", ev.ID).Msg("purchase start failed, offering whatsapp")
		_ = f.publisher.Publish(ctx, notify.Activity{Kind: notify.KindPurchase, Outcome: monitoring.OutcomeFailed, EventID: ev.ID, Phone: notify.MaskPhone(phone)})

		intent := f.printer.Sprintf(i18n.PurchaseIntent, qty, ev.Name, ev.ID, phone, name)
		return FlowResult{
			Message:     f.printer.Sprintf(i18n.PurchaseFailed),
			FallbackURL: WhatsAppLink(f.support, intent),
			Err:         err,
		}
	}

	f.monitor.TrackFlow(flowPurchase, monitoring.OutcomeOK)
	f.log.Info().Str("event_id", ev.ID).Int("qty", qty).Msg("purchase started")
	_ = f.publisher.Publish(ctx, notify.Activity{Kind: notify.KindPurchase, Outcome: monitoring.OutcomeOK, EventID: ev.ID, Phone: notify.MaskPhone(phone), Count: qty})

	msg := f.printer.Sprintf(i18n.PurchaseStarted, phone)
	if ev.HasPrice() {
		total := ev.Price.Mul(decimal.NewFromInt(int64(qty)))
		msg += " " + f.printer.Sprintf(i18n.PurchaseTotal, qty, ev.Price.StringFixed(2), total.StringFixed(2))
	}
	return FlowResult{OK: true, Message: msg}
}

// WhatsAppLink builds a wa.me deep link carrying text as the prefilled message.
func WhatsAppLink(number, text string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return whatsAppBase + number + "?text=" + escaped
}
