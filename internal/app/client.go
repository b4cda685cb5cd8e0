package app

import (
	"context"
	"sync"
	"time"

	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/internal/storage"
	"storefront/models"
	"storefront/notify"
	"storefront/services"
	"storefront/views"

	"github.com/google/uuid"
)

// NewClientID issues a random visitor id.
func NewClientID() string {
	return uuid.NewString()
}

// ValidClientID reports whether id has the shape NewClientID produces.
func ValidClientID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// ClientKeyPrefix scopes a visitor's persisted session in storage.
func ClientKeyPrefix(id string) string {
	return clientKeyPrefix + id + ":"
}

// Client is one visitor: its session and login flow, its backend cookies,
// its filter and modal, and the live streams it has open.
type Client struct {
	Backend   *services.Backend
	Session   *services.SessionStore
	OTP       *services.OTPFlow
	Validator *services.ValidatorFlow

	app       *App
	requester *fetch.Fetcher
	debouncer *services.Debouncer
	restore   sync.Once

	mu       sync.Mutex
	catalog  *services.Catalog
	purchase *services.PurchaseFlow
	filter   models.FilterState
	modal    Modal
	sheetID  string
	override string
	seen     time.Time

	subMu sync.Mutex
	subs  map[*Subscriber]struct{}
}

func (a *App) newClient(id string) (*Client, error) {
	requester, err := a.Fetcher.WithSession()
	if err != nil {
		return nil, err
	}
	backend := services.NewBackend(a.Backend.Endpoints())
	session := services.NewSessionStore(storage.WithPrefix(a.Store, ClientKeyPrefix(id)), a.Publisher, a.Log)

	cl := &Client{
		Backend:   backend,
		Session:   session,
		OTP:       services.NewOTPFlow(backend, requester, session, a.Printer, a.Config.DashboardURL, a.Monitor, a.Log),
		Validator: services.NewValidatorFlow(backend, requester, a.Printer, a.Monitor, a.Publisher, a.Log),
		app:       a,
		requester: requester,
		debouncer: services.NewDebouncer(a.Config.SearchDebounce),
		catalog:   a.Catalog,
		filter:    models.NewFilterState(),
		subs:      map[*Subscriber]struct{}{},
	}
	cl.purchase = a.purchaseFlow(backend, requester, a.Catalog)
	session.Subscribe(cl.onSessionChange)
	return cl, nil
}

func (a *App) purchaseFlow(backend *services.Backend, requester *fetch.Fetcher, catalog *services.Catalog) *services.PurchaseFlow {
	return services.NewPurchaseFlow(backend, requester, catalog, a.Printer, a.Config.SupportWhatsApp, a.Monitor, a.Publisher, a.Log)
}

func (cl *Client) touch(now time.Time) {
	cl.mu.Lock()
	cl.seen = now
	cl.mu.Unlock()
}

func (cl *Client) idle(now time.Time, ttl time.Duration) bool {
	cl.subMu.Lock()
	streaming := len(cl.subs) > 0
	cl.subMu.Unlock()
	if streaming {
		return false
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return now.Sub(cl.seen) > ttl
}

// Catalog is the shared catalog, or the one loaded from this visitor's
// ?api= override once it is ready.
func (cl *Client) Catalog() *services.Catalog {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.catalog
}

// UseAPIBase points this visitor's backend calls at an ?api= override and
// loads a catalog from it. Other visitors are unaffected. Outside development
// the host must be listed in the config.
func (cl *Client) UseAPIBase(ctx context.Context, override string) (bool, error) {
	if override == "" {
		return false, nil
	}
	a := cl.app
	endpoints := a.Config.Endpoints(override)
	if !a.Config.OverrideAllowed(endpoints.API) {
		return false, ErrOverrideRefused
	}

	cl.mu.Lock()
	changed := cl.override != endpoints.API
	cl.override = endpoints.API
	cl.mu.Unlock()
	if !changed {
		return false, nil
	}

	cl.Backend.Use(endpoints)
	a.log.Info().Str("api", endpoints.API).Msg("api base overridden for client")

	catalog := services.NewCatalog(cl.Backend, cl.requester, a.Printer, a.Monitor, a.Publisher, a.Log)
	err := a.submit(context.WithoutCancel(ctx), func(ctx context.Context) {
		catalog.Load(ctx)

		cl.mu.Lock()
		current := cl.override == endpoints.API
		if current {
			cl.catalog = catalog
			cl.purchase = a.purchaseFlow(cl.Backend, cl.requester, catalog)
		}
		cl.mu.Unlock()
		if current {
			cl.catalogChanged()
		}
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("catalog load after override not queued")
	}
	return true, nil
}

// Reload fetches this visitor's catalog again.
func (cl *Client) Reload(ctx context.Context) (services.LoadResult, error) {
	catalog := cl.Catalog()
	if catalog == cl.app.Catalog {
		return cl.app.Reload(ctx)
	}
	return call(ctx, cl.app, func(ctx context.Context) services.LoadResult {
		res := catalog.Load(ctx)
		cl.catalogChanged()
		return res
	})
}

// catalogChanged closes a sheet whose event is gone and re-renders.
func (cl *Client) catalogChanged() {
	catalog := cl.Catalog()

	cl.mu.Lock()
	if cl.modal == ModalSheet {
		if _, err := catalog.Lookup(cl.sheetID); err != nil {
			cl.modal = ModalNone
			cl.sheetID = ""
		}
	}
	cl.mu.Unlock()

	cl.broadcastGallery()
}

func (cl *Client) Filter() models.FilterState {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.filter
}

// SetQuery records the search text; the gallery re-render is debounced.
func (cl *Client) SetQuery(q string) {
	cl.mu.Lock()
	cl.filter.Query = q
	cl.mu.Unlock()
	cl.debouncer.Trigger(cl.broadcastGallery)
}

// SelectCity applies a city chip immediately.
func (cl *Client) SelectCity(city string) {
	if city == "" {
		city = models.AllCities
	}
	cl.mu.Lock()
	cl.filter.City = city
	cl.mu.Unlock()
	cl.broadcastGallery()
}

func (cl *Client) Modal() (Modal, string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.modal, cl.sheetID
}

// OpenSheet shows the detail panel for id.
func (cl *Client) OpenSheet(id string) (views.SheetView, error) {
	ev, err := cl.Catalog().Lookup(id)
	if err != nil {
		return views.SheetView{}, err
	}

	cl.mu.Lock()
	cl.modal = ModalSheet
	cl.sheetID = id
	cl.mu.Unlock()

	a := cl.app
	return views.BuildSheet(a.Printer, ev, cl.Session.Visibility(), a.Config.DashboardURL), nil
}

// OpenModal shows a dialog. The validator only opens for organizers.
func (cl *Client) OpenModal(m Modal) bool {
	if m == ModalValidator && !cl.Session.Visibility().ValidatorPanel {
		return false
	}
	cl.mu.Lock()
	cl.modal = m
	if m != ModalSheet {
		cl.sheetID = ""
	}
	cl.mu.Unlock()
	return true
}

func (cl *Client) CloseModal() {
	cl.mu.Lock()
	cl.modal = ModalNone
	cl.sheetID = ""
	cl.mu.Unlock()
}

func (cl *Client) Gallery() views.GalleryView {
	f := cl.Filter()
	catalog := cl.Catalog()
	return views.BuildGallery(cl.app.Printer, catalog.FilteredView(f), catalog.Cities(), f)
}

func (cl *Client) Nav() views.Nav {
	return views.BuildNav(cl.app.Printer, cl.Session.Visibility(), cl.app.Config.DashboardURL)
}

// Page assembles the full document, with the sheet open when sheetID is set.
func (cl *Client) Page(sheetID string) (views.PageView, error) {
	page := views.PageView{
		Lang:    i18n.ResolveTag(cl.app.Config.Locale).String(),
		Title:   "Ingressos",
		Nav:     cl.Nav(),
		Gallery: cl.Gallery(),
	}
	if sheetID != "" {
		sheet, err := cl.OpenSheet(sheetID)
		if err != nil {
			return page, err
		}
		page.Sheet = &sheet
	}
	return page, nil
}

func (cl *Client) Purchase(ctx context.Context, req services.PurchaseRequest) (services.FlowResult, error) {
	cl.mu.Lock()
	flow := cl.purchase
	cl.mu.Unlock()
	return call(ctx, cl.app, func(ctx context.Context) services.FlowResult {
		return flow.Start(ctx, req)
	})
}

func (cl *Client) RequestCode(ctx context.Context, phone string) (services.FlowResult, error) {
	res, err := call(ctx, cl.app, func(ctx context.Context) services.FlowResult {
		return cl.OTP.RequestCode(ctx, phone)
	})
	if err == nil && res.OK {
		cl.OpenModal(ModalOTP)
	}
	return res, err
}

func (cl *Client) VerifyCode(ctx context.Context, code string) (services.FlowResult, error) {
	res, err := call(ctx, cl.app, func(ctx context.Context) services.FlowResult {
		return cl.OTP.VerifyCode(ctx, code)
	})
	if err == nil && res.OK {
		cl.CloseModal()
	}
	return res, err
}

func (cl *Client) CancelLogin() services.FlowResult {
	cl.CloseModal()
	return cl.OTP.Cancel()
}

func (cl *Client) Logout(ctx context.Context) (services.FlowResult, error) {
	return call(ctx, cl.app, cl.OTP.Logout)
}

func (cl *Client) CheckTicket(ctx context.Context, code string) (services.ValidatorResult, error) {
	return call(ctx, cl.app, func(ctx context.Context) services.ValidatorResult {
		return cl.Validator.Check(ctx, code)
	})
}

// Subscribe registers a live listener for this visitor.
func (cl *Client) Subscribe() *Subscriber {
	sub := newSubscriber()
	cl.subMu.Lock()
	cl.subs[sub] = struct{}{}
	cl.subMu.Unlock()
	return sub
}

func (cl *Client) Unsubscribe(sub *Subscriber) {
	cl.subMu.Lock()
	delete(cl.subs, sub)
	cl.subMu.Unlock()
	cl.touch(time.Now())
}

func (cl *Client) streaming() bool {
	cl.subMu.Lock()
	defer cl.subMu.Unlock()
	return len(cl.subs) > 0
}

func (cl *Client) broadcastGallery() {
	if !cl.streaming() {
		return
	}
	html, err := cl.app.Renderer.GalleryHTML(cl.Gallery())
	if err != nil {
		cl.app.log.Error().Err(err).Msg("gallery render failed")
		return
	}
	cl.broadcast(Update{Kind: UpdateGallery, Data: html})
}

func (cl *Client) onSessionChange(sess models.Session, vis models.Visibility) {
	if !vis.ValidatorPanel {
		cl.mu.Lock()
		if cl.modal == ModalValidator {
			cl.modal = ModalNone
		}
		cl.mu.Unlock()
	}
	cl.broadcast(Update{Kind: UpdateSession, Data: StreamIndicator(sess, vis)})
}

// StreamIndicator is the session indicator sent over live streams; an
// organizer's phone is masked.
func StreamIndicator(sess models.Session, vis models.Visibility) string {
	if sess.Organizer {
		return notify.MaskPhone(sess.Phone)
	}
	return vis.Indicator
}

func (cl *Client) broadcast(u Update) {
	cl.subMu.Lock()
	defer cl.subMu.Unlock()
	for sub := range cl.subs {
		sub.offer(u)
	}
}
