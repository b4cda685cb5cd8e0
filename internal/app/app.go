// Package app owns the mutable UI state of the storefront. Shared state is
// the catalog and the work queue; everything a visitor does (session, login,
// filters, the open modal, live subscribers) lives on that visitor's Client.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/config"
	"storefront/internal/fetch"
	"storefront/internal/storage"
	"storefront/monitoring"
	"storefront/notify"
	"storefront/services"
	"storefront/views"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"
)

var (
	// ErrBusy is returned when the work queue is full.
	ErrBusy = errors.New("work queue is full")

	// ErrOverrideRefused is returned for an ?api= base outside the allow-list.
	ErrOverrideRefused = errors.New("api override not allowed")
)

const (
	defaultWorkers  = 4
	defaultIdleTTL  = 30 * time.Minute
	minSweepPeriod  = time.Minute
	clientKeyPrefix = "client:"
)

type Modal int

const (
	ModalNone Modal = iota
	ModalSheet
	ModalLogin
	ModalOTP
	ModalValidator
)

func (m Modal) String() string {
	switch m {
	case ModalSheet:
		return "sheet"
	case ModalLogin:
		return "login"
	case ModalOTP:
		return "otp"
	case ModalValidator:
		return "validator"
	default:
		return "none"
	}
}

// ParseModal is the inverse of Modal.String.
func ParseModal(s string) (Modal, bool) {
	for m := ModalNone; m <= ModalValidator; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return ModalNone, false
}

// Update is one message pushed to live subscribers.
type Update struct {
	Kind string
	Data string
}

const (
	UpdateGallery = "gallery"
	UpdateSession = "session"
)

type Deps struct {
	Config *config.Config

	// Backend and Catalog are the configured base and the catalog loaded
	// from it, shared by every visitor without an override.
	Backend *services.Backend
	Catalog *services.Catalog

	Store     storage.Store
	Fetcher   *fetch.Fetcher
	Publisher notify.Publisher
	Monitor   *monitoring.Monitor
	Renderer  *views.Renderer
	Printer   *message.Printer
	Log       zerolog.Logger
}

type task struct {
	ctx context.Context
	run func(context.Context)
}

type App struct {
	Deps

	queue   chan task
	workers sync.WaitGroup
	idleTTL time.Duration
	log     zerolog.Logger

	clientMu sync.Mutex
	clients  map[string]*Client
}

func New(deps Deps) *App {
	size := deps.Config.WorkQueueSize
	if size <= 0 {
		size = 64
	}
	ttl := deps.Config.ClientIdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	if deps.Publisher == nil {
		deps.Publisher = notify.Noop{}
	}
	return &App{
		Deps:    deps,
		queue:   make(chan task, size),
		idleTTL: ttl,
		log:     deps.Log.With().Str("component", "app").Logger(),
		clients: map[string]*Client{},
	}
}

// Start loads the catalog and runs the workers and the idle sweep until
// ctx is done.
func (a *App) Start(ctx context.Context) {
	for i := 0; i < defaultWorkers; i++ {
		a.workers.Add(1)
		go a.worker(ctx)
	}

	a.workers.Add(1)
	go a.sweepLoop(ctx)

	if err := a.submit(ctx, func(ctx context.Context) { a.reload(ctx) }); err != nil {
		a.log.Error().Err(err).Msg("initial catalog load not queued")
	}
}

// Wait blocks until all workers have exited.
func (a *App) Wait() {
	a.clientMu.Lock()
	for _, cl := range a.clients {
		cl.debouncer.Stop()
	}
	a.clientMu.Unlock()
	a.workers.Wait()
}

func (a *App) worker(ctx context.Context) {
	defer a.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-a.queue:
			if t.ctx.Err() != nil {
				continue
			}
			t.run(t.ctx)
		}
	}
}

func (a *App) submit(ctx context.Context, fn func(context.Context)) error {
	select {
	case a.queue <- task{ctx: ctx, run: fn}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBusy
	}
}

// call runs fn on the work queue and waits for its result.
func call[T any](ctx context.Context, a *App, fn func(context.Context) T) (T, error) {
	done := make(chan T, 1)
	if err := a.submit(ctx, func(ctx context.Context) { done <- fn(ctx) }); err != nil {
		var zero T
		return zero, err
	}
	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Client returns the state of visitor id, creating it and restoring its
// persisted session on first use.
func (a *App) Client(ctx context.Context, id string) (*Client, error) {
	a.clientMu.Lock()
	cl, ok := a.clients[id]
	if !ok {
		var err error
		cl, err = a.newClient(id)
		if err != nil {
			a.clientMu.Unlock()
			return nil, err
		}
		a.clients[id] = cl
	}
	a.clientMu.Unlock()

	cl.touch(time.Now())
	cl.restore.Do(func() {
		if _, err := cl.Session.Restore(ctx); err != nil {
			a.log.Warn().Err(err).Msg("session restore failed")
		}
	})
	return cl, nil
}

// Clients is the number of visitors currently held in memory.
func (a *App) Clients() int {
	a.clientMu.Lock()
	defer a.clientMu.Unlock()
	return len(a.clients)
}

func (a *App) snapshot() []*Client {
	a.clientMu.Lock()
	defer a.clientMu.Unlock()
	out := make([]*Client, 0, len(a.clients))
	for _, cl := range a.clients {
		out = append(out, cl)
	}
	return out
}

func (a *App) sweepLoop(ctx context.Context) {
	defer a.workers.Done()

	period := a.idleTTL / 2
	if period < minSweepPeriod {
		period = minSweepPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.sweep(now); n > 0 {
				a.log.Debug().Int("dropped", n).Int("clients", a.Clients()).Msg("idle clients swept")
			}
		}
	}
}

// sweep drops visitors idle for longer than the TTL with no live stream.
// A persisted session is restored on the next visit.
func (a *App) sweep(now time.Time) int {
	a.clientMu.Lock()
	defer a.clientMu.Unlock()

	dropped := 0
	for id, cl := range a.clients {
		if cl.idle(now, a.idleTTL) {
			cl.debouncer.Stop()
			delete(a.clients, id)
			dropped++
		}
	}
	return dropped
}

// Reload fetches the shared catalog again.
func (a *App) Reload(ctx context.Context) (services.LoadResult, error) {
	return call(ctx, a, a.reload)
}

func (a *App) reload(ctx context.Context) services.LoadResult {
	res := a.Catalog.Load(ctx)
	for _, cl := range a.snapshot() {
		if cl.Catalog() == a.Catalog {
			cl.catalogChanged()
		}
	}
	return res
}

// Healthy reports storage health with a short deadline.
func (a *App) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.Store.Ping(ctx)
}
