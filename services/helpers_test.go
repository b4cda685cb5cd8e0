package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/notify"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/message"
)

// fakeBackend is an httptest server with per-path handlers and hit counts.
type fakeBackend struct {
	srv *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	bodies   map[string][]byte
	queries  map[string]string
	cookies  map[string]string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		handlers: map[string]http.HandlerFunc{},
		hits:     map[string]int{},
		bodies:   map[string][]byte{},
		queries:  map[string]string{},
		cookies:  map[string]string{},
	}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fb.mu.Lock()
		fb.hits[r.URL.Path]++
		fb.bodies[r.URL.Path] = body
		fb.queries[r.URL.Path] = r.URL.RawQuery
		if c, err := r.Cookie("sid"); err == nil {
			fb.cookies[r.URL.Path] = c.Value
		}
		h, ok := fb.handlers[r.URL.Path]
		fb.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) handle(path string, code int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		io.WriteString(w, body)
	}
}

func (fb *fakeBackend) handleFunc(path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[path] = h
}

func (fb *fakeBackend) hitCount(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.hits[path]
}

func (fb *fakeBackend) lastJSON(t *testing.T, path string) map[string]string {
	t.Helper()
	fb.mu.Lock()
	body := fb.bodies[path]
	fb.mu.Unlock()

	out := map[string]string{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func (fb *fakeBackend) lastQuery(path string) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.queries[path]
}

func (fb *fakeBackend) cookie(path string) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.cookies[path]
}

func (fb *fakeBackend) backend() *Backend {
	return NewBackend(config.NewEndpoints(fb.srv.URL + "/api"))
}

func newTestRequester(t *testing.T) *fetch.Fetcher {
	t.Helper()
	f, err := fetch.New(fetch.Config{Timeout: 2 * time.Second}, nil, zerolog.Nop())
	require.NoError(t, err)
	return f
}

func testPrinter() *message.Printer {
	return i18n.Printer("pt-BR")
}

type recordingPublisher struct {
	mu   sync.Mutex
	acts []notify.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, a notify.Activity) error {
	p.mu.Lock()
	p.acts = append(p.acts, a)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.acts))
	for i, a := range p.acts {
		out[i] = a.Kind
	}
	return out
}

const sampleCatalog = `{"items":[
	{"id":"ev-1","title":"Rock na Praça","city":"Uberaba-MG","venue":"Praça Rui Barbosa","status":"Últimas unidades","description":"Bandas locais","date":"2026-11-20T21:00:00-03:00","price":"50,00"},
	{"id":"ev-2","nome":"Festival Sertanejo","cidade":"Uberlândia-MG","local":"Center Convention","statusLabel":"ESGOTADO","descricao":"Grandes duplas","data":"05/12/2026 20:00"},
	{"_id":"ev-3","name":"Stand-up Comedy","city":"uberaba-mg","status":"em breve","desc":"Noite de ROCK e risadas"}
]}`
