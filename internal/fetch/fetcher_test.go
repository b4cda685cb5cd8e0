package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/status"
	"storefront/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f, err := New(Config{Timeout: 2 * time.Second}, nil, zerolog.Nop())
	require.NoError(t, err)
	return f
}

func statusServer(t *testing.T, code int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(code)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Do_FirstSuccessWins(t *testing.T) {
	var firstHits, secondHits, thirdHits int32
	first := statusServer(t, http.StatusNotFound, `{"error":"missing"}`, &firstHits)
	second := statusServer(t, http.StatusOK, `{"from":"second"}`, &secondHits)
	third := statusServer(t, http.StatusOK, `{"from":"third"}`, &thirdHits)

	f := newTestFetcher(t)
	resp, err := f.Do(context.Background(), []string{first.URL + "/events", second.URL + "/events", third.URL + "/events"}, Options{})

	require.NoError(t, err)
	assert.Equal(t, `{"from":"second"}`, string(resp.Body))
	assert.Equal(t, second.URL+"/events", resp.URL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&firstHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&secondHits))
	assert.Equal(t, int32(0), atomic.LoadInt32(&thirdHits))
}

func TestFetcher_Do_TransportErrorThenSuccess(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	ok := statusServer(t, http.StatusCreated, `[]`, nil)

	f := newTestFetcher(t)
	resp, err := f.Do(context.Background(), []string{deadURL + "/events", ok.URL + "/events"}, Options{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestFetcher_Do_Exhausted(t *testing.T) {
	first := statusServer(t, http.StatusInternalServerError, ``, nil)
	second := statusServer(t, http.StatusBadRequest, `{"error":"telefone inválido"}`, nil)

	f := newTestFetcher(t)
	_, err := f.Do(context.Background(), []string{first.URL, second.URL}, Options{Method: http.MethodPost})

	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrExhausted)

	var exhausted *status.RequestExhausted
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 2, exhausted.Attempts)

	var httpErr *status.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "telefone inválido", httpErr.Error())
}

func TestFetcher_Do_NoCandidates(t *testing.T) {
	f := newTestFetcher(t)

	_, err := f.Do(context.Background(), nil, Options{})

	assert.ErrorIs(t, err, status.ErrExhausted)
}

func TestFetcher_Do_InvalidCandidateSkipped(t *testing.T) {
	ok := statusServer(t, http.StatusOK, `{}`, nil)

	f := newTestFetcher(t)
	resp, err := f.Do(context.Background(), []string{"not a url", ok.URL}, Options{})

	require.NoError(t, err)
	assert.Equal(t, ok.URL, resp.URL)
}

func TestFetcher_Do_SendsOptions(t *testing.T) {
	var gotMethod, gotBody, gotType, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Do(context.Background(), []string{srv.URL}, Options{
		Method: http.MethodPost,
		Body:   []byte(`{"phone":"5534991551802"}`),
		Header: http.Header{"X-Client": []string{"storefront"}},
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"phone":"5534991551802"}`, gotBody)
	assert.Equal(t, "application/json", gotType)
	assert.Contains(t, gotRequestID, "req-")
}

func TestFetcher_Do_CredentialsMode(t *testing.T) {
	var cookieSeen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/verify" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
			w.WriteHeader(http.StatusOK)
			return
		}
		c, err := r.Cookie("sid")
		if err == nil {
			cookieSeen.Store(c.Value)
		} else {
			cookieSeen.Store("")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	ctx := context.Background()

	_, err := f.Do(ctx, []string{srv.URL + "/auth/verify"}, Options{Method: http.MethodPost, Credentials: CredentialsInclude})
	require.NoError(t, err)

	_, err = f.Do(ctx, []string{srv.URL + "/events"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "", cookieSeen.Load())

	_, err = f.Do(ctx, []string{srv.URL + "/validator/check"}, Options{Method: http.MethodPost, Credentials: CredentialsInclude})
	require.NoError(t, err)
	assert.Equal(t, "abc", cookieSeen.Load())
}

func TestFetcher_Do_OpenBreakerSkipsCandidate(t *testing.T) {
	var brokenHits int32
	broken := statusServer(t, http.StatusBadGateway, ``, &brokenHits)
	ok := statusServer(t, http.StatusOK, `{}`, nil)

	f, err := New(Config{Breaker: utils.BreakerSettings{MaxRequests: 2, FailureRatio: 0.5, Timeout: time.Minute}}, nil, zerolog.Nop())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.Do(context.Background(), []string{broken.URL, ok.URL}, Options{})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&brokenHits))
}

func TestFetcher_Do_SameHostEndpointsTripIndependently(t *testing.T) {
	var rootHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events":
			atomic.AddInt32(&rootHits, 1)
			io.WriteString(w, `{"items":[]}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	t.Cleanup(srv.Close)

	f, err := New(Config{Breaker: utils.BreakerSettings{MaxRequests: 2, FailureRatio: 0.5, Timeout: time.Minute}}, nil, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := f.Do(ctx, []string{srv.URL + "/api/validator/check"}, Options{Method: http.MethodPost, Credentials: CredentialsInclude})
		require.Error(t, err)
	}

	resp, err := f.Do(ctx, []string{srv.URL + "/api/events", srv.URL + "/events"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/events", resp.URL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&rootHits))
}

func TestFetcher_Do_LastCandidateSentWithOpenBreaker(t *testing.T) {
	var healthy atomic.Bool
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	f, err := New(Config{Breaker: utils.BreakerSettings{MaxRequests: 2, FailureRatio: 0.5, Timeout: time.Minute}}, nil, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.Do(ctx, []string{srv.URL + "/events"}, Options{})
		require.Error(t, err)
	}
	u, err := url.Parse(srv.URL + "/events")
	require.NoError(t, err)
	assert.Equal(t, utils.StateOpen, f.breakers.Get(BreakerKey(u)).State())

	healthy.Store(true)
	resp, err := f.Do(ctx, []string{srv.URL + "/events"}, Options{})

	require.NoError(t, err)
	assert.Equal(t, "[]", string(resp.Body))
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestBreakerKey(t *testing.T) {
	u, err := url.Parse("https://api.example:8443/api/purchase/start?ev=1&to=5534")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example:8443/api/purchase/start", BreakerKey(u))
}

func TestFetcher_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			io.WriteString(w, `{"isOrganizer":true}`)
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		case "/html":
			io.WriteString(w, `<html>ok</html>`)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"código inválido"}`)
		}
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	ctx := context.Background()

	var reply struct {
		IsOrganizer bool `json:"isOrganizer"`
	}
	require.NoError(t, f.JSON(ctx, srv.URL+"/ok", Options{}, &reply))
	assert.True(t, reply.IsOrganizer)

	var empty struct{ IsOrganizer bool }
	require.NoError(t, f.JSON(ctx, srv.URL+"/empty", Options{}, &empty))
	assert.False(t, empty.IsOrganizer)

	var html map[string]any
	require.NoError(t, f.JSON(ctx, srv.URL+"/html", Options{}, &html))
	assert.Nil(t, html)

	err := f.JSON(ctx, srv.URL+"/denied", Options{}, &reply)
	require.Error(t, err)
	var httpErr *status.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "código inválido", httpErr.Message)
}

func TestDecode(t *testing.T) {
	var out map[string]any

	err := Decode(&Response{URL: "u", Body: []byte("  ")}, &out)
	assert.ErrorIs(t, err, status.ErrDecode)

	err = Decode(&Response{URL: "u", Body: []byte(`{"a":1}`)}, &out)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["a"])
}

func TestFetcher_WithSession_SeparateCookies(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/verify" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "organizer", Path: "/"})
			return
		}
		if c, err := r.Cookie("sid"); err == nil {
			seen.Store(c.Value)
		} else {
			seen.Store("")
		}
	}))
	defer srv.Close()

	base := newTestFetcher(t)
	first, err := base.WithSession()
	require.NoError(t, err)
	second, err := base.WithSession()
	require.NoError(t, err)
	ctx := context.Background()
	opts := Options{Method: http.MethodPost, Credentials: CredentialsInclude}

	_, err = first.Do(ctx, []string{srv.URL + "/auth/verify"}, opts)
	require.NoError(t, err)

	_, err = second.Do(ctx, []string{srv.URL + "/validator/check"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())

	_, err = first.Do(ctx, []string{srv.URL + "/validator/check"}, opts)
	require.NoError(t, err)
	assert.Equal(t, "organizer", seen.Load())
	assert.Same(t, base.breakers, second.breakers)
}
