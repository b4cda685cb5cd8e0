// Package fetch issues backend requests against ordered candidate URLs.
//
// Every backend call of the storefront goes through Fetcher: catalog loading,
// purchase, OTP login and ticket validation. No caller retries on its own.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"storefront/internal/status"
	"storefront/monitoring"
	"storefront/utils"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps how much of a response body is buffered.
const maxBodyBytes = 4 << 20

// Credentials mirrors the browser credentials mode of a request.
type Credentials int

const (
	// CredentialsOmit sends no session cookies.
	CredentialsOmit Credentials = iota
	// CredentialsInclude sends and stores session cookies.
	CredentialsInclude
)

// Options are shared by every candidate of one request.
type Options struct {
	Method      string
	Header      http.Header
	Body        []byte
	Credentials Credentials
}

// Response is a buffered successful response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Config struct {
	Timeout time.Duration
	Breaker utils.BreakerSettings
}

type Fetcher struct {
	// plain carries no cookies (catalog, purchase).
	plain *http.Client

	// session keeps the backend session cookie (auth, validator).
	session *http.Client

	breakers *utils.BreakerSet
	monitor  *monitoring.Monitor
	log      zerolog.Logger
}

func New(cfg Config, monitor *monitoring.Monitor, log zerolog.Logger) (*Fetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Fetcher{
		plain:    &http.Client{Timeout: timeout},
		session:  &http.Client{Timeout: timeout, Jar: jar},
		breakers: utils.NewBreakerSet(cfg.Breaker),
		monitor:  monitor,
		log:      log.With().Str("component", "fetch").Logger(),
	}, nil
}

// WithSession returns a fetcher with a cookie jar of its own for one
// visitor's backend session. Transport settings and breakers are shared.
func (f *Fetcher) WithSession() (*Fetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: cookie jar: %w", err)
	}
	cp := *f
	cp.session = &http.Client{Timeout: f.session.Timeout, Jar: jar}
	return &cp, nil
}

// Do attempts each URL in order and returns the first 2xx response.
// Failed candidates are recorded and skipped; when none succeeds the
// result is a *status.RequestExhausted carrying the last error.
func (f *Fetcher) Do(ctx context.Context, urls []string, opts Options) (*Response, error) {
	if len(urls) == 0 {
		return nil, &status.RequestExhausted{Last: errors.New("no candidate urls")}
	}

	requestID := utils.RequestID()
	attempts := 0
	var last error

	for i, u := range urls {
		attempts++
		resp, err := f.attempt(ctx, u, requestID, opts, i == len(urls)-1)
		if err == nil {
			return resp, nil
		}
		last = err

		f.log.Debug().
			Str("request_id", requestID).
			Str("url", u).
			Err(err).
			Msg("candidate failed")

		if ctx.Err() != nil {
			break
		}
	}

	f.monitor.TrackExhausted()
	f.log.Warn().
		Str("request_id", requestID).
		Int("attempts", attempts).
		Err(last).
		Msg("all candidates failed")

	return nil, &status.RequestExhausted{Attempts: attempts, Last: last}
}

// attempt sends one candidate through the breaker of its endpoint. The
// final candidate is sent even when its breaker is open, so a request is
// only exhausted after every endpoint had its chance.
func (f *Fetcher) attempt(ctx context.Context, rawURL, requestID string, opts Options, final bool) (*Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid candidate url %q", rawURL)
	}
	host := parsed.Host
	breaker := f.breakers.Get(BreakerKey(parsed))

	start := time.Now()
	call := func() (any, error) { return f.checked(ctx, rawURL, requestID, opts) }
	out, err := breaker.Execute(ctx, call)
	if final && isBreakerOff(err) {
		out, err = call()
	}
	elapsed := time.Since(start)

	switch {
	case isBreakerOff(err):
		f.monitor.TrackFetchAttempt(host, monitoring.OutcomeBreakerOff, 0)
		return nil, fmt.Errorf("%s: %w", breaker.Name(), err)
	case err != nil:
		f.monitor.TrackFetchAttempt(host, monitoring.OutcomeFailed, elapsed)
		return nil, err
	}

	resp := out.(*Response)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.monitor.TrackFetchAttempt(host, monitoring.OutcomeRejected, elapsed)
		return nil, status.NewHTTPError(rawURL, resp.StatusCode, resp.Body)
	}

	f.monitor.TrackFetchAttempt(host, monitoring.OutcomeOK, elapsed)
	return resp, nil
}

// checked sends the request; only server side failures count against the
// endpoint.
func (f *Fetcher) checked(ctx context.Context, rawURL, requestID string, opts Options) (any, error) {
	resp, err := f.send(ctx, rawURL, requestID, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return resp, status.NewHTTPError(rawURL, resp.StatusCode, resp.Body)
	}
	return resp, nil
}

// BreakerKey identifies an endpoint: scheme, host and path, without query.
// Sibling endpoints on one host trip independently.
func BreakerKey(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}

func isBreakerOff(err error) bool {
	return errors.Is(err, utils.ErrOpenState) || errors.Is(err, utils.ErrTooManyRequests)
}

func (f *Fetcher) send(ctx context.Context, rawURL, requestID string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if opts.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID)

	hc := f.plain
	if opts.Credentials == CredentialsInclude {
		hc = f.session
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}, nil
}
