package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"storefront/config"
	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/internal/status"

	"golang.org/x/text/message"
)

// Requester is the slice of the resilient fetcher the services consume.
type Requester interface {
	Do(ctx context.Context, urls []string, opts fetch.Options) (*fetch.Response, error)
	JSON(ctx context.Context, url string, opts fetch.Options, out any) error
}

var _ Requester = (*fetch.Fetcher)(nil)

// Backend holds the resolved API and root bases. Each visitor has its own,
// switched by an ?api= override.
type Backend struct {
	mu        sync.RWMutex
	endpoints config.Endpoints
}

func NewBackend(e config.Endpoints) *Backend {
	return &Backend{endpoints: e}
}

func (b *Backend) Endpoints() config.Endpoints {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.endpoints
}

func (b *Backend) Use(e config.Endpoints) {
	b.mu.Lock()
	b.endpoints = e
	b.mu.Unlock()
}

// FlowResult is what a flow reports back to the UI.
type FlowResult struct {
	OK          bool   `json:"ok"`
	Message     string `json:"message"`
	FallbackURL string `json:"fallback_url,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Err         error  `json:"-"`
}

var (
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
	codePattern  = regexp.MustCompile(`^\d{3,6}$`)

	// Formatting people type around phone numbers.
	phoneFormatting = strings.NewReplacer(" ", "", "+", "", "-", "", "(", "", ")", "", ".", "")
)

// CleanPhone removes formatting characters and validates the remaining
// digits. Letters or a wrong length fail with a validation error.
func CleanPhone(raw string) (string, error) {
	phone := phoneFormatting.Replace(strings.TrimSpace(raw))
	if !phonePattern.MatchString(phone) {
		return "", status.NewValidationError("phone", "must be 10 to 15 digits")
	}
	return phone, nil
}

// ValidateCode checks a one-time code locally.
func ValidateCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if !codePattern.MatchString(code) {
		return "", status.NewValidationError("code", "must be 3 to 6 digits")
	}
	return code, nil
}

// failureDetail turns a fetch error into user-facing text, preferring the
// server supplied message.
func failureDetail(p *message.Printer, err error) string {
	var httpErr *status.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return p.Sprintf(i18n.BackendUnavailable)
}
