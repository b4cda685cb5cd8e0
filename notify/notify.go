// Package notify publishes storefront activity to the organizer dashboard.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	KindPurchase  = "purchase_started"
	KindValidator = "ticket_checked"
	KindSession   = "session_changed"
	KindCatalog   = "catalog_loaded"
)

// Activity is one realtime message on the dashboard channel.
type Activity struct {
	Kind     string    `json:"type"`
	Outcome  string    `json:"outcome"`
	EventID  string    `json:"event_id,omitempty"`
	TicketID string    `json:"ticket_id,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Count    int       `json:"count,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, a Activity) error
}

type Config struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	Channel      string
}

// New returns a PubNub publisher when keys are configured, a no-op otherwise.
func New(cfg Config, log zerolog.Logger) Publisher {
	if cfg.PublishKey == "" || cfg.SubscribeKey == "" {
		log.Info().Msg("pubnub keys not set, realtime notifications disabled")
		return Noop{}
	}
	return NewPubNubPublisher(cfg, log)
}

type Noop struct{}

func (Noop) Publish(context.Context, Activity) error { return nil }

// MaskPhone keeps the country/area prefix and the last four digits.
func MaskPhone(phone string) string {
	if len(phone) <= 8 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:4] + strings.Repeat("*", len(phone)-8) + phone[len(phone)-4:]
}
