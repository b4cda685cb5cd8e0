package notify

import (
	"context"
	"fmt"
	"time"

	pubnub "github.com/pubnub/go"
	"github.com/rs/zerolog"
)

type PubNubPublisher struct {
	pn      *pubnub.PubNub
	channel string
	log     zerolog.Logger
}

func NewPubNubPublisher(cfg Config, log zerolog.Logger) *PubNubPublisher {
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PublishKey
	pnConfig.SubscribeKey = cfg.SubscribeKey
	pnConfig.SecretKey = cfg.SecretKey
	pnConfig.UUID = "storefront"

	channel := cfg.Channel
	if channel == "" {
		channel = "storefront-activity"
	}

	return &PubNubPublisher{
		pn:      pubnub.NewPubNub(pnConfig),
		channel: channel,
		log:     log.With().Str("component", "notify").Logger(),
	}
}

func (p *PubNubPublisher) Publish(ctx context.Context, a Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}

	_, _, err := p.pn.Publish().
		Channel(p.channel).
		Message(map[string]any{
			"type":      a.Kind,
			"outcome":   a.Outcome,
			"event_id":  a.EventID,
			"ticket_id": a.TicketID,
			"phone":     a.Phone,
			"count":     a.Count,
			"at":        a.At.Format(time.RFC3339),
		}).
		Execute()
	if err != nil {
		p.log.Warn().Err(err).Str("type", a.Kind).Msg("publish failed")
		return fmt.Errorf("pubnub publish %s: %w", a.Kind, err)
	}
	return nil
}
