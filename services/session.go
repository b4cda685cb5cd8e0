package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"storefront/internal/storage"
	"storefront/models"
	"storefront/notify"

	"github.com/rs/zerolog"
)

// Persisted keys. Both are absent when nobody is authenticated.
const (
	KeyOrganizer = "organizer"
	KeyPhone     = "phone"
)

// Session activity outcomes. The phone only travels masked.
const (
	OutcomeOrganizer = "organizer"
	OutcomeOffline   = models.IndicatorOffline
)

// SessionStore owns the authentication state of one visitor. Visibility is always derived
// through models.VisibilityFor and pushed to subscribers on every change.
type SessionStore struct {
	store     storage.Store
	publisher notify.Publisher
	log       zerolog.Logger

	mu    sync.RWMutex
	state models.Session
	subs  []func(models.Session, models.Visibility)
}

func NewSessionStore(store storage.Store, publisher notify.Publisher, log zerolog.Logger) *SessionStore {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &SessionStore{
		store:     store,
		publisher: publisher,
		log:       log.With().Str("component", "session").Logger(),
	}
}

// Subscribe registers fn to run after every visibility recompute.
func (s *SessionStore) Subscribe(fn func(models.Session, models.Visibility)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// SetAuthenticated persists organizer sessions and clears everything else.
// The in-memory state is updated even when persisting fails.
func (s *SessionStore) SetAuthenticated(ctx context.Context, isOrganizer bool, phone string) (models.Visibility, error) {
	next := models.Session{}
	if isOrganizer {
		next = models.Session{Organizer: true, Phone: digitsOnly(phone)}
	}

	var err error
	if next.Organizer {
		err = s.persist(ctx, next)
	} else {
		err = s.store.Delete(ctx, KeyOrganizer, KeyPhone)
		if err != nil {
			err = fmt.Errorf("clear session: %w", err)
		}
	}
	if err != nil {
		s.log.Error().Err(err).Msg("session storage write failed")
	}

	vis := s.apply(next)
	s.log.Info().Bool("organizer", next.Organizer).Msg("session updated")
	outcome := OutcomeOffline
	if next.Organizer {
		outcome = OutcomeOrganizer
	}
	_ = s.publisher.Publish(ctx, notify.Activity{
		Kind:    notify.KindSession,
		Outcome: outcome,
		Phone:   notify.MaskPhone(next.Phone),
	})
	return vis, err
}

// persist writes the phone before the organizer flag, so a restore never
// sees an organizer without a phone.
func (s *SessionStore) persist(ctx context.Context, sess models.Session) error {
	if err := s.store.Set(ctx, KeyPhone, sess.Phone); err != nil {
		return fmt.Errorf("persist phone: %w", err)
	}
	if err := s.store.Set(ctx, KeyOrganizer, "true"); err != nil {
		if derr := s.store.Delete(ctx, KeyPhone); derr != nil {
			s.log.Warn().Err(derr).Msg("phone not rolled back")
		}
		return fmt.Errorf("persist organizer: %w", err)
	}
	return nil
}

// Restore reads the persisted session. Missing or unreadable records mean
// unauthenticated. It never writes to storage.
func (s *SessionStore) Restore(ctx context.Context) (models.Visibility, error) {
	next, err := s.read(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session restore failed, starting unauthenticated")
		next = models.Session{}
	}
	return s.apply(next), err
}

func (s *SessionStore) read(ctx context.Context) (models.Session, error) {
	flag, ok, err := s.store.Get(ctx, KeyOrganizer)
	if err != nil {
		return models.Session{}, fmt.Errorf("read organizer: %w", err)
	}
	if !ok || !strings.EqualFold(flag, "true") {
		return models.Session{}, nil
	}

	phone, _, err := s.store.Get(ctx, KeyPhone)
	if err != nil {
		return models.Session{}, fmt.Errorf("read phone: %w", err)
	}
	return models.Session{Organizer: true, Phone: phone}, nil
}

func (s *SessionStore) apply(next models.Session) models.Visibility {
	vis := models.VisibilityFor(next)

	s.mu.Lock()
	s.state = next
	subs := make([]func(models.Session, models.Visibility), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next, vis)
	}
	return vis
}

func (s *SessionStore) State() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *SessionStore) Visibility() models.Visibility {
	return models.VisibilityFor(s.State())
}

// Ping reports the health of the backing store.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
