package app

import "sync"

// Subscriber buffers the newest update of each kind for one live client.
// A render that is superseded before the client reads it is dropped.
type Subscriber struct {
	mu      sync.Mutex
	pending map[string]Update
	order   []string
	ready   chan struct{}
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		pending: map[string]Update{},
		ready:   make(chan struct{}, 1),
	}
}

func (s *Subscriber) offer(u Update) {
	s.mu.Lock()
	if _, ok := s.pending[u.Kind]; !ok {
		s.order = append(s.order, u.Kind)
	}
	s.pending[u.Kind] = u
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready fires when at least one update is pending.
func (s *Subscriber) Ready() <-chan struct{} {
	return s.ready
}

// Drain returns pending updates in first-offered order and clears them.
func (s *Subscriber) Drain() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Update, 0, len(s.order))
	for _, kind := range s.order {
		out = append(out, s.pending[kind])
	}
	s.pending = map[string]Update{}
	s.order = s.order[:0]
	return out
}
