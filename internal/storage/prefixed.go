package storage

import "context"

// Prefixed scopes every key of an underlying store under a prefix. Closing
// it leaves the underlying store open.
type Prefixed struct {
	store  Store
	prefix string
}

func WithPrefix(s Store, prefix string) *Prefixed {
	return &Prefixed{store: s, prefix: prefix}
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.store.Set(ctx, p.prefix+key, value)
}

func (p *Prefixed) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = p.prefix + k
	}
	return p.store.Delete(ctx, scoped...)
}

func (p *Prefixed) Ping(ctx context.Context) error { return p.store.Ping(ctx) }

func (p *Prefixed) Close() error { return nil }

var _ Store = (*Prefixed)(nil)
