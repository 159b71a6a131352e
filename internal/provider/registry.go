package provider

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/Digital-Shane/namer/internal/errs"
	"github.com/Digital-Shane/namer/internal/metadata"
)

// Factory builds a provider on first use.
type Factory struct {
	Kinds []metadata.Kind
	New   func(ctx context.Context) (Provider, error)
}

// Key identifies a shared provider instance.
type Key struct {
	Kind metadata.Kind
	ID   ID
}

type entry struct {
	mu       sync.Mutex
	provider Provider
}

// Registry hands out one provider instance per (kind, provider) pair and
// builds each lazily. It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	factories map[ID]Factory
	defaults  map[metadata.Kind]ID
	entries   map[Key]*entry
}

// NewRegistry creates an empty registry with movie searches defaulting to
// TMDb and episode searches to TVDb.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ID]Factory),
		defaults: map[metadata.Kind]ID{
			metadata.KindMovie:   TMDb,
			metadata.KindEpisode: TVDb,
		},
		entries: make(map[Key]*entry),
	}
}

// Register adds a factory for id.
func (r *Registry) Register(id ID, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	if len(f.Kinds) == 0 || f.New == nil {
		return fmt.Errorf("provider %s: factory needs kinds and a constructor", id)
	}
	r.factories[id] = f
	return nil
}

// SetDefault chooses the provider used for kind when none is named.
func (r *Registry) SetDefault(kind metadata.Kind, id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[kind] = id
}

// Default returns the provider id used for kind.
func (r *Registry) Default(kind metadata.Kind) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaults[kind]
}

// Get returns the shared provider for (kind, id), constructing it on first
// use. An empty id selects the default for kind. Failed constructions are
// not cached, so a later call tries again.
func (r *Registry) Get(ctx context.Context, kind metadata.Kind, id ID) (Provider, error) {
	r.mu.Lock()
	if id == "" {
		id = r.defaults[kind]
	}
	f, ok := r.factories[id]
	if !ok {
		r.mu.Unlock()
		return nil, errs.Validation(string(id), "unknown provider %q", id)
	}
	if !slices.Contains(f.Kinds, kind) {
		r.mu.Unlock()
		return nil, errs.Validation(string(id), "provider does not support %s searches", kind)
	}
	key := Key{Kind: kind, ID: id}
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	r.mu.Unlock()

	// Construction may log in over the network, so it runs under the
	// per-key lock only.
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.provider != nil {
		return e.provider, nil
	}
	p, err := f.New(ctx)
	if err != nil {
		return nil, err
	}
	e.provider = p
	return p, nil
}

// List returns the registered provider ids, sorted.
func (r *Registry) List() []ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]ID, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
