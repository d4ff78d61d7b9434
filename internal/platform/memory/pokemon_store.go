package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/store"
)

// PokemonStore keeps documents in a map and remembers insertion order so
// List is stable. Stored values are cloned on the way in and out.
type PokemonStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Pokemon
	order []string
}

// NewPokemonStore returns an empty store.
func NewPokemonStore() *PokemonStore {
	return &PokemonStore{data: make(map[string]*domain.Pokemon)}
}

var _ store.PokemonStore = (*PokemonStore)(nil)

// List implements store.PokemonStore.
func (s *PokemonStore) List(ctx context.Context) ([]*domain.Pokemon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Pokemon, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.data[id].Clone())
	}
	return out, nil
}

// GetByID implements store.PokemonStore.
func (s *PokemonStore) GetByID(ctx context.Context, id string) (*domain.Pokemon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return nil, store.ErrPokemonNotFound
	}
	return p.Clone(), nil
}

// Create implements store.PokemonStore. The id check and the insert happen
// under one lock, so this store never holds two documents with the same id.
func (s *PokemonStore) Create(ctx context.Context, pokemon *domain.Pokemon) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pokemon.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[pokemon.ID]; exists {
		return store.ErrPokemonExists
	}

	stored := pokemon.Clone()
	stored.Attributes = domain.StripReserved(stored.Attributes)
	s.data[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return nil
}

// Update implements store.PokemonStore.
func (s *PokemonStore) Update(ctx context.Context, id string, patch map[string]any) (*domain.Pokemon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[id]
	if !ok {
		return nil, store.ErrPokemonNotFound
	}

	next := p.Clone()
	next.Apply(patch)
	if err := next.Validate(); err != nil {
		return nil, store.NewStoreError("pokemon", "update", "merged document is invalid", err)
	}
	// Keep UpdatedAt strictly increasing for rapid successive writes.
	if !next.UpdatedAt.After(p.UpdatedAt) {
		next.UpdatedAt = p.UpdatedAt.Add(time.Microsecond)
	}

	s.data[id] = next
	return next.Clone(), nil
}

// Delete implements store.PokemonStore.
func (s *PokemonStore) Delete(ctx context.Context, id string) (*domain.Pokemon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[id]
	if !ok {
		return nil, store.ErrPokemonNotFound
	}

	delete(s.data, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return p, nil
}
