package mocks

import (
	"context"

	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// PokemonStore is a testify mock of store.PokemonStore.
type PokemonStore struct {
	mock.Mock
}

var _ store.PokemonStore = (*PokemonStore)(nil)

// List mocks store.PokemonStore.List.
func (m *PokemonStore) List(ctx context.Context) ([]*domain.Pokemon, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]*domain.Pokemon); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByID mocks store.PokemonStore.GetByID.
func (m *PokemonStore) GetByID(ctx context.Context, id string) (*domain.Pokemon, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Pokemon); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create mocks store.PokemonStore.Create.
func (m *PokemonStore) Create(ctx context.Context, pokemon *domain.Pokemon) error {
	args := m.Called(ctx, pokemon)
	return args.Error(0)
}

// Update mocks store.PokemonStore.Update.
func (m *PokemonStore) Update(ctx context.Context, id string, patch map[string]any) (*domain.Pokemon, error) {
	args := m.Called(ctx, id, patch)
	if p, ok := args.Get(0).(*domain.Pokemon); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete mocks store.PokemonStore.Delete.
func (m *PokemonStore) Delete(ctx context.Context, id string) (*domain.Pokemon, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*domain.Pokemon); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
