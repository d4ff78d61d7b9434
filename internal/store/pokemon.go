package store

import (
	"context"

	"github.com/phrazzld/pokedex-api/internal/domain"
)

// PokemonStore persists Pokemon documents keyed by their caller-assigned id.
type PokemonStore interface {
	// List returns every stored document in creation order.
	List(ctx context.Context) ([]*domain.Pokemon, error)

	// GetByID retrieves the document with the given id.
	// Returns ErrPokemonNotFound if no document matches.
	GetByID(ctx context.Context, id string) (*domain.Pokemon, error)

	// Create inserts a new document.
	// Returns ErrPokemonExists if a document with the same id is already
	// stored, and a validation error if the document is invalid.
	Create(ctx context.Context, pokemon *domain.Pokemon) error

	// Update shallow-merges patch into the stored document's attributes and
	// returns the document as stored afterwards. Reserved keys in the patch
	// are ignored, so the id never changes.
	// Returns ErrPokemonNotFound if no document matches.
	Update(ctx context.Context, id string, patch map[string]any) (*domain.Pokemon, error)

	// Delete removes the document and returns its last stored state.
	// Returns ErrPokemonNotFound if no document matches.
	Delete(ctx context.Context, id string) (*domain.Pokemon, error)
}
