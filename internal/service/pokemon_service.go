package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/phrazzld/pokedex-api/internal/store"
)

// PokemonService exposes the Pokedex collection to the API layer.
type PokemonService interface {
	// ListPokemon returns every stored document in store order.
	ListPokemon(ctx context.Context) ([]*domain.Pokemon, error)

	// GetPokemon returns the document with the given id or
	// store.ErrPokemonNotFound.
	GetPokemon(ctx context.Context, id string) (*domain.Pokemon, error)

	// CreatePokemon checks that no document has the payload's id and then
	// stores a new document built from the whole payload. An existing id
	// yields store.ErrPokemonExists and leaves the store unchanged.
	CreatePokemon(ctx context.Context, payload map[string]any) (*domain.Pokemon, error)

	// UpdatePokemon merges patch into the document named by id. Any "id" key
	// in the patch is discarded.
	UpdatePokemon(ctx context.Context, id string, patch map[string]any) (*domain.Pokemon, error)

	// DeletePokemon removes the document and returns its last state.
	DeletePokemon(ctx context.Context, id string) (*domain.Pokemon, error)
}

type pokemonServiceImpl struct {
	pokemonStore store.PokemonStore
	logger       *slog.Logger
}

// NewPokemonService creates a PokemonService backed by the given store.
func NewPokemonService(pokemonStore store.PokemonStore, logger *slog.Logger) (PokemonService, error) {
	if pokemonStore == nil {
		return nil, domain.NewValidationError("pokemonStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		return nil, domain.NewValidationError("logger", "cannot be nil", domain.ErrValidation)
	}

	return &pokemonServiceImpl{
		pokemonStore: pokemonStore,
		logger:       logger.With("component", "pokemon_service"),
	}, nil
}

func (s *pokemonServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// ListPokemon implements PokemonService.
func (s *pokemonServiceImpl) ListPokemon(ctx context.Context) ([]*domain.Pokemon, error) {
	list, err := s.pokemonStore.List(ctx)
	if err != nil {
		s.log(ctx).Error("failed to list pokemon", "error", err)
		return nil, fmt.Errorf("failed to list pokemon: %w", err)
	}
	return list, nil
}

// GetPokemon implements PokemonService.
func (s *pokemonServiceImpl) GetPokemon(ctx context.Context, id string) (*domain.Pokemon, error) {
	p, err := s.pokemonStore.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrPokemonNotFound) {
			s.log(ctx).Error("failed to retrieve pokemon", "error", err, "pokemon_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve pokemon: %w", err)
	}
	return p, nil
}

// CreatePokemon implements PokemonService. The existence check and the
// insert are separate store calls; stores reject a concurrent duplicate with
// store.ErrPokemonExists as well.
func (s *pokemonServiceImpl) CreatePokemon(ctx context.Context, payload map[string]any) (*domain.Pokemon, error) {
	rawID, ok := payload[domain.FieldID]
	if !ok || rawID == nil {
		return nil, domain.NewValidationError(domain.FieldID, "is required", domain.ErrInvalidID)
	}
	id, err := domain.NormalizePokemonID(rawID)
	if err != nil {
		return nil, err
	}

	log := s.log(ctx).With("pokemon_id", id)

	_, err = s.pokemonStore.GetByID(ctx, id)
	switch {
	case err == nil:
		log.Debug("attempted to create pokemon with existing id")
		return nil, store.ErrPokemonExists
	case !errors.Is(err, store.ErrPokemonNotFound):
		log.Error("failed to check for existing pokemon", "error", err)
		return nil, fmt.Errorf("failed to check for existing pokemon: %w", err)
	}

	pokemon, err := domain.NewPokemon(payload)
	if err != nil {
		log.Debug("rejected invalid pokemon", "error", err)
		return nil, err
	}

	if err := s.pokemonStore.Create(ctx, pokemon); err != nil {
		if errors.Is(err, store.ErrPokemonExists) {
			log.Debug("pokemon id claimed by a concurrent create")
		} else {
			log.Error("failed to save pokemon", "error", err)
		}
		return nil, fmt.Errorf("failed to create pokemon: %w", err)
	}

	log.Info("pokemon created", "name", pokemon.Name())
	return pokemon, nil
}

// UpdatePokemon implements PokemonService.
func (s *pokemonServiceImpl) UpdatePokemon(
	ctx context.Context,
	id string,
	patch map[string]any,
) (*domain.Pokemon, error) {
	log := s.log(ctx).With("pokemon_id", id)

	changes := domain.StripReserved(patch)
	if err := domain.ValidatePokemonPatch(changes); err != nil {
		log.Debug("rejected invalid pokemon patch", "error", err)
		return nil, err
	}

	updated, err := s.pokemonStore.Update(ctx, id, changes)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPokemonNotFound):
		case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
			log.Debug("store rejected pokemon update", "error", err)
		default:
			log.Error("failed to update pokemon", "error", err)
		}
		return nil, fmt.Errorf("failed to update pokemon: %w", err)
	}

	log.Info("pokemon updated", "fields", len(changes))
	return updated, nil
}

// DeletePokemon implements PokemonService.
func (s *pokemonServiceImpl) DeletePokemon(ctx context.Context, id string) (*domain.Pokemon, error) {
	deleted, err := s.pokemonStore.Delete(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrPokemonNotFound) {
			s.log(ctx).Error("failed to delete pokemon", "error", err, "pokemon_id", id)
		}
		return nil, fmt.Errorf("failed to delete pokemon: %w", err)
	}

	s.log(ctx).Info("pokemon deleted", "pokemon_id", id)
	return deleted, nil
}
