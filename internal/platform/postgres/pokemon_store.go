package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/phrazzld/pokedex-api/internal/redact"
	"github.com/phrazzld/pokedex-api/internal/store"
)

const pokemonColumns = "id, doc, created_at, updated_at"

// PostgresPokemonStore implements the store.PokemonStore interface
// using a PostgreSQL JSONB column as the document storage.
type PostgresPokemonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPokemonStore creates a new PostgreSQL implementation of the PokemonStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPokemonStore(db store.DBTX, logger *slog.Logger) *PostgresPokemonStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPokemonStore{
		db:     db,
		logger: logger.With(slog.String("component", "pokemon_store")),
	}
}

// Ensure PostgresPokemonStore implements store.PokemonStore interface
var _ store.PokemonStore = (*PostgresPokemonStore)(nil)

// List implements store.PokemonStore.List
func (s *PostgresPokemonStore) List(ctx context.Context) ([]*domain.Pokemon, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pokemonColumns+`
		FROM pokemons
		ORDER BY created_at, id
	`)
	if err != nil {
		log.Error("failed to list pokemon", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	pokemons := make([]*domain.Pokemon, 0)
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			log.Error("failed to scan pokemon row", slog.String("error", redact.Error(err)))
			return nil, err
		}
		pokemons = append(pokemons, p)
	}
	if err := rows.Err(); err != nil {
		log.Error("failed iterating pokemon rows", slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}

	log.Debug("pokemon listed", slog.Int("count", len(pokemons)))
	return pokemons, nil
}

// GetByID implements store.PokemonStore.GetByID
func (s *PostgresPokemonStore) GetByID(ctx context.Context, id string) (*domain.Pokemon, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `
		SELECT `+pokemonColumns+`
		FROM pokemons
		WHERE id = $1
	`, id)

	p, err := scanPokemon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("pokemon not found", slog.String("pokemon_id", id))
			return nil, store.ErrPokemonNotFound
		}
		log.Error("failed to get pokemon by ID",
			slog.String("error", redact.Error(err)),
			slog.String("pokemon_id", id))
		return nil, MapError(err)
	}

	return p, nil
}

// Create implements store.PokemonStore.Create
// The primary key on id turns a lost check-then-insert race into
// store.ErrPokemonExists instead of a second document.
func (s *PostgresPokemonStore) Create(ctx context.Context, pokemon *domain.Pokemon) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := pokemon.Validate(); err != nil {
		log.Warn("pokemon validation failed during create",
			slog.String("error", redact.Error(err)),
			slog.String("pokemon_id", pokemon.ID))
		return err
	}

	doc, err := json.Marshal(domain.StripReserved(pokemon.Attributes))
	if err != nil {
		return fmt.Errorf("%w: failed to encode document: %v", store.ErrInvalidEntity, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pokemons (id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, pokemon.ID, string(doc), pokemon.CreatedAt, pokemon.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate pokemon id on insert", slog.String("pokemon_id", pokemon.ID))
		} else {
			log.Error("failed to create pokemon",
				slog.String("error", redact.Error(err)),
				slog.String("pokemon_id", pokemon.ID))
		}
		return MapUniqueViolation(err, store.ErrPokemonExists)
	}

	log.Info("pokemon created", slog.String("pokemon_id", pokemon.ID))
	return nil
}

// Update implements store.PokemonStore.Update
// JSONB concatenation gives the shallow merge: keys in the patch replace
// stored keys, everything else is kept.
func (s *PostgresPokemonStore) Update(
	ctx context.Context,
	id string,
	patch map[string]any,
) (*domain.Pokemon, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	doc, err := json.Marshal(domain.StripReserved(patch))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode patch: %v", store.ErrInvalidEntity, err)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE pokemons
		SET doc = doc || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING `+pokemonColumns,
		id, string(doc), time.Now().UTC())

	p, err := scanPokemon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("pokemon not found for update", slog.String("pokemon_id", id))
			return nil, store.ErrPokemonNotFound
		}
		log.Error("failed to update pokemon",
			slog.String("error", redact.Error(err)),
			slog.String("pokemon_id", id))
		return nil, MapError(err)
	}

	log.Info("pokemon updated", slog.String("pokemon_id", id))
	return p, nil
}

// Delete implements store.PokemonStore.Delete
func (s *PostgresPokemonStore) Delete(ctx context.Context, id string) (*domain.Pokemon, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `
		DELETE FROM pokemons
		WHERE id = $1
		RETURNING `+pokemonColumns,
		id)

	p, err := scanPokemon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("pokemon not found for delete", slog.String("pokemon_id", id))
			return nil, store.ErrPokemonNotFound
		}
		log.Error("failed to delete pokemon",
			slog.String("error", redact.Error(err)),
			slog.String("pokemon_id", id))
		return nil, MapError(err)
	}

	log.Info("pokemon deleted", slog.String("pokemon_id", id))
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPokemon(row rowScanner) (*domain.Pokemon, error) {
	var (
		p   domain.Pokemon
		doc []byte
	)
	if err := row.Scan(&p.ID, &doc, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	attrs, err := decodeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document for pokemon %s: %w", p.ID, err)
	}
	p.Attributes = attrs
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}

// decodeDocument keeps numbers as json.Number so integers round-trip exactly.
func decodeDocument(doc []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	return attrs, nil
}
