package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/pokedex-api/internal/api/shared"
	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/phrazzld/pokedex-api/internal/redact"
	"github.com/phrazzld/pokedex-api/internal/service"
	"github.com/phrazzld/pokedex-api/internal/store"
)

// Client-facing messages of the Pokemon resource.
const (
	msgServerError     = "Server error"
	msgNotFound        = "Pokemon not found"
	msgDuplicateID     = "A Pokemon with this ID already exists"
	msgCreateFailed    = "Error creating Pokemon"
	msgUpdateFailed    = "Error updating Pokemon"
	msgPokemonDeleted  = "Pokemon deleted"
	msgInvalidDocument = "request body must be a JSON object"
)

// PokemonHandler serves the /api/pokemons resource.
type PokemonHandler struct {
	pokemonService service.PokemonService
	logger         *slog.Logger
}

// NewPokemonHandler creates a new PokemonHandler.
func NewPokemonHandler(pokemonService service.PokemonService, logger *slog.Logger) *PokemonHandler {
	return &PokemonHandler{
		pokemonService: pokemonService,
		logger:         logger.With("component", "pokemon_handler"),
	}
}

func (h *PokemonHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}

// ListPokemon handles GET /api/pokemons.
func (h *PokemonHandler) ListPokemon(w http.ResponseWriter, r *http.Request) {
	list, err := h.pokemonService.ListPokemon(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgServerError, err)
		return
	}

	if list == nil {
		list = []*domain.Pokemon{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, list)
}

// GetPokemon handles GET /api/pokemons/{id}.
func (h *PokemonHandler) GetPokemon(w http.ResponseWriter, r *http.Request) {
	id := getPathPokemonID(r)

	pokemon, err := h.pokemonService.GetPokemon(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPokemonNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgServerError, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pokemon)
}

// CreatePokemon handles POST /api/pokemons. Any failure other than a
// duplicate id is reported as "Error creating Pokemon" with status 400.
func (h *PokemonHandler) CreatePokemon(w http.ResponseWriter, r *http.Request) {
	payload, err := shared.DecodeDocument(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgCreateFailed, err,
			shared.WithDetail(decodeDetail(err)))
		return
	}

	pokemon, err := h.pokemonService.CreatePokemon(r.Context(), payload)
	if err != nil {
		if errors.Is(err, store.ErrPokemonExists) {
			shared.RespondWithError(w, r, http.StatusBadRequest, msgDuplicateID)
			return
		}
		h.respondWriteFailure(w, r, msgCreateFailed, err)
		return
	}

	h.log(r).Debug("pokemon created via API", "pokemon_id", pokemon.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, pokemon)
}

// UpdatePokemon handles PUT /api/pokemons/{id}. The path id is
// authoritative; an "id" in the body is ignored.
func (h *PokemonHandler) UpdatePokemon(w http.ResponseWriter, r *http.Request) {
	id := getPathPokemonID(r)

	patch, err := shared.DecodeDocument(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgUpdateFailed, err,
			shared.WithDetail(decodeDetail(err)))
		return
	}

	pokemon, err := h.pokemonService.UpdatePokemon(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrPokemonNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		h.respondWriteFailure(w, r, msgUpdateFailed, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pokemon)
}

// DeletePokemon handles DELETE /api/pokemons/{id}.
func (h *PokemonHandler) DeletePokemon(w http.ResponseWriter, r *http.Request) {
	id := getPathPokemonID(r)

	deleted, err := h.pokemonService.DeletePokemon(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPokemonNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, msgNotFound)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgServerError, err)
		return
	}

	if userID, ok := shared.UserIDFromContext(r.Context()); ok {
		h.log(r).Info("pokemon deleted via API", "pokemon_id", id, "user_id", userID)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{
		Message: msgPokemonDeleted,
		Deleted: deleted,
	})
}

// respondWriteFailure answers a failed create or update with 400. Client
// input errors carry their reason; store faults are logged at ERROR and the
// reason stays server-side.
func (h *PokemonHandler) respondWriteFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	if detail := ValidationDetail(err); detail != "" {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err, shared.WithDetail(detail))
		return
	}

	h.log(r).Error("pokemon write failed", "error", redact.Error(err), "message", message)
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err)
}

func decodeDetail(err error) string {
	if errors.Is(err, shared.ErrBodyNotObject) {
		return msgInvalidDocument
	}
	return "malformed JSON"
}
