package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/pokedex-api/internal/api"
	"github.com/phrazzld/pokedex-api/internal/api/middleware"
	"github.com/phrazzld/pokedex-api/internal/api/shared"
	"github.com/phrazzld/pokedex-api/internal/domain"
	"github.com/phrazzld/pokedex-api/internal/mocks"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/phrazzld/pokedex-api/internal/platform/memory"
	"github.com/phrazzld/pokedex-api/internal/service"
	"github.com/phrazzld/pokedex-api/internal/service/auth"
	"github.com/phrazzld/pokedex-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	trainerToken = "trainer-token"
	adminToken   = "admin-token"
)

// tokenJWTService accepts two fixed tokens, one per role.
func tokenJWTService() *mocks.MockJWTService {
	return &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			switch token {
			case trainerToken:
				return &auth.Claims{UserID: uuid.New(), Role: domain.RoleTrainer}, nil
			case adminToken:
				return &auth.Claims{UserID: uuid.New(), Role: domain.RoleAdmin}, nil
			}
			return nil, auth.ErrInvalidToken
		},
	}
}

func newPokemonRouter(t *testing.T, pokemons store.PokemonStore) http.Handler {
	t.Helper()
	log, _ := logger.NewTestLogger()

	svc, err := service.NewPokemonService(pokemons, log)
	require.NoError(t, err)
	h := api.NewPokemonHandler(svc, log)
	authMiddleware := middleware.NewAuthMiddleware(tokenJWTService())

	r := chi.NewRouter()
	r.Route("/api/pokemons", func(r chi.Router) {
		r.Get("/", h.ListPokemon)
		r.Get("/{id}", h.GetPokemon)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/", h.CreatePokemon)
			r.Put("/{id}", h.UpdatePokemon)
			r.With(middleware.AdminOnly).Delete("/{id}", h.DeletePokemon)
		})
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestPokemonHandler_Scenario(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())

	rec := do(t, h, http.MethodPost, "/api/pokemons", trainerToken, `{"id":"25","name":"Pikachu","type":"Electric"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "25", created["id"])
	assert.Equal(t, "Pikachu", created["name"])
	assert.Equal(t, "Electric", created["type"])
	assert.NotEmpty(t, created["created_at"])

	rec = do(t, h, http.MethodPost, "/api/pokemons", trainerToken, `{"id":"25","name":"Pikachu","type":"Electric"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A Pokemon with this ID already exists", decodeBody[shared.ErrorResponse](t, rec).Message)

	rec = do(t, h, http.MethodGet, "/api/pokemons/25", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pikachu", decodeBody[map[string]any](t, rec)["name"])

	rec = do(t, h, http.MethodPut, "/api/pokemons/25", trainerToken, `{"id":"999","type":"Electric/Flying"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "25", updated["id"])
	assert.Equal(t, "Electric/Flying", updated["type"])
	assert.Equal(t, "Pikachu", updated["name"])

	rec = do(t, h, http.MethodDelete, "/api/pokemons/25", trainerToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", decodeBody[shared.ErrorResponse](t, rec).Message)

	rec = do(t, h, http.MethodDelete, "/api/pokemons/25", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Pokemon deleted", deleted["message"])
	snapshot, ok := deleted["deleted"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "25", snapshot["id"])
	assert.Equal(t, "Electric/Flying", snapshot["type"])

	rec = do(t, h, http.MethodGet, "/api/pokemons/25", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pokemon not found", decodeBody[shared.ErrorResponse](t, rec).Message)
}

func TestPokemonHandler_List(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())

	rec := do(t, h, http.MethodGet, "/api/pokemons", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, body := range []string{`{"id":1,"name":"Bulbasaur"}`, `{"id":4,"name":"Charmander","stats":{"hp":39}}`} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/pokemons", trainerToken, body).Code)
	}

	rec = do(t, h, http.MethodGet, "/api/pokemons", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]map[string]any](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0]["id"])
	assert.Equal(t, "Charmander", list[1]["name"])
	assert.Equal(t, map[string]any{"hp": float64(39)}, list[1]["stats"])
}

func TestPokemonHandler_AuthGates(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"create without token", http.MethodPost, "/api/pokemons", "", `{"id":"1","name":"Bulbasaur"}`, http.StatusUnauthorized},
		{"create with bad token", http.MethodPost, "/api/pokemons", "nope", `{"id":"1","name":"Bulbasaur"}`, http.StatusUnauthorized},
		{"update without token", http.MethodPut, "/api/pokemons/1", "", `{"type":"Grass"}`, http.StatusUnauthorized},
		{"delete without token", http.MethodDelete, "/api/pokemons/1", "", "", http.StatusUnauthorized},
		{"delete as trainer", http.MethodDelete, "/api/pokemons/1", trainerToken, "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := do(t, h, http.MethodGet, "/api/pokemons", "", "")
	assert.JSONEq(t, `[]`, rec.Body.String(), "rejected writes must not reach the store")
}

func TestPokemonHandler_CreateErrors(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())

	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"malformed json", `{"id":`, "malformed JSON"},
		{"array body", `[{"id":"1"}]`, "request body must be a JSON object"},
		{"missing id", `{"name":"Mew"}`, "id is required"},
		{"missing name", `{"id":"151"}`, "name is required"},
		{"empty name", `{"id":"151","name":""}`, "name is required"},
		{"name not a string", `{"id":"151","name":151}`, "name has the wrong type"},
		{"fractional id", `{"id":1.5,"name":"Mew"}`, "id must be a string or an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/pokemons", trainerToken, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeBody[shared.ErrorResponse](t, rec)
			assert.Equal(t, "Error creating Pokemon", resp.Message)
			assert.Equal(t, tt.wantDetail, resp.Error)
		})
	}
}

func TestPokemonHandler_NumericIDs(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())

	rec := do(t, h, http.MethodPost, "/api/pokemons", trainerToken, `{"id":25,"name":"Pikachu"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "25", decodeBody[map[string]any](t, rec)["id"])

	rec = do(t, h, http.MethodPost, "/api/pokemons", trainerToken, `{"id":"25","name":"Pikachu"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/pokemons/25", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPokemonHandler_UpdateErrors(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())
	require.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/api/pokemons", trainerToken, `{"id":"7","name":"Squirtle","type":"Water"}`).Code)

	rec := do(t, h, http.MethodPut, "/api/pokemons/404", trainerToken, `{"type":"Water"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pokemon not found", decodeBody[shared.ErrorResponse](t, rec).Message)

	for _, body := range []string{`{"name":""}`, `{"name":null}`, `{"type":12}`, `not json`} {
		rec = do(t, h, http.MethodPut, "/api/pokemons/7", trainerToken, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		resp := decodeBody[shared.ErrorResponse](t, rec)
		assert.Equal(t, "Error updating Pokemon", resp.Message)
		assert.NotEmpty(t, resp.Error)
	}

	rec = do(t, h, http.MethodGet, "/api/pokemons/7", "", "")
	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Squirtle", got["name"])
	assert.Equal(t, "Water", got["type"])
}

func TestPokemonHandler_StoreFaults(t *testing.T) {
	boom := errors.New(`dial tcp: connect to postgres://pokedex:hunter2@db:5432/pokedex failed`)
	pokemons := new(mocks.PokemonStore)
	pokemons.On("List", mock.Anything).Return(nil, boom)
	pokemons.On("GetByID", mock.Anything, mock.Anything).Return(nil, boom)
	pokemons.On("Delete", mock.Anything, mock.Anything).Return(nil, boom)
	pokemons.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	h := newPokemonRouter(t, pokemons)

	tests := []struct {
		name        string
		method      string
		path        string
		token       string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"list", http.MethodGet, "/api/pokemons", "", "", http.StatusInternalServerError, "Server error"},
		{"get", http.MethodGet, "/api/pokemons/25", "", "", http.StatusInternalServerError, "Server error"},
		{"delete", http.MethodDelete, "/api/pokemons/25", adminToken, "", http.StatusInternalServerError, "Server error"},
		{"create", http.MethodPost, "/api/pokemons", trainerToken, `{"id":"25","name":"Pikachu"}`, http.StatusBadRequest, "Error creating Pokemon"},
		{"update", http.MethodPut, "/api/pokemons/25", trainerToken, `{"type":"Electric"}`, http.StatusBadRequest, "Error updating Pokemon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeBody[shared.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Empty(t, resp.Error, "store faults must not leak to clients")
		})
	}
}

func TestPokemonHandler_EscapedPathID(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())
	require.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/api/pokemons", trainerToken, `{"id":"mr mime","name":"Mr. Mime"}`).Code)

	rec := do(t, h, http.MethodGet, "/api/pokemons/mr%20mime", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mr. Mime", decodeBody[map[string]any](t, rec)["name"])
}

func TestPokemonHandler_PercentInPathID(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())
	for _, body := range []string{`{"id":"a%41","name":"Unown"}`, `{"id":"aA","name":"Ditto"}`} {
		rec := do(t, h, http.MethodPost, "/api/pokemons", trainerToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, h, http.MethodGet, "/api/pokemons/a%2541", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a%41", decodeBody[map[string]any](t, rec)["id"])

	rec = do(t, h, http.MethodDelete, "/api/pokemons/a%2541", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a%41", decodeBody[map[string]any](t, rec)["deleted"].(map[string]any)["id"])

	rec = do(t, h, http.MethodGet, "/api/pokemons", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "aA", list[0]["id"])
}

func TestPokemonHandler_EscapedSlashInPathID(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())
	require.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/api/pokemons", trainerToken, `{"id":"kanto/25","name":"Pikachu"}`).Code)

	rec := do(t, h, http.MethodGet, "/api/pokemons/kanto%2F25", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kanto/25", decodeBody[map[string]any](t, rec)["id"])
}

func TestPokemonHandler_UpdateUnusablePathID(t *testing.T) {
	h := newPokemonRouter(t, memory.NewPokemonStore())
	path := "/api/pokemons/" + strings.Repeat("x", domain.MaxPokemonIDLength+1)

	rec := do(t, h, http.MethodPut, path, trainerToken, `{"type":"Grass"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pokemon not found", decodeBody[shared.ErrorResponse](t, rec).Message)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, path, "", "").Code)
}
