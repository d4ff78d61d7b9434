package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/pokedex-api/internal/api/middleware"
	"github.com/phrazzld/pokedex-api/internal/api/shared"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewTestLogger()

	var traceID string
	handler := middleware.NewTraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pokemons", nil))

	require.Len(t, traceID, 32)
	assert.Equal(t, traceID, rec.Header().Get(middleware.TraceIDHeader))

	entries := buf.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, traceID, e["trace_id"])
	}
	assert.Equal(t, "request started", entries[0]["msg"])
	assert.Equal(t, "handled", entries[1]["msg"])
}
