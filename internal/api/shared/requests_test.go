package shared

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, doc map[string]any)
	}{
		{
			name: "object with numbers",
			body: `{"id": 25, "name": "Pikachu", "stats": {"hp": 35}}`,
			check: func(t *testing.T, doc map[string]any) {
				assert.Equal(t, json.Number("25"), doc["id"])
				assert.Equal(t, "Pikachu", doc["name"])
				stats, ok := doc["stats"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, json.Number("35"), stats["hp"])
			},
		},
		{name: "leading whitespace", body: "  \n{\"name\":\"Eevee\"}", check: func(t *testing.T, doc map[string]any) {
			assert.Equal(t, "Eevee", doc["name"])
		}},
		{name: "empty body", body: "", wantErr: true},
		{name: "array", body: `[{"id":1}]`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "malformed", body: `{"id":`, wantErr: true},
		{name: "trailing data", body: `{"id":1} {"id":2}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			doc, err := DecodeDocument(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, doc)
		})
	}
}

func TestDecodeDocumentRejectsOversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", MaxRequestBodyBytes) + `"}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	_, err := DecodeDocument(r)
	assert.Error(t, err)
}

func TestDecodeJSONAndValidate(t *testing.T) {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}

	var ok request
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"ash@example.com"}`))
	require.NoError(t, DecodeJSON(r, &ok))
	assert.NoError(t, ValidateRequest(ok))

	var bad request
	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"nope"}`))
	require.NoError(t, DecodeJSON(r, &bad))
	assert.Error(t, ValidateRequest(bad))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(r, &bad))
}
