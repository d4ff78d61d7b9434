package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// pokemonIDParam is the chi URL parameter naming a Pokemon.
const pokemonIDParam = "id"

// getPathPokemonID returns the Pokemon id from the URL path. The value is
// not validated: an id that cannot exist simply matches nothing.
//
// chi routes on r.URL.RawPath when it is set, so only then is the parameter
// still escaped. Otherwise it is already decoded and must be used verbatim.
func getPathPokemonID(r *http.Request) string {
	raw := chi.URLParam(r, pokemonIDParam)
	if r.URL.RawPath == "" {
		return raw
	}
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
