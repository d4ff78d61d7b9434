package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/pokedex-api/internal/api"
	apiMiddleware "github.com/phrazzld/pokedex-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	if app.metrics != nil {
		r.Use(app.metrics.Middleware)
	}
	r.Use(middleware.Recoverer)

	authHandler := api.NewAuthHandler(app.userService, app.jwtService)
	pokemonHandler := api.NewPokemonHandler(app.pokemonService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Route("/pokemons", func(r chi.Router) {
			r.Get("/", pokemonHandler.ListPokemon)
			r.Get("/{id}", pokemonHandler.GetPokemon)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Post("/", pokemonHandler.CreatePokemon)
				r.Put("/{id}", pokemonHandler.UpdatePokemon)
				r.With(apiMiddleware.AdminOnly).Delete("/{id}", pokemonHandler.DeletePokemon)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	if app.metrics != nil {
		r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	}

	return r
}
