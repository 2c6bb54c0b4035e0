package handlers

import (
	"net/http"

	"github.com/camden-git/moviesbackend/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// NewRouter wires the middleware stack and every route.
func NewRouter(cfg config.Config, db *gorm.DB, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(corsHandler.Handler)

	movieHandler := &MovieHandler{DB: db}
	genreHandler := &GenreHandler{DB: db}

	r.Get("/health", HealthHandler(db))

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", movieHandler.ListMovies)
		r.Post("/", movieHandler.CreateMovie)
		r.Get("/by-year/{year}", movieHandler.ListMoviesByYear)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", movieHandler.GetMovie)
			r.Put("/", movieHandler.UpdateMovie)
			r.Delete("/", movieHandler.DeleteMovie)
		})
	})

	r.Route("/genres", func(r chi.Router) {
		r.Get("/", genreHandler.ListGenres)
		r.Get("/{id}/movies", genreHandler.ListGenreMovies)
	})

	return r
}
