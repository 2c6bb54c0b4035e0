package handlers

import (
	"net/http"

	"github.com/camden-git/moviesbackend/repository"
	"github.com/rs/zerolog/hlog"
	"gorm.io/gorm"
)

type GenreHandler struct {
	DB *gorm.DB
}

func (h *GenreHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	uow := repository.NewMoviesContext(h.DB, *hlog.FromRequest(r))
	genres, err := uow.Genres.List(r.Context())
	if err != nil {
		writeStoreError(w, r, "retrieve genres", err)
		return
	}
	writeJSON(w, r, http.StatusOK, genres)
}

// ListGenreMovies resolves the genre's movies with a query rather than a
// stored collection, so the genre and its movies never nest.
func (h *GenreHandler) ListGenreMovies(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id", "genre ID")
	if !ok {
		return
	}

	uow := repository.NewMoviesContext(h.DB, *hlog.FromRequest(r))
	genre, err := uow.Genres.Find(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "retrieve genre", err)
		return
	}
	if genre == nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Genre not found")
		return
	}

	movies, err := uow.Movies.Query().InGenre(genre.ID).OrderByTitle().List(r.Context())
	if err != nil {
		writeStoreError(w, r, "retrieve movies", err)
		return
	}
	writeJSON(w, r, http.StatusOK, movies)
}
