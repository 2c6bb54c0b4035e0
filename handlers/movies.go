package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/camden-git/moviesbackend/models"
	"github.com/camden-git/moviesbackend/repository"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"gorm.io/gorm"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("Error encoding JSON response")
		}
	}
}

// requestDate accepts either a bare date (2006-01-02) or an RFC 3339 timestamp.
// Only the calendar date is kept, at midnight UTC, since that is all the store
// holds.
type requestDate struct {
	time.Time
}

func (d *requestDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", s)
}

// movieRequest is the body of POST and PUT. Id is accepted but never used:
// the store assigns identities.
type movieRequest struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	ReleaseDate requestDate      `json:"releaseDate"`
	Synopsis    *string          `json:"synopsis"`
	AgeRating   models.AgeRating `json:"ageRating"`
	MainGenreID int              `json:"mainGenreId"`
	Director    *models.Person   `json:"director"`
	Actors      []models.Person  `json:"actors"`
}

type MovieHandler struct {
	DB *gorm.DB
}

func (h *MovieHandler) newContext(r *http.Request) *repository.MoviesContext {
	return repository.NewMoviesContext(h.DB, *hlog.FromRequest(r))
}

func parseIntParam(w http.ResponseWriter, r *http.Request, name, label string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_parameter", "Invalid "+label+" format")
		return 0, false
	}
	return v, true
}

func decodeMovieRequest(w http.ResponseWriter, r *http.Request) (movieRequest, bool) {
	var req movieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return movieRequest{}, false
	}
	return req, true
}

// ListMovies returns every movie visible through the release filter.
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	uow := h.newContext(r)
	movies, err := uow.Movies.Query().List(r.Context())
	if err != nil {
		writeStoreError(w, r, "retrieve movies", err)
		return
	}
	writeJSON(w, r, http.StatusOK, movies)
}

// ListMoviesByYear returns only the id and title of the movies released in
// the requested year.
func (h *MovieHandler) ListMoviesByYear(w http.ResponseWriter, r *http.Request) {
	year, ok := parseIntParam(w, r, "year", "year")
	if !ok {
		return
	}

	uow := h.newContext(r)
	titles, err := uow.Movies.Query().ReleasedIn(year).Titles(r.Context())
	if err != nil {
		writeStoreError(w, r, "retrieve movies", err)
		return
	}
	writeJSON(w, r, http.StatusOK, titles)
}

func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id", "movie ID")
	if !ok {
		return
	}

	uow := h.newContext(r)
	movie, err := uow.Movies.Find(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "retrieve movie", err)
		return
	}
	if movie == nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Movie not found")
		return
	}
	writeJSON(w, r, http.StatusOK, movie)
}

func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMovieRequest(w, r)
	if !ok {
		return
	}

	movie := &models.Movie{
		Title:       req.Title,
		ReleaseDate: req.ReleaseDate.Time,
		Synopsis:    req.Synopsis,
		AgeRating:   req.AgeRating,
		MainGenreID: req.MainGenreID,
		Director:    req.Director,
		Actors:      req.Actors,
	}
	if movie.Actors == nil {
		movie.Actors = []models.Person{}
	}

	uow := h.newContext(r)
	if err := uow.Movies.Add(movie); err != nil {
		writeStoreError(w, r, "create movie", err)
		return
	}
	if err := uow.Commit(r.Context()); err != nil {
		writeStoreError(w, r, "create movie", err)
		return
	}

	hlog.FromRequest(r).Info().Int("movie_id", movie.ID).Msg("movie created")
	w.Header().Set("Location", fmt.Sprintf("/movies/%d", movie.ID))
	writeJSON(w, r, http.StatusCreated, movie)
}

// UpdateMovie overwrites the title, release date and synopsis. Identity,
// genre, rating, director and actors are left as stored.
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id", "movie ID")
	if !ok {
		return
	}
	req, ok := decodeMovieRequest(w, r)
	if !ok {
		return
	}

	uow := h.newContext(r)
	movie, err := uow.Movies.Find(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "update movie", err)
		return
	}
	if movie == nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Movie not found")
		return
	}

	movie.Title = req.Title
	movie.ReleaseDate = req.ReleaseDate.Time
	movie.Synopsis = req.Synopsis

	if err := uow.Commit(r.Context()); err != nil {
		writeStoreError(w, r, "update movie", err)
		return
	}
	writeJSON(w, r, http.StatusOK, movie)
}

func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id", "movie ID")
	if !ok {
		return
	}

	uow := h.newContext(r)
	movie, err := uow.Movies.Find(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "delete movie", err)
		return
	}
	if movie == nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Movie not found")
		return
	}

	if err := uow.Movies.Remove(movie); err != nil {
		writeStoreError(w, r, "delete movie", err)
		return
	}
	if err := uow.Commit(r.Context()); err != nil {
		writeStoreError(w, r, "delete movie", err)
		return
	}

	hlog.FromRequest(r).Info().Int("movie_id", id).Msg("movie deleted")
	w.WriteHeader(http.StatusOK)
}
