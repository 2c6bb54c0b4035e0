package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/camden-git/moviesbackend/database"
	"github.com/camden-git/moviesbackend/repository"
	"github.com/rs/zerolog/hlog"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// writeStoreError maps a persistence failure onto a response. action is
// used in the client-facing detail, e.g. "create movie".
func writeStoreError(w http.ResponseWriter, r *http.Request, action string, err error) {
	log := hlog.FromRequest(r)

	var constraint *repository.ConstraintError
	var connectivity *repository.ConnectivityError
	var format *database.FormatError

	switch {
	case errors.As(err, &constraint):
		log.Info().Err(err).Str("action", action).Msg("commit rejected by constraint")
		WriteAPIError(w, http.StatusBadRequest, "constraint_violation", "Failed to "+action+": "+constraint.Err.Error())
	case errors.As(err, &connectivity):
		log.Error().Err(err).Str("action", action).Msg("store unavailable")
		WriteAPIError(w, http.StatusServiceUnavailable, "store_unavailable", "Failed to "+action+": store unavailable")
	case errors.As(err, &format):
		log.Error().Err(err).Str("action", action).Msg("stored value could not be decoded")
		WriteAPIError(w, http.StatusInternalServerError, "corrupt_data", "Failed to "+action)
	case errors.Is(err, repository.ErrStaleEntity):
		log.Warn().Err(err).Str("action", action).Msg("entity changed concurrently")
		WriteAPIError(w, http.StatusConflict, "conflict", "Failed to "+action+": it was changed or removed by another request")
	default:
		log.Error().Err(err).Str("action", action).Msg("request failed")
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to "+action)
	}
}
