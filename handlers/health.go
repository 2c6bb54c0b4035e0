package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
	"gorm.io/gorm"
)

// HealthHandler reports whether the store answers.
func HealthHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		checks := map[string]string{"database": "ok"}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("health check: database unreachable")
			status = http.StatusServiceUnavailable
			checks["database"] = "unreachable"
		}

		writeJSON(w, r, status, map[string]interface{}{
			"status":    http.StatusText(status),
			"timestamp": time.Now().UTC(),
			"checks":    checks,
		})
	}
}
