package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/camden-git/moviesbackend/config"
	"github.com/camden-git/moviesbackend/database"
	"github.com/camden-git/moviesbackend/handlers"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg)

	db, err := database.InitGormDB(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	created, err := database.Migrate(db, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}
	if err := database.VerifySchema(db); err != nil {
		logger.Fatal().Err(err).Msg("mapping does not match the store schema")
	}

	orphans, err := database.CountOrphanedOwnedRows(sqlDB, db.Dialector.Name())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to audit owned rows")
	}
	if orphans > 0 {
		logger.Warn().Int64("orphans", orphans).Msg("director or actor rows without a picture found")
	}

	logger.Info().
		Str("driver", cfg.DatabaseDriver).
		Bool("schema_created", created).
		Msg("database ready")

	serverAddr := ":" + cfg.Port
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	logger.Info().Str("addr", serverAddr).Msg("server listening")
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handlers.NewRouter(cfg, db, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
