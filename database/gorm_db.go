package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/camden-git/moviesbackend/config"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormWriter sends GORM's log lines through zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// NewGormLogger returns a GORM logger writing to log. With logSQL every
// translated statement is logged; otherwise only slow queries and errors.
func NewGormLogger(log zerolog.Logger, logSQL bool) logger.Interface {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	return logger.New(
		gormWriter{log: log.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Dialector picks the GORM driver for the configured store.
func Dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		return sqlite.Open(SQLiteDSN(cfg.DatabasePath)), nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// SQLiteDSN turns a path into a DSN with foreign keys enforced, which the
// owned-row and genre constraints depend on.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") || strings.Contains(path, "_fk=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(cfg config.Config, log zerolog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return Open(dialector, NewGormLogger(log, cfg.DatabaseLogSQL))
}

// Open connects through dialector and tunes the pool.
func Open(dialector gorm.Dialector, gormLogger logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
