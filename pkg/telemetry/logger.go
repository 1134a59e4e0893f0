package telemetry

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/blackrocklabs/playasearch/pkg/config"
)

// NewLogger builds the application logger: a text or JSON handler on
// stderr, wrapped with Parquet error capture when a telemetry path is
// configured and with database error capture when a telemetry DB URL is
// configured.
func NewLogger(logCfg config.LogConfig, telCfg config.TelemetryConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(logCfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(logCfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	if telCfg.ParquetPath != "" {
		parquetHandler, err := NewParquetHandler(handler, telCfg.ParquetPath)
		if err != nil {
			return nil, err
		}
		handler = parquetHandler
	}

	if telCfg.DbURL != "" {
		db, err := sql.Open("postgres", telCfg.DbURL)
		if err != nil {
			return nil, fmt.Errorf("opening telemetry database: %w", err)
		}
		sqlHandler, err := NewSQLHandler(handler, db)
		if err != nil {
			return nil, err
		}
		handler = sqlHandler
	}

	return slog.New(handler), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
