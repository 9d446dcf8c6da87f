package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Entry is one completed translation, recorded for later review.
type Entry struct {
	Model          string
	TargetLanguage string
	SourceLength   int
	ResultLength   int
	Streamed       bool
	DurationMs     int64
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Repository persists translation history in PostgreSQL. The schema is
// created on startup if missing.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS translation_history (
	id              BIGSERIAL PRIMARY KEY,
	model           TEXT        NOT NULL,
	target_language TEXT        NOT NULL,
	source_length   INTEGER     NOT NULL,
	result_length   INTEGER     NOT NULL,
	streamed        BOOLEAN     NOT NULL DEFAULT FALSE,
	duration_ms     BIGINT      NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func NewRepository(cfg Config, logger *zap.Logger) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	logger.Info("Translation history enabled",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return &Repository{db: db, logger: logger}, nil
}

func (r *Repository) Record(ctx context.Context, entry Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO translation_history
			(model, target_language, source_length, result_length, streamed, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Model, entry.TargetLanguage, entry.SourceLength,
		entry.ResultLength, entry.Streamed, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record translation: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
