package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pi3123/SmartDashcam/pkg/recording"
)

// SQLiteConfig configures the SQLite catalog.
type SQLiteConfig struct {
	// Path is the database file path. Its directory is created if missing.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteCatalog implements Catalog on a SQLite database.
type SQLiteCatalog struct {
	db        *sql.DB
	path      string
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteCatalog opens (or creates) the catalog database at path.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	return NewSQLiteCatalogWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteCatalogWithConfig opens the catalog with custom configuration.
func NewSQLiteCatalogWithConfig(cfg SQLiteConfig) (*SQLiteCatalog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c := &SQLiteCatalog{
		db:     db,
		path:   cfg.Path,
		logger: slog.Default().With("component", "recording.catalog.sqlite"),
	}

	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	c.logger.Info("export catalog opened", "path", cfg.Path)
	return c, nil
}

func (c *SQLiteCatalog) initSchema() error {
	if _, err := c.db.Exec(Schema); err != nil {
		return err
	}
	if _, err := c.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return err
	}

	var version sql.NullInt64
	if err := c.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return err
	}
	if !version.Valid || version.Int64 != SchemaVersion {
		return fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64)
	}
	return nil
}

// RecordJob inserts or replaces a job.
func (c *SQLiteCatalog) RecordJob(ctx context.Context, job *Job) error {
	_, err := c.db.ExecContext(ctx, upsertJob,
		job.ID,
		job.OutputPath,
		float64(job.FirstTimestamp),
		float64(job.LastTimestamp),
		job.FrameCount,
		job.WindowMinutes,
		string(job.Status),
		job.Error,
		job.StartedAt.UnixNano(),
		job.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record export job %s: %w", job.ID, err)
	}
	return nil
}

// ListJobs returns the most recent jobs first.
func (c *SQLiteCatalog) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	query := selectJobColumns + ` ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list export jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list export jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns one job.
func (c *SQLiteCatalog) GetJob(ctx context.Context, id string) (*Job, error) {
	row := c.db.QueryRowContext(ctx, selectJobColumns+` WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// Ping checks the database connection.
func (c *SQLiteCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *SQLiteCatalog) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.db.Close()
	})
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job        Job
		firstTS    float64
		lastTS     float64
		status     string
		startedAt  int64
		finishedAt int64
	)
	err := row.Scan(
		&job.ID,
		&job.OutputPath,
		&firstTS,
		&lastTS,
		&job.FrameCount,
		&job.WindowMinutes,
		&status,
		&job.Error,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan export job: %w", err)
	}

	job.FirstTimestamp = recording.Timestamp(firstTS)
	job.LastTimestamp = recording.Timestamp(lastTS)
	job.Status = Status(status)
	job.StartedAt = time.Unix(0, startedAt)
	job.FinishedAt = time.Unix(0, finishedAt)
	return &job, nil
}
