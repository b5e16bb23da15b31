package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bimaega15/translate-video/job"
)

const schema = `CREATE TABLE IF NOT EXISTS jobs (
	id                TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL DEFAULT '',
	source_language   TEXT NOT NULL DEFAULT 'auto',
	upload_path       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	progress          INTEGER NOT NULL DEFAULT 0,
	message           TEXT NOT NULL DEFAULT '',
	output_path       TEXT NOT NULL DEFAULT '',
	subtitle_path     TEXT NOT NULL DEFAULT '',
	error             TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL,
	started_at        DATETIME,
	completed_at      DATETIME
);`

// SQLiteStore persists job records so status survives a restart.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create jobs table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*job.Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, original_filename, source_language, upload_path, status, progress,
		        message, output_path, subtitle_path, error, created_at, started_at, completed_at
		 FROM jobs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*job.Job, 0)
	for rows.Next() {
		var item job.Job
		var status string
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(
			&item.ID,
			&item.OriginalFilename,
			&item.SourceLanguage,
			&item.UploadPath,
			&status,
			&item.Progress,
			&item.Message,
			&item.OutputPath,
			&item.SubtitlePath,
			&item.Error,
			&item.CreatedAt,
			&startedAt,
			&completedAt,
		); err != nil {
			return nil, err
		}
		item.Status = job.Status(status)
		if startedAt.Valid {
			item.StartedAt = startedAt.Time
		}
		if completedAt.Valid {
			item.CompletedAt = completedAt.Time
		}
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, j *job.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
			id, original_filename, source_language, upload_path, status, progress,
			message, output_path, subtitle_path, error, created_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			original_filename=excluded.original_filename,
			source_language=excluded.source_language,
			upload_path=excluded.upload_path,
			status=excluded.status,
			progress=excluded.progress,
			message=excluded.message,
			output_path=excluded.output_path,
			subtitle_path=excluded.subtitle_path,
			error=excluded.error,
			started_at=excluded.started_at,
			completed_at=excluded.completed_at`,
		j.ID,
		j.OriginalFilename,
		j.SourceLanguage,
		j.UploadPath,
		string(j.Status),
		j.Progress,
		j.Message,
		j.OutputPath,
		j.SubtitlePath,
		j.Error,
		j.CreatedAt,
		nullableTime(j.StartedAt),
		nullableTime(j.CompletedAt),
	)
	return err
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	return err
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
