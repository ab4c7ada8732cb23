// Package sqlite provides a URL repository backed by a local SQLite file
// (modernc.org/sqlite) or a remote libSQL database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vadimbarashkov/shortcode/internal/entity"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS urls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	short_code TEXT NOT NULL UNIQUE,
	original_url TEXT NOT NULL UNIQUE,
	clicks INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);`

// driverName picks the database/sql driver for dsn.
func driverName(dsn string) string {
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") || strings.HasPrefix(dsn, "https://") {
		return "libsql"
	}
	return "sqlite"
}

// Open connects to dsn and creates the urls table if needed.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	const op = "adapter.repository.sqlite.Open"

	driver := driverName(dsn)

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	// SQLite allows a single writer; serializing connections avoids SQLITE_BUSY.
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to create urls table: %w", op, err)
	}

	return db, nil
}

// uniqueViolation returns the column whose UNIQUE constraint err reports.
// Both drivers surface SQLite's "UNIQUE constraint failed: <table>.<column>" message.
func uniqueViolation(err error) (string, bool) {
	const marker = "UNIQUE constraint failed: urls."

	msg := err.Error()

	i := strings.Index(msg, marker)
	if i < 0 {
		return "", false
	}

	column := msg[i+len(marker):]
	if j := strings.IndexAny(column, " ,()"); j >= 0 {
		column = column[:j]
	}

	return column, true
}

type urlDB struct {
	ID          int64  `db:"id"`
	ShortCode   string `db:"short_code"`
	OriginalURL string `db:"original_url"`
	Clicks      int64  `db:"clicks"`
	CreatedAt   int64  `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		URLStats: entity.URLStats{
			Clicks: u.Clicks,
		},
		CreatedAt: time.UnixMicro(u.CreatedAt).UTC(),
	}
}

type URLRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.Save"
	const query = `INSERT INTO urls(short_code, original_url, created_at) VALUES (?, ?, ?)
		RETURNING id, short_code, original_url, clicks, created_at`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode, originalURL, r.now().UnixMicro()); err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "short_code":
				return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
			case "original_url":
				return nil, fmt.Errorf("%s: %w", op, entity.ErrOriginalURLExists)
			}
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.RetrieveByShortCode"
	const query = `SELECT id, short_code, original_url, clicks, created_at FROM urls WHERE short_code = ?`

	return r.retrieve(ctx, op, query, shortCode)
}

func (r *URLRepository) RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.RetrieveByOriginalURL"
	const query = `SELECT id, short_code, original_url, clicks, created_at FROM urls WHERE original_url = ?`

	return r.retrieve(ctx, op, query, originalURL)
}

func (r *URLRepository) retrieve(ctx context.Context, op, query, arg string) (*entity.URL, error) {
	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.sqlite.URLRepository.IncrementClicks"
	const query = `UPDATE urls SET clicks = clicks + 1 WHERE short_code = ?`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}

func (r *URLRepository) Ping(ctx context.Context) error {
	const op = "adapter.repository.sqlite.URLRepository.Ping"

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
