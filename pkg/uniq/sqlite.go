package uniq

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/traitmix/pkg/errors"
)

// SQLite is a [Set] persisted in a SQLite file. Fingerprints are the primary
// key of one table and inserted with INSERT OR IGNORE, so the affected row
// count tells whether the member was new.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create directory for %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockAcquisition, err, "open %s", path)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSQLite(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeLockAcquisition, err, "initialize %s", path)
	}
	return &SQLite{db: db}, nil
}

func initSQLite(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS fingerprints (
			fingerprint TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Insert adds fp and reports whether it was absent.
func (s *SQLite) Insert(ctx context.Context, fp string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO fingerprints (fingerprint, created_at) VALUES (?, ?)",
		fp, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeLockAcquisition, err, "insert fingerprint")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeLockAcquisition, err, "insert fingerprint")
	}
	return n == 1, nil
}

// Remove deletes fp and reports whether it was stored.
func (s *SQLite) Remove(ctx context.Context, fp string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM fingerprints WHERE fingerprint = ?", fp)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeLockAcquisition, err, "delete fingerprint")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeLockAcquisition, err, "delete fingerprint")
	}
	return n == 1, nil
}

// Len returns the number of stored fingerprints.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fingerprints").Scan(&n); err != nil {
		return 0, errors.Wrap(errors.ErrCodeLockAcquisition, err, "count fingerprints")
	}
	return n, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ensure SQLite implements Set.
var _ Set = (*SQLite)(nil)
