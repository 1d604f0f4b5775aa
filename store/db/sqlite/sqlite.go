package sqlite

import (
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/erpdesk/internal/profile"
	"github.com/hrygo/erpdesk/store"
)

// ============================================================================
// SQLITE SUPPORT (Development / single node)
// ============================================================================
// SQLite serializes writers. The pool is pinned to one connection so that
// concurrent requests queue in database/sql instead of failing with
// SQLITE_BUSY. Code in this package must therefore never run a second query
// while a *sql.Rows is still open.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database using the DSN from profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Connect to the database with some sane settings:
	// - foreign_keys=1: enforce REFERENCES clauses.
	// - busy_timeout=10000: wait up to 10 seconds on a locked database.
	// - journal_mode=WAL: readers do not block the writer.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	sqliteDB.SetMaxOpenConns(1)

	if err := sqliteDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver := DB{db: sqliteDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (*DB) Type() string {
	return "sqlite"
}
