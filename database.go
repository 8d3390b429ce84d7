package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"staffLookupPortal/internal/session"
)

func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func initDatabase(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS roster_imports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			imported_by TEXT,
			imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := db.Exec(query)
	return err
}

// sqlSessionBackend is the durable half of the session store. Errors here are
// reported upward but never fail a login; the gate degrades to memory-only.
type sqlSessionBackend struct {
	db *sql.DB
}

func newSQLSessionBackend(db *sql.DB) *sqlSessionBackend {
	return &sqlSessionBackend{db: db}
}

func (b *sqlSessionBackend) Save(s session.Session) error {
	_, err := b.db.Exec(`
		INSERT OR REPLACE INTO sessions (id, username, role, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Username, s.Role, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	return err
}

func (b *sqlSessionBackend) Lookup(id string) (session.Session, bool, error) {
	var s session.Session
	err := b.db.QueryRow(`
		SELECT id, username, role, created_at, expires_at FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.Username, &s.Role, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, err
	}
	return s, true, nil
}

func (b *sqlSessionBackend) Delete(id string) error {
	_, err := b.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (b *sqlSessionBackend) DeleteExpired(cutoff time.Time) (int64, error) {
	res, err := b.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// recordImport writes an audit row for a roster load. Best-effort only.
func (app *App) recordImport(source string, rowCount int, importedBy string) {
	if app.DB == nil {
		return
	}
	_, err := app.DB.Exec(`
		INSERT INTO roster_imports (source, row_count, imported_by) VALUES (?, ?, ?)
	`, source, rowCount, importedBy)
	if err != nil {
		AppLogger.WithError(err).Warn("Failed to record roster import")
	}
}
