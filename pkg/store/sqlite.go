package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rfmap/rfmap/pkg"
	"github.com/rfmap/rfmap/pkg/logx"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *logx.Logger
}

// Open opens (creating if needed) the emitter database at path.
func Open(path string, logger *logx.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initializeSchema creates the database tables
func (s *SQLiteStore) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS emitters (
		unique_key TEXT PRIMARY KEY,
		type       TEXT NOT NULL,
		latitude   REAL NOT NULL,
		longitude  REAL NOT NULL,
		radius_ns  REAL NOT NULL,
		radius_ew  REAL NOT NULL,
		label      TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// execer abstracts *sql.DB and *sql.Tx so row operations land in the open
// flush transaction when there is one.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) execer() execer {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Load fetches every persisted row for the given keys in one query.
func (s *SQLiteStore) Load(keys []string) (map[string]Row, error) {
	result := make(map[string]Row, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	query := fmt.Sprintf(`SELECT unique_key, type, latitude, longitude, radius_ns, radius_ew, label
		FROM emitters WHERE unique_key IN (%s)`, placeholders)

	rows, err := s.execer().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load emitter rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Row
		var typ string
		if err := rows.Scan(&r.Key, &typ, &r.Latitude, &r.Longitude, &r.RadiusNS, &r.RadiusEW, &r.Label); err != nil {
			return nil, fmt.Errorf("failed to scan emitter row: %w", err)
		}
		r.Type = pkg.EmitterType(typ)
		result[r.Key] = r
	}
	return result, rows.Err()
}

// LoadOne fetches a single row, or ErrNotFound.
func (s *SQLiteStore) LoadOne(key string) (*Row, error) {
	var r Row
	var typ string
	err := s.execer().QueryRow(`SELECT unique_key, type, latitude, longitude, radius_ns, radius_ew, label
		FROM emitters WHERE unique_key = ?`, key).
		Scan(&r.Key, &typ, &r.Latitude, &r.Longitude, &r.RadiusNS, &r.RadiusEW, &r.Label)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load emitter row %s: %w", key, err)
	}
	r.Type = pkg.EmitterType(typ)
	return &r, nil
}

// Insert stores a new emitter row.
func (s *SQLiteStore) Insert(row Row) error {
	_, err := s.execer().Exec(`INSERT INTO emitters
		(unique_key, type, latitude, longitude, radius_ns, radius_ew, label)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.Key, string(row.Type), row.Latitude, row.Longitude, row.RadiusNS, row.RadiusEW, row.Label)
	if err != nil {
		return fmt.Errorf("failed to insert emitter %s: %w", row.Key, err)
	}
	return nil
}

// Update rewrites an existing emitter row.
func (s *SQLiteStore) Update(row Row) error {
	_, err := s.execer().Exec(`UPDATE emitters
		SET latitude = ?, longitude = ?, radius_ns = ?, radius_ew = ?, label = ?
		WHERE unique_key = ?`,
		row.Latitude, row.Longitude, row.RadiusNS, row.RadiusEW, row.Label, row.Key)
	if err != nil {
		return fmt.Errorf("failed to update emitter %s: %w", row.Key, err)
	}
	return nil
}

// Invalidate writes the degenerate radius marker into the row.
func (s *SQLiteStore) Invalidate(key string) error {
	_, err := s.execer().Exec(`UPDATE emitters SET radius_ns = ?, radius_ew = ? WHERE unique_key = ?`,
		InvalidRadius, InvalidRadius, key)
	if err != nil {
		return fmt.Errorf("failed to invalidate emitter %s: %w", key, err)
	}
	return nil
}

// Drop removes the row entirely.
func (s *SQLiteStore) Drop(key string) error {
	_, err := s.execer().Exec(`DELETE FROM emitters WHERE unique_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to drop emitter %s: %w", key, err)
	}
	return nil
}

// BeginTransaction opens the flush transaction. Nested begins are a no-op.
func (s *SQLiteStore) BeginTransaction() error {
	if s.tx != nil {
		s.logger.Warn("nested begin of flush transaction ignored")
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// EndTransaction commits or rolls back the open flush transaction.
func (s *SQLiteStore) EndTransaction(commit bool) error {
	if s.tx == nil {
		s.logger.Warn("end of flush transaction without begin ignored")
		return nil
	}
	tx := s.tx
	s.tx = nil
	if commit {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// GetSetting reads one settings value.
func (s *SQLiteStore) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.execer().QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// PutSetting writes one settings value.
func (s *SQLiteStore) PutSetting(key, value string) error {
	_, err := s.execer().Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle. An open flush transaction is rolled
// back first.
func (s *SQLiteStore) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}
