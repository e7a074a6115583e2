package export

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/fivetwenty-io/sellsy-client/pkg/sellsy"
)

// SQLiteCursorStore persists resume cursors in a sidecar SQLite database,
// keyed by endpoint and entity type. It is the alternative to encoding the
// cursor in the output file name when exports land somewhere the file name
// cannot carry state.
type SQLiteCursorStore struct {
	db *sql.DB
}

// OpenSQLiteCursorStore opens or creates the cursor database at path.
func OpenSQLiteCursorStore(path string) (*SQLiteCursorStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cursor database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("connecting to cursor database: %w", err)
	}

	schema := `
    CREATE TABLE IF NOT EXISTS export_cursors (
        endpoint TEXT NOT NULL,
        entity_type TEXT NOT NULL,
        cursor TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (endpoint, entity_type)
    );
    `

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating cursor table: %w", err)
	}

	return &SQLiteCursorStore{db: db}, nil
}

// Save records the resume cursor for an endpoint and entity type. An empty
// cursor clears the stored state, marking the export as complete.
func (s *SQLiteCursorStore) Save(endpoint, entityType string, cursor sellsy.Cursor) error {
	if cursor == "" {
		query := `DELETE FROM export_cursors WHERE endpoint = ? AND entity_type = ?`

		if _, err := s.db.Exec(query, endpoint, entityType); err != nil {
			return fmt.Errorf("clearing cursor: %w", err)
		}

		return nil
	}

	query := `
        INSERT INTO export_cursors (endpoint, entity_type, cursor)
        VALUES (?, ?, ?)
        ON CONFLICT (endpoint, entity_type)
        DO UPDATE SET cursor = excluded.cursor, updated_at = CURRENT_TIMESTAMP
    `

	if _, err := s.db.Exec(query, endpoint, entityType, string(cursor)); err != nil {
		return fmt.Errorf("saving cursor: %w", err)
	}

	return nil
}

// Load returns the stored resume cursor, or an empty cursor when the last
// export completed.
func (s *SQLiteCursorStore) Load(endpoint, entityType string) (sellsy.Cursor, error) {
	query := `SELECT cursor FROM export_cursors WHERE endpoint = ? AND entity_type = ?`

	var cursor string

	err := s.db.QueryRow(query, endpoint, entityType).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("loading cursor: %w", err)
	}

	return sellsy.Cursor(cursor), nil
}

// Close closes the underlying database.
func (s *SQLiteCursorStore) Close() error {
	return s.db.Close()
}
