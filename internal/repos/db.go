package repos

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: ":memory:" databases are per connection, and a single
	// writer keeps SQLite from returning SQLITE_BUSY under concurrent pushes.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Documents: one row per child of a collection (product/<key>, orders/<key>)
CREATE TABLE IF NOT EXISTS documents(
  collection TEXT NOT NULL,
  doc_key    TEXT NOT NULL,
  body       TEXT NOT NULL CHECK (json_valid(body)),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  PRIMARY KEY (collection, doc_key)
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(collection, json_extract(body, '$.status'));
`
	_, err := db.Exec(schema)
	return err
}
