package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps documents in a single SQLite table. Change notifications are
// delivered in-process, so live updates only reach subscribers of this process.
type SQLStore struct {
	db  *sqlx.DB
	hub *hub
}

func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db, hub: newHub()} }

// OpenSQLStore opens (and migrates) the database behind dsn.
func OpenSQLStore(dsn string) (*SQLStore, error) {
	db, err := OpenDB(dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db), nil
}

func (s *SQLStore) DB() *sqlx.DB { return s.db }

func (s *SQLStore) Push(ctx context.Context, collection string, v any) (string, error) {
	key, err := NewKey()
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, collection, key, v); err != nil {
		return "", err
	}
	return key, nil
}

func (s *SQLStore) Put(ctx context.Context, collection, key string, v any) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents(collection, doc_key, body, created_at)
		VALUES(?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, doc_key) DO UPDATE
		SET body = excluded.body, updated_at = CURRENT_TIMESTAMP
	`, collection, key, string(body))
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, key, err)
	}
	s.hub.publish(collection)
	return nil
}

func (s *SQLStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	if err := checkKey(collection, key); err != nil {
		return nil, err
	}
	var body string
	err := s.db.GetContext(ctx, &body, `SELECT body FROM documents WHERE collection = ? AND doc_key = ?`, collection, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", collection, key, err)
	}
	return []byte(body), nil
}

type docRow struct {
	Key  string `db:"doc_key"`
	Body string `db:"body"`
}

func (s *SQLStore) List(ctx context.Context, q Query) (Snapshot, error) {
	if err := q.validate(); err != nil {
		return Snapshot{}, err
	}
	where := `collection = ?`
	args := []any{q.Collection}
	if q.Child != "" {
		where += ` AND json_extract(body, ?) = ?`
		args = append(args, "$."+q.Child, q.Equals)
	}

	var rows []docRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT doc_key, body
		FROM documents
		WHERE `+where+`
		ORDER BY doc_key`, args...); err != nil {
		return Snapshot{}, fmt.Errorf("list %s: %w", q.Collection, err)
	}
	snap := Snapshot{Docs: make([]Doc, 0, len(rows))}
	for _, r := range rows {
		snap.Docs = append(snap.Docs, Doc{Key: r.Key, Body: json.RawMessage(r.Body)})
	}
	return snap, nil
}

func (s *SQLStore) Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Subscription, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	sub, subCtx := newSubscription(ctx, q)
	s.hub.add(sub)
	sub.start(subCtx, s.List, fn, func() { s.hub.remove(sub) })
	return sub, nil
}

func (s *SQLStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection)
	return n, err
}

func (s *SQLStore) Close() error { return s.db.Close() }
