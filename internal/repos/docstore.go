package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = errors.New("document not found")

// DocStore is a tree of JSON documents grouped in collections, with live
// subscriptions. Keys produced by Push sort in creation order.
type DocStore interface {
	Push(ctx context.Context, collection string, v any) (string, error)
	Put(ctx context.Context, collection, key string, v any) error
	Get(ctx context.Context, collection, key string) ([]byte, error)
	List(ctx context.Context, q Query) (Snapshot, error)
	// Subscribe delivers the full result of q once immediately and again after
	// every change to the collection, until Cancel is called or ctx ends.
	Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Subscription, error)
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}

// Query selects documents of a collection. With Child set, only documents whose
// top-level string field Child equals Equals are returned.
type Query struct {
	Collection string
	Child      string
	Equals     string
}

type Doc struct {
	Key  string
	Body json.RawMessage
}

// Snapshot is the result of a query at one point in time, ordered by key.
type Snapshot struct {
	Docs []Doc
}

func (s Snapshot) Empty() bool { return len(s.Docs) == 0 }

var (
	reCollection = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reChild      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)
)

func (q Query) validate() error {
	if !reCollection.MatchString(q.Collection) {
		return fmt.Errorf("invalid collection %q", q.Collection)
	}
	if q.Child != "" && !reChild.MatchString(q.Child) {
		return fmt.Errorf("invalid child %q", q.Child)
	}
	return nil
}

func (q Query) matches(body []byte) bool {
	if q.Child == "" {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	var v string
	if err := json.Unmarshal(fields[q.Child], &v); err != nil {
		return false
	}
	return v == q.Equals
}

func checkKey(collection, key string) error {
	if !reCollection.MatchString(collection) {
		return fmt.Errorf("invalid collection %q", collection)
	}
	if !reCollection.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// NewKey returns a time-ordered key (UUIDv7).
func NewKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
