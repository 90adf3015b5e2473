// Package ledger defines the per-user document store that backs every
// account, transaction, category and goal record.
//
// Records are JSON documents addressed by (userID, collection, id). Each user
// subtree carries a monotonically increasing revision that every write bumps;
// RunTransaction uses it as the compare-and-swap token for optimistic commits.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names a record kind inside a user's subtree.
type Collection string

const (
	Accounts     Collection = "accounts"
	Transactions Collection = "transactions"
	Categories   Collection = "categories"
	Goals        Collection = "goals"
)

// Collections lists every collection a user subtree may hold.
var Collections = []Collection{Accounts, Transactions, Categories, Goals}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

var (
	ErrNotFound         = errors.New("ledger: record not found")
	ErrConflict         = errors.New("ledger: concurrent modification")
	ErrRetriesExhausted = errors.New("ledger: transaction retries exhausted")
	ErrInvalidPath      = errors.New("ledger: invalid path")
)

// Path addresses one record.
type Path struct {
	UserID     string
	Collection Collection
	ID         string
}

func (p Path) String() string {
	return fmt.Sprintf("users/%s/%s/%s", p.UserID, p.Collection, p.ID)
}

// Validate rejects paths with empty segments or unknown collections.
func (p Path) Validate() error {
	if p.UserID == "" || p.ID == "" || !p.Collection.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPath, p.String())
	}
	return nil
}

// Write is one pending mutation. Data is ignored when Delete is set.
type Write struct {
	Path   Path
	Data   json.RawMessage
	Delete bool
}

// Snapshot is a point-in-time copy of a user subtree.
type Snapshot map[Collection]map[string]json.RawMessage

// Store is the persistence contract the services are written against.
type Store interface {
	Get(ctx context.Context, path Path) (json.RawMessage, error)
	Set(ctx context.Context, path Path, data json.RawMessage) error
	Delete(ctx context.Context, path Path) error
	// List returns every record in one collection of the user's subtree.
	List(ctx context.Context, userID string, coll Collection) ([]json.RawMessage, error)
	// QueryByField returns every record in the collection whose top-level
	// JSON field equals value. Result order is unspecified.
	QueryByField(ctx context.Context, userID string, coll Collection, field string, value any) ([]json.RawMessage, error)
	// UpdateMulti applies all writes as one batch.
	UpdateMulti(ctx context.Context, userID string, writes []Write) error
	// RunTransaction runs fn against a private snapshot of the user's
	// subtree. A nil return commits the writes fn staged on the Tree, any
	// other error aborts with no side effects and is returned unchanged.
	// Conflicting commits are retried; ErrRetriesExhausted is returned once
	// the budget is spent.
	RunTransaction(ctx context.Context, userID string, fn func(*Tree) error) error
	// Revision returns the current revision of the user's subtree.
	Revision(ctx context.Context, userID string) (int64, error)
}

// Encode marshals a record for storage.
func Encode(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode: %w", err)
	}
	return data, nil
}

// Decode unmarshals a stored record into a new T.
func Decode[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("ledger: decode: %w", err)
	}
	return &v, nil
}

// DecodeAll unmarshals a slice of stored records.
func DecodeAll[T any](raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		v, err := Decode[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// MatchField reports whether the top-level JSON field of doc equals value.
// Comparison is on canonical JSON encodings, so 5 matches int64(5) and
// "x" matches "x".
func MatchField(doc json.RawMessage, field string, value any) (bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false, fmt.Errorf("ledger: match field %q: %w", field, err)
	}
	got, ok := fields[field]
	if !ok {
		return false, nil
	}
	want, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("ledger: match field %q: %w", field, err)
	}
	return canonical(got) == canonical(want), nil
}

func canonical(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(b)
}

// Clone deep-copies a snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for coll, docs := range s {
		cp := make(map[string]json.RawMessage, len(docs))
		for id, raw := range docs {
			cp[id] = cloneRaw(raw)
		}
		out[coll] = cp
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return cp
}
