// Package memstore is an in-process ledger.Store. It backs tests and the
// STORE_BACKEND=memory mode of the API.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pocketledger/internal/ledger"
)

type subtree struct {
	revision int64
	docs     ledger.Snapshot
}

// Store keeps every user subtree in memory behind a single RWMutex.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*subtree
	policy ledger.RetryPolicy
}

var _ ledger.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithRetryPolicy overrides the transaction retry policy.
func WithRetryPolicy(p ledger.RetryPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		users:  make(map[string]*subtree),
		policy: ledger.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// user returns the subtree for userID, creating it. Caller holds s.mu for writing.
func (s *Store) user(userID string) *subtree {
	u, ok := s.users[userID]
	if !ok {
		u = &subtree{docs: ledger.Snapshot{}}
		s.users[userID] = u
	}
	return u
}

func (u *subtree) apply(w ledger.Write) {
	if w.Delete {
		delete(u.docs[w.Path.Collection], w.Path.ID)
		return
	}
	if u.docs[w.Path.Collection] == nil {
		u.docs[w.Path.Collection] = make(map[string]json.RawMessage)
	}
	cp := make(json.RawMessage, len(w.Data))
	copy(cp, w.Data)
	u.docs[w.Path.Collection][w.Path.ID] = cp
}

// Get returns a copy of the record at path.
func (s *Store) Get(ctx context.Context, path ledger.Path) (json.RawMessage, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[path.UserID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrNotFound, path)
	}
	raw, ok := u.docs[path.Collection][path.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrNotFound, path)
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return cp, nil
}

// Set writes one record and bumps the user's revision.
func (s *Store) Set(ctx context.Context, path ledger.Path, data json.RawMessage) error {
	return s.UpdateMulti(ctx, path.UserID, []ledger.Write{{Path: path, Data: data}})
}

// Delete removes one record and bumps the user's revision.
func (s *Store) Delete(ctx context.Context, path ledger.Path) error {
	return s.UpdateMulti(ctx, path.UserID, []ledger.Write{{Path: path, Delete: true}})
}

// UpdateMulti applies writes atomically with a single revision bump.
func (s *Store) UpdateMulti(ctx context.Context, userID string, writes []ledger.Write) error {
	for _, w := range writes {
		if err := w.Path.Validate(); err != nil {
			return err
		}
		if w.Path.UserID != userID {
			return fmt.Errorf("%w: write %s outside user %s", ledger.ErrInvalidPath, w.Path, userID)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(writes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	for _, w := range writes {
		u.apply(w)
	}
	u.revision++
	return nil
}

// List returns copies of every record in the collection.
func (s *Store) List(ctx context.Context, userID string, coll ledger.Collection) ([]json.RawMessage, error) {
	if !coll.Valid() {
		return nil, fmt.Errorf("%w: collection %q", ledger.ErrInvalidPath, coll)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]json.RawMessage, 0, len(u.docs[coll]))
	for _, raw := range u.docs[coll] {
		cp := make(json.RawMessage, len(raw))
		copy(cp, raw)
		out = append(out, cp)
	}
	return out, nil
}

// QueryByField scans the collection for records whose field equals value.
func (s *Store) QueryByField(ctx context.Context, userID string, coll ledger.Collection, field string, value any) ([]json.RawMessage, error) {
	if !coll.Valid() {
		return nil, fmt.Errorf("%w: collection %q", ledger.ErrInvalidPath, coll)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	var out []json.RawMessage
	for _, raw := range u.docs[coll] {
		match, err := ledger.MatchField(raw, field, value)
		if err != nil {
			return nil, err
		}
		if match {
			cp := make(json.RawMessage, len(raw))
			copy(cp, raw)
			out = append(out, cp)
		}
	}
	return out, nil
}

// Revision returns the user's current revision; unknown users are at 0.
func (s *Store) Revision(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return u.revision, nil
	}
	return 0, nil
}

// RunTransaction runs fn under optimistic concurrency.
func (s *Store) RunTransaction(ctx context.Context, userID string, fn func(*ledger.Tree) error) error {
	return ledger.RunOptimistic(ctx, s.policy, userID, s, fn)
}

// Snapshot implements ledger.Committer.
func (s *Store) Snapshot(ctx context.Context, userID string) (int64, ledger.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, ledger.Snapshot{}, nil
	}
	return u.revision, u.docs.Clone(), nil
}

// CommitIfUnchanged implements ledger.Committer.
func (s *Store) CommitIfUnchanged(ctx context.Context, userID string, base int64, writes []ledger.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	if u.revision != base {
		return ledger.ErrConflict
	}
	for _, w := range writes {
		u.apply(w)
	}
	u.revision++
	return nil
}
