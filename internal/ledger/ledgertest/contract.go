// Package ledgertest holds the behavioural suite every ledger.Store backend
// must pass.
package ledgertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketledger/internal/ledger"
)

// Factory builds a fresh, empty store using the given retry policy.
type Factory func(t *testing.T, policy ledger.RetryPolicy) ledger.Store

type counter struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Value int    `json:"value"`
}

func fastPolicy(attempts int) ledger.RetryPolicy {
	return ledger.RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Microsecond, MaxDelay: time.Millisecond}
}

func path(user, id string) ledger.Path {
	return ledger.Path{UserID: user, Collection: ledger.Accounts, ID: id}
}

func mustEncode(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := ledger.Encode(v)
	require.NoError(t, err)
	return raw
}

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("get_missing_returns_not_found", func(t *testing.T) {
		s := newStore(t, fastPolicy(5))
		_, err := s.Get(context.Background(), path("u1", "nope"))
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("set_get_delete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, fastPolicy(5))

		require.NoError(t, s.Set(ctx, path("u1", "a"), mustEncode(t, counter{ID: "a", Value: 7})))
		raw, err := s.Get(ctx, path("u1", "a"))
		require.NoError(t, err)
		got, err := ledger.Decode[counter](raw)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Value)

		_, err = s.Get(ctx, path("u2", "a"))
		assert.ErrorIs(t, err, ledger.ErrNotFound, "subtrees are isolated per user")

		require.NoError(t, s.Delete(ctx, path("u1", "a")))
		_, err = s.Get(ctx, path("u1", "a"))
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("invalid_path_rejected", func(t *testing.T) {
		s := newStore(t, fastPolicy(5))
		err := s.Set(context.Background(), ledger.Path{UserID: "u1", Collection: "bogus", ID: "x"}, json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ledger.ErrInvalidPath)
	})

	t.Run("every_write_bumps_revision", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, fastPolicy(5))

		rev0, err := s.Revision(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), rev0)

		require.NoError(t, s.Set(ctx, path("u1", "a"), mustEncode(t, counter{ID: "a"})))
		require.NoError(t, s.UpdateMulti(ctx, "u1", []ledger.Write{
			{Path: path("u1", "b"), Data: mustEncode(t, counter{ID: "b"})},
			{Path: path("u1", "c"), Data: mustEncode(t, counter{ID: "c"})},
		}))
		rev, err := s.Revision(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), rev, "a batch bumps the revision once")
	})

	t.Run("query_by_field", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, fastPolicy(5))
		require.NoError(t, s.UpdateMulti(ctx, "u1", []ledger.Write{
			{Path: path("u1", "a"), Data: mustEncode(t, counter{ID: "a", Owner: "x", Value: 1})},
			{Path: path("u1", "b"), Data: mustEncode(t, counter{ID: "b", Owner: "y", Value: 2})},
			{Path: path("u1", "c"), Data: mustEncode(t, counter{ID: "c", Owner: "x", Value: 2})},
		}))

		byOwner, err := s.QueryByField(ctx, "u1", ledger.Accounts, "owner", "x")
		require.NoError(t, err)
		assert.Len(t, byOwner, 2)

		byValue, err := s.QueryByField(ctx, "u1", ledger.Accounts, "value", 2)
		require.NoError(t, err)
		assert.Len(t, byValue, 2)

		none, err := s.QueryByField(ctx, "u2", ledger.Accounts, "owner", "x")
		require.NoError(t, err)
		assert.Empty(t, none)

		all, err := s.List(ctx, "u1", ledger.Accounts)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		goals, err := s.List(ctx, "u1", ledger.Goals)
		require.NoError(t, err)
		assert.Empty(t, goals)
	})

	t.Run("transaction_commits_staged_writes", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, fastPolicy(5))
		require.NoError(t, s.Set(ctx, path("u1", "a"), mustEncode(t, counter{ID: "a", Value: 1})))

		err := s.RunTransaction(ctx, "u1", func(tree *ledger.Tree) error {
			c, err := ledger.GetAs[counter](tree, ledger.Accounts, "a")
			if err != nil {
				return err
			}
			c.Value++
			if err := ledger.Put(tree, ledger.Accounts, "a", c); err != nil {
				return err
			}
			return ledger.Put(tree, ledger.Accounts, "b", counter{ID: "b", Value: c.Value})
		})
		require.NoError(t, err)

		raw, err := s.Get(ctx, path("u1", "b"))
		require.NoError(t, err)
		b, err := ledger.Decode[counter](raw)
		require.NoError(t, err)
		assert.Equal(t, 2, b.Value)
	})

	t.Run("transaction_abort_leaves_no_writes", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, fastPolicy(5))
		errBoom := errors.New("boom")

		err := s.RunTransaction(ctx, "u1", func(tree *ledger.Tree) error {
			if err := ledger.Put(tree, ledger.Accounts, "a", counter{ID: "a"}); err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		_, err = s.Get(ctx, path("u1", "a"))
		assert.ErrorIs(t, err, ledger.ErrNotFound)
		rev, err := s.Revision(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), rev)
	})

	t.Run("conflict_is_retried_transparently", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, fastPolicy(5))
		require.NoError(t, s.Set(ctx, path("u1", "a"), mustEncode(t, counter{ID: "a", Value: 10})))

		var attempts atomic.Int32
		err := s.RunTransaction(ctx, "u1", func(tree *ledger.Tree) error {
			n := attempts.Add(1)
			c, err := ledger.GetAs[counter](tree, ledger.Accounts, "a")
			if err != nil {
				return err
			}
			if n == 1 {
				// A concurrent writer lands between snapshot and commit.
				if err := s.Set(ctx, path("u1", "a"), mustEncode(t, counter{ID: "a", Value: 100})); err != nil {
					return err
				}
			}
			c.Value++
			return ledger.Put(tree, ledger.Accounts, "a", c)
		})
		require.NoError(t, err)
		assert.Equal(t, int32(2), attempts.Load())

		raw, err := s.Get(ctx, path("u1", "a"))
		require.NoError(t, err)
		c, err := ledger.Decode[counter](raw)
		require.NoError(t, err)
		assert.Equal(t, 101, c.Value, "retry must see the concurrent write")
	})

	t.Run("retries_exhausted", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, fastPolicy(3))

		var attempts atomic.Int32
		err := s.RunTransaction(ctx, "u1", func(tree *ledger.Tree) error {
			n := attempts.Add(1)
			if err := s.Set(ctx, path("u1", "noise"), mustEncode(t, counter{ID: "noise", Value: int(n)})); err != nil {
				return err
			}
			return ledger.Put(tree, ledger.Accounts, "a", counter{ID: "a"})
		})
		assert.ErrorIs(t, err, ledger.ErrRetriesExhausted)
		assert.Equal(t, int32(3), attempts.Load())

		_, err = s.Get(ctx, path("u1", "a"))
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("cancelled_context", func(t *testing.T) {
		s := newStore(t, fastPolicy(5))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := s.RunTransaction(ctx, "u1", func(*ledger.Tree) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("concurrent_increments_are_serializable", func(t *testing.T) {
		ctx := context.Background()
		const workers = 8
		s := newStore(t, fastPolicy(workers*4))
		require.NoError(t, s.Set(ctx, path("u1", "a"), mustEncode(t, counter{ID: "a"})))

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.RunTransaction(ctx, "u1", func(tree *ledger.Tree) error {
					c, err := ledger.GetAs[counter](tree, ledger.Accounts, "a")
					if err != nil {
						return err
					}
					c.Value++
					return ledger.Put(tree, ledger.Accounts, "a", c)
				})
				if err != nil {
					errs <- fmt.Errorf("worker %d: %w", i, err)
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}

		raw, err := s.Get(ctx, path("u1", "a"))
		require.NoError(t, err)
		c, err := ledger.Decode[counter](raw)
		require.NoError(t, err)
		assert.Equal(t, workers, c.Value)
	})
}
