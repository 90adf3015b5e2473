package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"pocketledger/internal/logger"
)

// RetryPolicy bounds how often a conflicting transaction is re-run.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy allows 25 attempts with a short jittered backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 25,
		BaseDelay:   2 * time.Millisecond,
		MaxDelay:    100 * time.Millisecond,
	}
}

// WithMaxAttempts returns a copy of p with the attempt budget replaced.
func (p RetryPolicy) WithMaxAttempts(n int) RetryPolicy {
	if n > 0 {
		p.MaxAttempts = n
	}
	return p
}

// backoff returns a jittered delay for the given attempt (1-based).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << min(attempt-1, 16)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d/2 + time.Duration(rand.Int63n(int64(d/2+1)))
}

// Committer is the backend half of an optimistic transaction.
type Committer interface {
	// Snapshot returns the user's revision and a private copy of the
	// subtree that is at least as new as that revision.
	Snapshot(ctx context.Context, userID string) (int64, Snapshot, error)
	// CommitIfUnchanged applies writes only if the revision still equals
	// base, returning ErrConflict otherwise.
	CommitIfUnchanged(ctx context.Context, userID string, base int64, writes []Write) error
}

// RunOptimistic drives the snapshot, attempt, commit loop shared by every
// backend.
func RunOptimistic(ctx context.Context, policy RetryPolicy, userID string, c Committer, fn func(*Tree) error) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidPath)
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rev, snap, err := c.Snapshot(ctx, userID)
		if err != nil {
			return err
		}

		tree := NewTree(userID, rev, snap)
		if err := fn(tree); err != nil {
			return err
		}

		writes := tree.Writes()
		if len(writes) == 0 {
			return nil
		}

		err = c.CommitIfUnchanged(ctx, userID, rev, writes)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}

		logger.Get().Debugw("ledger transaction conflict, retrying",
			"user_id", userID,
			"attempt", attempt,
			"base_revision", rev,
		)

		if attempt == attempts {
			break
		}
		timer := time.NewTimer(policy.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, attempts)
}
