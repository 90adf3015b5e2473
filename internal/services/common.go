package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/logger"
	"pocketledger/internal/models"
)

// Option configures the services.
type Option func(*options)

type options struct {
	now                func() time.Time
	memo               *BalanceMemo
	transferFallbackID string
	log                *zap.SugaredLogger
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBalanceMemo shares a balance memo between services.
func WithBalanceMemo(m *BalanceMemo) Option {
	return func(o *options) { o.memo = m }
}

// WithTransferFallbackID overrides the category id used when a user has no
// Transfer category.
func WithTransferFallbackID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.transferFallbackID = id
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.log = l }
}

func newOptions(opts []Option) options {
	o := options{
		now:                time.Now,
		transferFallbackID: models.TransferCategoryFallbackID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Named("services")
	}
	return o
}

// storeError maps ledger errors onto AppErrors. AppErrors raised inside a
// transaction attempt pass through unchanged.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ledger.ErrRetriesExhausted):
		return apperrors.Wrap(apperrors.ErrUpdateFailed, err)
	case errors.Is(err, ledger.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrNotFound, err)
	case errors.Is(err, ledger.ErrInvalidPath):
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	default:
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
	}
}

// getRecord loads one record, mapping a missing record to notFound.
func getRecord[T any](ctx context.Context, store ledger.Store, userID string, coll ledger.Collection, id string, notFound *apperrors.AppError) (*T, error) {
	if id == "" {
		return nil, notFound
	}
	raw, err := store.Get(ctx, ledger.Path{UserID: userID, Collection: coll, ID: id})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, notFound
		}
		return nil, storeError(err)
	}
	v, err := ledger.Decode[T](raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return v, nil
}

// listRecords loads a whole collection.
func listRecords[T any](ctx context.Context, store ledger.Store, userID string, coll ledger.Collection) ([]T, error) {
	raws, err := store.List(ctx, userID, coll)
	if err != nil {
		return nil, storeError(err)
	}
	out, err := ledger.DecodeAll[T](raws)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return out, nil
}

// queryRecords loads the records whose field equals value.
func queryRecords[T any](ctx context.Context, store ledger.Store, userID string, coll ledger.Collection, field string, value any) ([]T, error) {
	raws, err := store.QueryByField(ctx, userID, coll, field, value)
	if err != nil {
		return nil, storeError(err)
	}
	out, err := ledger.DecodeAll[T](raws)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return out, nil
}

// putRecord encodes v and writes it outside a transaction.
func putRecord(ctx context.Context, store ledger.Store, userID string, coll ledger.Collection, id string, v any) error {
	raw, err := ledger.Encode(v)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return storeError(store.Set(ctx, ledger.Path{UserID: userID, Collection: coll, ID: id}, raw))
}

// treeGet loads one record inside a transaction attempt.
func treeGet[T any](tree *ledger.Tree, coll ledger.Collection, id string, notFound *apperrors.AppError) (*T, error) {
	if _, ok := tree.Get(coll, id); !ok {
		return nil, notFound
	}
	v, err := ledger.GetAs[T](tree, coll, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return v, nil
}

// treeList loads a collection inside a transaction attempt.
func treeList[T any](tree *ledger.Tree, coll ledger.Collection) ([]T, error) {
	out, err := ledger.ListAs[T](tree, coll)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return out, nil
}

// treePut stages v inside a transaction attempt.
func treePut(tree *ledger.Tree, coll ledger.Collection, id string, v any) error {
	if err := ledger.Put(tree, coll, id, v); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// sortByDateDesc orders transactions newest first, breaking ties by id.
func sortByDateDesc(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
}

// resolveTransferCategoryID returns the id of the user's Transfer category,
// or fallbackID when none exists.
func resolveTransferCategoryID(tree *ledger.Tree, fallbackID string, log *zap.SugaredLogger) (string, error) {
	cats, err := treeList[models.Category](tree, ledger.Categories)
	if err != nil {
		return "", err
	}
	if c, ok := models.FindTransferCategory(cats); ok {
		return c.ID, nil
	}
	log.Warnw("transfer category missing, using fallback id",
		"user_id", tree.UserID(),
		"fallback_id", fallbackID,
	)
	return fallbackID, nil
}

// recomputeAfterMutation refreshes goals for each account once a mutation has
// committed. It runs detached from the caller's cancellation and never fails
// the mutation.
func recomputeAfterMutation(ctx context.Context, goals GoalRecomputer, log *zap.SugaredLogger, userID string, accountIDs ...string) {
	if goals == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	seen := make(map[string]bool, len(accountIDs))
	for _, accountID := range accountIDs {
		if accountID == "" || seen[accountID] {
			continue
		}
		seen[accountID] = true
		if err := goals.RecomputeGoalsForAccount(ctx, userID, accountID); err != nil {
			log.Errorw("goal recomputation failed",
				"error", err,
				"user_id", userID,
				"account_id", accountID,
			)
		}
	}
}
