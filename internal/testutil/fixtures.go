package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh user id.
func NewUserID() string {
	return fmt.Sprintf("user-%d", nextID())
}

func put(t *testing.T, store ledger.Store, userID string, coll ledger.Collection, id string, v any) {
	t.Helper()
	raw, err := ledger.Encode(v)
	if err != nil {
		t.Fatalf("failed to encode %s fixture: %v", coll, err)
	}
	if err := store.Set(context.Background(), ledger.Path{UserID: userID, Collection: coll, ID: id}, raw); err != nil {
		t.Fatalf("failed to store %s fixture: %v", coll, err)
	}
}

// CreateTestAccount stores an account with a unique name.
func CreateTestAccount(t *testing.T, store ledger.Store, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountNamed(t, store, userID, fmt.Sprintf("Account %d", nextID()))
}

// CreateTestAccountNamed stores an account with the given name.
func CreateTestAccountNamed(t *testing.T, store ledger.Store, userID, name string) *models.Account {
	t.Helper()
	account := &models.Account{Name: name, ColorTag: models.ColorBank}
	account.PrepareCreate(time.Now())
	put(t, store, userID, ledger.Accounts, account.ID, account)
	return account
}

// CreateTestCategory stores a category.
func CreateTestCategory(t *testing.T, store ledger.Store, userID, name string, isIncome bool) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, IconID: "ic_more", IsIncome: isIncome}
	category.PrepareCreate(time.Now())
	put(t, store, userID, ledger.Categories, category.ID, category)
	return category
}

// CreateTestTransaction stores a transaction dated at date. The account's
// goals are not recomputed.
func CreateTestTransaction(t *testing.T, store ledger.Store, userID, accountID, categoryID string, amount int64, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: fmt.Sprintf("Transaction %d", nextID()),
		Date:        date,
	}
	tx.PrepareCreate(time.Now())
	put(t, store, userID, ledger.Transactions, tx.ID, tx)
	return tx
}

// CreateTestGoal stores a goal with zero progress.
func CreateTestGoal(t *testing.T, store ledger.Store, userID, accountID string, kind models.GoalKind, target int64, period string) *models.Goal {
	t.Helper()
	goal := &models.Goal{
		Name:         fmt.Sprintf("Goal %d", nextID()),
		TargetAmount: target,
		AccountID:    accountID,
		Kind:         kind,
		Period:       period,
	}
	goal.PrepareCreate(time.Now())
	put(t, store, userID, ledger.Goals, goal.ID, goal)
	return goal
}

// GetGoal reads a goal straight from the store.
func GetGoal(t *testing.T, store ledger.Store, userID, goalID string) *models.Goal {
	t.Helper()
	raw, err := store.Get(context.Background(), ledger.Path{UserID: userID, Collection: ledger.Goals, ID: goalID})
	if err != nil {
		t.Fatalf("failed to load goal %s: %v", goalID, err)
	}
	goal, err := ledger.Decode[models.Goal](raw)
	if err != nil {
		t.Fatalf("failed to decode goal %s: %v", goalID, err)
	}
	return goal
}

// CountRecords returns how many records the user has in coll.
func CountRecords(t *testing.T, store ledger.Store, userID string, coll ledger.Collection) int {
	t.Helper()
	raws, err := store.List(context.Background(), userID, coll)
	if err != nil {
		t.Fatalf("failed to list %s: %v", coll, err)
	}
	return len(raws)
}
