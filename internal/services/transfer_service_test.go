package services

import (
	"errors"
	"sync"
	"testing"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
	"pocketledger/internal/testutil"
)

func TestTransferFunds(t *testing.T) {
	for name, newStore := range testutil.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnvWithStore(t, newStore(t))
			transfer := testutil.CreateTestCategory(t, env.store, env.userID, models.TransferCategoryName, true)
			from := env.account(t, "Bank")
			to := env.account(t, "Savings")
			env.addTx(t, from.ID, 10000)

			result, err := env.facade.Transfers.TransferFunds(testContext(t), env.userID, from.ID, to.ID, 4000)
			testutil.AssertNoError(t, err)

			if result.ExpenseLeg.Amount != -4000 || result.IncomeLeg.Amount != 4000 {
				t.Errorf("expected legs -4000/+4000, got %d/%d", result.ExpenseLeg.Amount, result.IncomeLeg.Amount)
			}
			if result.ExpenseLeg.Description != "Transfer to Savings" {
				t.Errorf("unexpected expense description %q", result.ExpenseLeg.Description)
			}
			if result.IncomeLeg.Description != "Transfer from Bank" {
				t.Errorf("unexpected income description %q", result.IncomeLeg.Description)
			}
			if result.ExpenseLeg.CategoryID != transfer.ID || result.IncomeLeg.CategoryID != transfer.ID {
				t.Error("both legs should use the Transfer category")
			}
			if !result.ExpenseLeg.Date.Equal(testNow) || !result.IncomeLeg.Date.Equal(testNow) {
				t.Error("both legs should be dated now")
			}

			if got := env.balance(t, from.ID); got != 6000 {
				t.Errorf("expected source balance 6000, got %d", got)
			}
			if got := env.balance(t, to.ID); got != 4000 {
				t.Errorf("expected destination balance 4000, got %d", got)
			}
		})
	}
}

func TestTransferFunds_Rejections(t *testing.T) {
	env := newTestEnv(t)
	from := env.account(t, "Bank")
	to := env.account(t, "Savings")
	env.addTx(t, from.ID, 5000)

	tests := []struct {
		name   string
		from   string
		to     string
		amount int64
		code   string
	}{
		{"zero_amount", from.ID, to.ID, 0, "INVALID_INPUT"},
		{"negative_amount", from.ID, to.ID, -100, "INVALID_INPUT"},
		{"same_account", from.ID, from.ID, 100, "SAME_ACCOUNT_TRANSFER"},
		{"unknown_source", "missing", to.ID, 100, "ACCOUNT_NOT_FOUND"},
		{"unknown_destination", from.ID, "missing", 100, "ACCOUNT_NOT_FOUND"},
		{"insufficient_funds", from.ID, to.ID, 5001, "INSUFFICIENT_FUNDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev := env.revision(t)
			txCount := testutil.CountRecords(t, env.store, env.userID, ledger.Transactions)

			_, err := env.facade.Transfers.TransferFunds(testContext(t), env.userID, tt.from, tt.to, tt.amount)
			testutil.AssertAppError(t, err, tt.code)

			if env.revision(t) != rev {
				t.Error("a rejected transfer must not write")
			}
			if n := testutil.CountRecords(t, env.store, env.userID, ledger.Transactions); n != txCount {
				t.Errorf("expected %d transactions, got %d", txCount, n)
			}
		})
	}

	if got := env.balance(t, from.ID); got != 5000 {
		t.Errorf("expected source balance unchanged at 5000, got %d", got)
	}
}

func TestTransferFunds_FallbackCategory(t *testing.T) {
	env := newTestEnv(t)
	from := env.account(t, "Bank")
	to := env.account(t, "Savings")
	env.addTx(t, from.ID, 1000)

	result, err := env.facade.Transfers.TransferFunds(testContext(t), env.userID, from.ID, to.ID, 1000)
	testutil.AssertNoError(t, err)

	if result.ExpenseLeg.CategoryID != models.TransferCategoryFallbackID {
		t.Errorf("expected fallback category, got %q", result.ExpenseLeg.CategoryID)
	}
}

func TestTransferFunds_ConcurrentOverdraw(t *testing.T) {
	for name, newStore := range testutil.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			env := newTestEnvWithStore(t, newStore(t))
			from := env.account(t, "Bank")
			to := env.account(t, "Savings")
			env.addTx(t, from.ID, 10000)

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = env.facade.Transfers.TransferFunds(testContext(t), env.userID, from.ID, to.ID, 6000)
				}(i)
			}
			wg.Wait()

			succeeded, rejected := 0, 0
			for _, err := range errs {
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, apperrors.ErrInsufficientFunds):
					rejected++
				default:
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if succeeded != 1 || rejected != 1 {
				t.Fatalf("expected one success and one rejection, got %d and %d", succeeded, rejected)
			}

			if got := env.balance(t, from.ID); got != 4000 {
				t.Errorf("expected source balance 4000, got %d", got)
			}
			if got := env.balance(t, to.ID); got != 6000 {
				t.Errorf("expected destination balance 6000, got %d", got)
			}
		})
	}
}

func TestTransferFunds_RecomputesBothAccounts(t *testing.T) {
	env := newTestEnv(t)
	from := env.account(t, "Bank")
	to := env.account(t, "Savings")
	env.addTx(t, from.ID, 10000)

	spending := testutil.CreateTestGoal(t, env.store, env.userID, from.ID, models.GoalKindSpending, 5000, testPeriod)
	saving := testutil.CreateTestGoal(t, env.store, env.userID, to.ID, models.GoalKindSavings, 3000, testPeriod)

	_, err := env.facade.Transfers.TransferFunds(testContext(t), env.userID, from.ID, to.ID, 3000)
	testutil.AssertNoError(t, err)

	if got := testutil.GetGoal(t, env.store, env.userID, spending.ID); got.CurrentAmount != 3000 || !got.Completed {
		t.Errorf("expected spending goal at 3000 and completed, got %d %v", got.CurrentAmount, got.Completed)
	}
	if got := testutil.GetGoal(t, env.store, env.userID, saving.ID); got.CurrentAmount != 3000 || !got.Completed {
		t.Errorf("expected savings goal at 3000 and completed, got %d %v", got.CurrentAmount, got.Completed)
	}
}
