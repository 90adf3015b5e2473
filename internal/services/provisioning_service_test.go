package services

import (
	"testing"

	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
	"pocketledger/internal/testutil"
)

func TestProvisionDefaultData(t *testing.T) {
	for name, newStore := range testutil.StoreFactories() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			facade := NewFacade(store, testClock())
			userID := testutil.NewUserID()

			result, err := facade.Provisioning.ProvisionDefaultData(testContext(t), userID)
			testutil.AssertNoError(t, err)
			if *result != (ProvisionResult{AccountsCreated: 2, CategoriesCreated: 10, GoalsCreated: 2}) {
				t.Errorf("unexpected first run result: %+v", result)
			}

			accounts, err := facade.Accounts.GetUserAccounts(testContext(t), userID)
			testutil.AssertNoError(t, err)
			colors := map[string]string{}
			for _, a := range accounts {
				colors[a.Name] = a.ColorTag
			}
			if colors["Bank"] != models.ColorBank || colors["Savings"] != models.ColorSavings {
				t.Errorf("unexpected default accounts: %v", colors)
			}

			goals, err := facade.Goals.GetAllGoals(testContext(t), userID)
			testutil.AssertNoError(t, err)
			for _, g := range goals {
				if g.Period != testPeriod {
					t.Errorf("goal %q should be in the current period, got %s", g.Name, g.Period)
				}
				if g.Name == "Buy Groceries" && (g.Kind != models.GoalKindSpending || g.TargetAmount != 80000 || !g.Completed) {
					t.Errorf("unexpected groceries goal: %+v", g)
				}
				if g.Name == "Save Money" && (g.Kind != models.GoalKindSavings || g.TargetAmount != 150000 || g.Completed) {
					t.Errorf("unexpected savings goal: %+v", g)
				}
			}

			rev, err := store.Revision(testContext(t), userID)
			testutil.AssertNoError(t, err)

			again, err := facade.Provisioning.ProvisionDefaultData(testContext(t), userID)
			testutil.AssertNoError(t, err)
			if *again != (ProvisionResult{}) {
				t.Errorf("second run should create nothing, got %+v", again)
			}
			if after, _ := store.Revision(testContext(t), userID); after != rev {
				t.Error("second run should not write")
			}
			if n := testutil.CountRecords(t, store, userID, ledger.Categories); n != 10 {
				t.Errorf("expected 10 categories, got %d", n)
			}
		})
	}
}

func TestProvisionDefaultData_FillsGaps(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "Bank")

	result, err := env.facade.Provisioning.ProvisionDefaultData(testContext(t), env.userID)
	testutil.AssertNoError(t, err)

	// Groceries (expense) and Salary (income) already exist.
	if result.AccountsCreated != 1 || result.CategoriesCreated != 8 || result.GoalsCreated != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestDeleteUserData(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.facade.Provisioning.ProvisionDefaultData(testContext(t), env.userID)
	testutil.AssertNoError(t, err)
	extra := testutil.CreateTestAccountNamed(t, env.store, env.userID, "Extra")
	env.addTx(t, extra.ID, 500)

	other := testutil.NewUserID()
	kept := testutil.CreateTestAccount(t, env.store, other)

	result, err := env.facade.Provisioning.DeleteUserData(testContext(t), env.userID)
	testutil.AssertNoError(t, err)

	// Two default categories come from newTestEnv, so only eight are added.
	if result.AccountsDeleted != 3 || result.TransactionsDeleted != 1 || result.CategoriesDeleted != 10 || result.GoalsDeleted != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	for _, coll := range ledger.Collections {
		if n := testutil.CountRecords(t, env.store, env.userID, coll); n != 0 {
			t.Errorf("expected no %s left, got %d", coll, n)
		}
	}
	if _, err := env.facade.Accounts.GetAccountByID(testContext(t), other, kept.ID); err != nil {
		t.Errorf("other users must be untouched, got %v", err)
	}

	again, err := env.facade.Provisioning.DeleteUserData(testContext(t), env.userID)
	testutil.AssertNoError(t, err)
	if *again != (DeletionResult{}) {
		t.Errorf("expected zero counts on an empty subtree, got %+v", again)
	}
}
