package services

import (
	"testing"
	"time"

	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
	"pocketledger/internal/testutil"
)

func TestEvaluateGoal(t *testing.T) {
	tests := []struct {
		name          string
		kind          models.GoalKind
		totals        PeriodTotals
		wantCurrent   int64
		wantCompleted bool
	}{
		{"spending_under_target", models.GoalKindSpending, PeriodTotals{Expenses: 75000}, 75000, true},
		{"spending_at_target", models.GoalKindSpending, PeriodTotals{Expenses: 80000}, 80000, false},
		{"spending_over_target", models.GoalKindSpending, PeriodTotals{Expenses: 85000}, 85000, false},
		{"spending_ignores_income", models.GoalKindSpending, PeriodTotals{Income: 99999}, 0, true},
		{"savings_below_target", models.GoalKindSavings, PeriodTotals{Income: 79999}, 79999, false},
		{"savings_at_target", models.GoalKindSavings, PeriodTotals{Income: 80000}, 80000, true},
		{"savings_ignores_expenses", models.GoalKindSavings, PeriodTotals{Expenses: 80000}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := models.Goal{Kind: tt.kind, TargetAmount: 80000}
			got := EvaluateGoal(goal, tt.totals)
			if got.CurrentAmount != tt.wantCurrent {
				t.Errorf("expected current %d, got %d", tt.wantCurrent, got.CurrentAmount)
			}
			if got.Completed != tt.wantCompleted {
				t.Errorf("expected completed %v, got %v", tt.wantCompleted, got.Completed)
			}
		})
	}
}

func TestPeriodTotalsFor(t *testing.T) {
	in := []models.Transaction{
		{Amount: 10000, Date: testNow},
		{Amount: -2500, Date: testNow},
		{Amount: -9999, Date: testNow.AddDate(0, -1, 0)},
		{Amount: 5000, Date: time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)},
	}
	got := PeriodTotalsFor(in, testPeriod, time.UTC)
	if got.Income != 10000 || got.Expenses != 2500 {
		t.Errorf("expected income 10000 expenses 2500, got %+v", got)
	}
}

func TestRecomputeGoalsForAccount(t *testing.T) {
	t.Run("spending_goal_tracks_expenses", func(t *testing.T) {
		env := newTestEnv(t)
		account := env.account(t, "Bank")
		goal := testutil.CreateTestGoal(t, env.store, env.userID, account.ID, models.GoalKindSpending, 80000, testPeriod)

		env.addTx(t, account.ID, -75000)
		got := testutil.GetGoal(t, env.store, env.userID, goal.ID)
		if got.CurrentAmount != 75000 || !got.Completed {
			t.Fatalf("expected 75000 and completed, got %d %v", got.CurrentAmount, got.Completed)
		}

		env.addTx(t, account.ID, -10000)
		got = testutil.GetGoal(t, env.store, env.userID, goal.ID)
		if got.CurrentAmount != 85000 || got.Completed {
			t.Fatalf("expected 85000 and not completed, got %d %v", got.CurrentAmount, got.Completed)
		}
	})

	t.Run("savings_goal_tracks_income", func(t *testing.T) {
		env := newTestEnv(t)
		account := env.account(t, "Savings")
		goal := testutil.CreateTestGoal(t, env.store, env.userID, account.ID, models.GoalKindSavings, 150000, testPeriod)

		env.addTx(t, account.ID, 100000)
		env.addTx(t, account.ID, -20000)
		got := testutil.GetGoal(t, env.store, env.userID, goal.ID)
		if got.CurrentAmount != 100000 || got.Completed {
			t.Fatalf("expected 100000 and not completed, got %d %v", got.CurrentAmount, got.Completed)
		}

		env.addTx(t, account.ID, 50000)
		got = testutil.GetGoal(t, env.store, env.userID, goal.ID)
		if got.CurrentAmount != 150000 || !got.Completed {
			t.Fatalf("expected 150000 and completed, got %d %v", got.CurrentAmount, got.Completed)
		}
	})

	t.Run("ignores_other_periods_and_accounts", func(t *testing.T) {
		env := newTestEnv(t)
		bank := env.account(t, "Bank")
		other := env.account(t, "Other")
		current := testutil.CreateTestGoal(t, env.store, env.userID, bank.ID, models.GoalKindSpending, 80000, testPeriod)
		past := testutil.CreateTestGoal(t, env.store, env.userID, bank.ID, models.GoalKindSpending, 80000, "2026-09")

		testutil.CreateTestTransaction(t, env.store, env.userID, bank.ID, env.expense.ID, -4000, testNow.AddDate(0, -1, 0))
		testutil.CreateTestTransaction(t, env.store, env.userID, other.ID, env.expense.ID, -7000, testNow)
		testutil.CreateTestTransaction(t, env.store, env.userID, bank.ID, env.expense.ID, -1000, testNow)

		testutil.AssertNoError(t, env.facade.Goals.RecomputeGoalsForAccount(testContext(t), env.userID, bank.ID))

		if got := testutil.GetGoal(t, env.store, env.userID, current.ID); got.CurrentAmount != 1000 {
			t.Errorf("expected current-period goal at 1000, got %d", got.CurrentAmount)
		}
		if got := testutil.GetGoal(t, env.store, env.userID, past.ID); got.CurrentAmount != 0 {
			t.Errorf("past-period goal should be untouched, got %d", got.CurrentAmount)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		env := newTestEnv(t)
		account := env.account(t, "Bank")
		goal := testutil.CreateTestGoal(t, env.store, env.userID, account.ID, models.GoalKindSpending, 80000, testPeriod)
		testutil.CreateTestTransaction(t, env.store, env.userID, account.ID, env.expense.ID, -3000, testNow)

		testutil.AssertNoError(t, env.facade.Goals.RecomputeGoalsForAccount(testContext(t), env.userID, account.ID))
		first := testutil.GetGoal(t, env.store, env.userID, goal.ID)
		rev := env.revision(t)

		testutil.AssertNoError(t, env.facade.Goals.RecomputeGoalsForAccount(testContext(t), env.userID, account.ID))
		second := testutil.GetGoal(t, env.store, env.userID, goal.ID)

		if first.CurrentAmount != second.CurrentAmount || first.Completed != second.Completed {
			t.Errorf("expected identical results, got %+v then %+v", first, second)
		}
		if env.revision(t) != rev {
			t.Error("a second pass with nothing to change should not write")
		}
	})

	t.Run("no_goals_is_noop", func(t *testing.T) {
		env := newTestEnv(t)
		account := env.account(t, "Bank")
		rev := env.revision(t)

		testutil.AssertNoError(t, env.facade.Goals.RecomputeGoalsForAccount(testContext(t), env.userID, account.ID))
		if env.revision(t) != rev {
			t.Error("expected no writes")
		}
	})
}

func goalInput(accountID string, kind models.GoalKind, bonus bool) GoalInput {
	return GoalInput{
		Name:         "Goal",
		TargetAmount: 50000,
		AccountID:    accountID,
		Kind:         kind,
		IsBonus:      bonus,
	}
}

func TestAddGoal(t *testing.T) {
	t.Run("defaults_to_current_period_and_evaluates", func(t *testing.T) {
		env := newTestEnv(t)
		account := env.account(t, "Bank")
		testutil.CreateTestTransaction(t, env.store, env.userID, account.ID, env.income.ID, 60000, testNow)

		goal, err := env.facade.Goals.AddGoal(testContext(t), env.userID, goalInput(account.ID, models.GoalKindSavings, false))
		testutil.AssertNoError(t, err)

		if goal.Period != testPeriod {
			t.Errorf("expected period %s, got %s", testPeriod, goal.Period)
		}
		if goal.CurrentAmount != 60000 || !goal.Completed {
			t.Errorf("expected 60000 and completed, got %d %v", goal.CurrentAmount, goal.Completed)
		}
	})

	t.Run("bonus_cap", func(t *testing.T) {
		env := newTestEnv(t)
		account := env.account(t, "Bank")

		for i := 0; i < models.MaxBonusGoals; i++ {
			_, err := env.facade.Goals.AddGoal(testContext(t), env.userID, goalInput(account.ID, models.GoalKindSpending, true))
			testutil.AssertNoError(t, err)
		}
		_, err := env.facade.Goals.AddGoal(testContext(t), env.userID, goalInput(account.ID, models.GoalKindSpending, true))
		testutil.AssertAppError(t, err, "BONUS_GOAL_LIMIT")

		_, err = env.facade.Goals.AddGoal(testContext(t), env.userID, goalInput(account.ID, models.GoalKindSpending, false))
		testutil.AssertNoError(t, err)

		if n := testutil.CountRecords(t, env.store, env.userID, ledger.Goals); n != 3 {
			t.Errorf("expected 3 goals, got %d", n)
		}
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		account := env.account(t, "Bank")

		tests := []struct {
			name   string
			mutate func(*GoalInput)
			code   string
		}{
			{"empty_name", func(in *GoalInput) { in.Name = " " }, "INVALID_INPUT"},
			{"zero_target", func(in *GoalInput) { in.TargetAmount = 0 }, "INVALID_INPUT"},
			{"bad_kind", func(in *GoalInput) { in.Kind = "WISHFUL" }, "INVALID_INPUT"},
			{"bad_period", func(in *GoalInput) { in.Period = "2026-13" }, "INVALID_INPUT"},
			{"unknown_account", func(in *GoalInput) { in.AccountID = "missing" }, "ACCOUNT_NOT_FOUND"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := goalInput(account.ID, models.GoalKindSpending, false)
				tt.mutate(&in)
				_, err := env.facade.Goals.AddGoal(testContext(t), env.userID, in)
				testutil.AssertAppError(t, err, tt.code)
			})
		}
	})
}

func TestUpdateGoal(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, "Bank")

	a, err := env.facade.Goals.AddGoal(testContext(t), env.userID, goalInput(account.ID, models.GoalKindSpending, true))
	testutil.AssertNoError(t, err)
	b, err := env.facade.Goals.AddGoal(testContext(t), env.userID, goalInput(account.ID, models.GoalKindSpending, true))
	testutil.AssertNoError(t, err)
	c, err := env.facade.Goals.AddGoal(testContext(t), env.userID, goalInput(account.ID, models.GoalKindSpending, false))
	testutil.AssertNoError(t, err)

	// Re-saving an existing bonus goal does not count against the cap.
	in := goalInput(account.ID, models.GoalKindSpending, true)
	in.Name = "Renamed"
	updated, err := env.facade.Goals.UpdateGoal(testContext(t), env.userID, a.ID, in)
	testutil.AssertNoError(t, err)
	if updated.Name != "Renamed" || !updated.IsBonus {
		t.Errorf("unexpected update result: %+v", updated)
	}

	_, err = env.facade.Goals.UpdateGoal(testContext(t), env.userID, c.ID, goalInput(account.ID, models.GoalKindSpending, true))
	testutil.AssertAppError(t, err, "BONUS_GOAL_LIMIT")

	_, err = env.facade.Goals.UpdateGoal(testContext(t), env.userID, b.ID, goalInput(account.ID, models.GoalKindSpending, false))
	testutil.AssertNoError(t, err)
	_, err = env.facade.Goals.UpdateGoal(testContext(t), env.userID, c.ID, goalInput(account.ID, models.GoalKindSpending, true))
	testutil.AssertNoError(t, err)

	_, err = env.facade.Goals.UpdateGoal(testContext(t), env.userID, "missing", goalInput(account.ID, models.GoalKindSpending, false))
	testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
}

func TestDeleteGoal(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, "Bank")
	goal := testutil.CreateTestGoal(t, env.store, env.userID, account.ID, models.GoalKindSpending, 80000, testPeriod)

	testutil.AssertNoError(t, env.facade.Goals.DeleteGoal(testContext(t), env.userID, goal.ID))
	_, err := env.facade.Goals.GetGoalByID(testContext(t), env.userID, goal.ID)
	testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")

	err = env.facade.Goals.DeleteGoal(testContext(t), env.userID, goal.ID)
	testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
}

func TestComputeAchievements(t *testing.T) {
	completed := func(n int, bonus bool) []models.Goal {
		out := make([]models.Goal, n)
		for i := range out {
			out[i] = models.Goal{Name: "g", Completed: true, IsBonus: bonus}
		}
		return out
	}

	tests := []struct {
		name       string
		goals      []models.Goal
		wantPoints int
		wantTier   string
	}{
		{"none", nil, 0, TierBronze},
		{"plain_goals", completed(7, false), 175, TierBronze},
		{"silver", completed(8, false), 200, TierSilver},
		{"bonus_counts_extra", append(completed(10, false), completed(1, true)...), 325, TierGold},
		{"incomplete_ignored", []models.Goal{{Name: "x", IsBonus: true}}, 0, TierBronze},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAchievements(tt.goals)
			if got.Points != tt.wantPoints {
				t.Errorf("expected %d points, got %d", tt.wantPoints, got.Points)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("expected tier %s, got %s", tt.wantTier, got.Tier)
			}
		})
	}

	got := ComputeAchievements([]models.Goal{{Name: "Bonus", IsBonus: true}})
	if len(got.BonusGoalNames) != 1 || got.BonusGoalNames[0] != "Bonus" {
		t.Errorf("expected bonus goal names [Bonus], got %v", got.BonusGoalNames)
	}
}
