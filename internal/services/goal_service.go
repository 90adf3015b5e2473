package services

import (
	"context"
	"sort"
	"strings"
	"time"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

// Achievement scoring.
const (
	pointsPerGoal      = 25
	pointsPerBonusGoal = 50
	silverTierPoints   = 200
	goldTierPoints     = 300
)

// Achievement tiers.
const (
	TierBronze = "Bronze"
	TierSilver = "Silver"
	TierGold   = "Gold"
)

// PeriodTotals are the in-period inflow and outflow of one account, in
// cents. Expenses is an absolute value.
type PeriodTotals struct {
	Income   int64
	Expenses int64
}

// PeriodTotalsFor sums the transactions dated in period, evaluated in loc.
func PeriodTotalsFor(txs []models.Transaction, period string, loc *time.Location) PeriodTotals {
	var t PeriodTotals
	for _, tx := range txs {
		if models.PeriodOf(tx.Date.In(loc)) != period {
			continue
		}
		switch {
		case tx.Amount > 0:
			t.Income += tx.Amount
		case tx.Amount < 0:
			t.Expenses += -tx.Amount
		}
	}
	return t
}

// EvaluateGoal returns goal with CurrentAmount and Completed derived from
// totals. Spending goals count as completed while under target and can flip
// back as expenses are logged; savings goals complete once income reaches
// the target.
func EvaluateGoal(goal models.Goal, totals PeriodTotals) models.Goal {
	switch goal.Kind {
	case models.GoalKindSpending:
		goal.CurrentAmount = totals.Expenses
		goal.Completed = goal.CurrentAmount < goal.TargetAmount
	case models.GoalKindSavings:
		goal.CurrentAmount = totals.Income
		goal.Completed = goal.CurrentAmount >= goal.TargetAmount
	}
	return goal
}

// ComputeAchievements scores completed goals.
func ComputeAchievements(goals []models.Goal) Achievements {
	a := Achievements{BonusGoalNames: []string{}}
	for _, g := range goals {
		if g.IsBonus {
			a.BonusGoalNames = append(a.BonusGoalNames, g.Name)
		}
		if !g.Completed {
			continue
		}
		a.CompletedGoals++
		if g.IsBonus {
			a.CompletedBonusGoals++
		}
	}
	a.Points = a.CompletedGoals*pointsPerGoal + a.CompletedBonusGoals*pointsPerBonusGoal

	switch {
	case a.Points >= goldTierPoints:
		a.Tier = TierGold
	case a.Points >= silverTierPoints:
		a.Tier = TierSilver
	default:
		a.Tier = TierBronze
	}
	return a
}

// goalService handles goal-related business logic and keeps goal progress
// in step with the ledger.
type goalService struct {
	store ledger.Store
	opts  options
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(store ledger.Store, opts ...Option) GoalServicer {
	return &goalService{store: store, opts: newOptions(opts)}
}

// RecomputeGoalsForAccount refreshes every current-period goal on the
// account from the account's current-period transactions and writes the
// changed goals back in one batch.
func (s *goalService) RecomputeGoalsForAccount(ctx context.Context, userID, accountID string) error {
	now := s.opts.now()
	period := models.PeriodOf(now)

	goals, err := queryRecords[models.Goal](ctx, s.store, userID, ledger.Goals, "account_id", accountID)
	if err != nil {
		return err
	}
	var current []models.Goal
	for _, g := range goals {
		if g.Period == period {
			current = append(current, g)
		}
	}
	if len(current) == 0 {
		return nil
	}

	txs, err := queryRecords[models.Transaction](ctx, s.store, userID, ledger.Transactions, "account_id", accountID)
	if err != nil {
		return err
	}
	totals := PeriodTotalsFor(txs, period, now.Location())

	var writes []ledger.Write
	for _, g := range current {
		updated := EvaluateGoal(g, totals)
		if updated.CurrentAmount == g.CurrentAmount && updated.Completed == g.Completed {
			continue
		}
		updated.Touch(now)
		raw, err := ledger.Encode(updated)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		writes = append(writes, ledger.Write{
			Path: ledger.Path{UserID: userID, Collection: ledger.Goals, ID: updated.ID},
			Data: raw,
		})
	}
	if len(writes) == 0 {
		return nil
	}

	if err := s.store.UpdateMulti(ctx, userID, writes); err != nil {
		return storeError(err)
	}
	s.opts.log.Debugw("goals recomputed",
		"user_id", userID,
		"account_id", accountID,
		"period", period,
		"updated", len(writes),
	)
	return nil
}

func (s *goalService) validateInput(in *GoalInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Goal name is required")
	}
	if in.TargetAmount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Target amount must be greater than zero")
	}
	if in.AccountID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Account is required")
	}
	if !in.Kind.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Goal kind must be SPENDING or SAVINGS")
	}
	if in.Period == "" {
		in.Period = models.PeriodOf(s.opts.now())
	}
	if !models.ValidPeriod(in.Period) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Period must be formatted as YYYY-MM")
	}
	return nil
}

// evaluateInTree derives a goal's progress from the transactions visible in
// the transaction attempt. Goals outside the current period keep whatever
// progress they last had.
func (s *goalService) evaluateInTree(tree *ledger.Tree, goal models.Goal, now time.Time) (models.Goal, error) {
	if goal.Period != models.PeriodOf(now) {
		return goal, nil
	}
	txs, err := treeList[models.Transaction](tree, ledger.Transactions)
	if err != nil {
		return goal, err
	}
	return EvaluateGoal(goal, PeriodTotalsFor(filterByAccount(txs, goal.AccountID), goal.Period, now.Location())), nil
}

// checkBonusCap rejects flagging another bonus goal when the user already
// has MaxBonusGoals of them. excludeID is the goal being edited.
func checkBonusCap(tree *ledger.Tree, excludeID string) error {
	goals, err := treeList[models.Goal](tree, ledger.Goals)
	if err != nil {
		return err
	}
	count := 0
	for _, g := range goals {
		if g.IsBonus && g.ID != excludeID {
			count++
		}
	}
	if count >= models.MaxBonusGoals {
		return apperrors.ErrBonusGoalLimit
	}
	return nil
}

// AddGoal creates a goal. The bonus cap and the account check run inside
// one optimistic transaction so concurrent edits cannot both pass.
func (s *goalService) AddGoal(ctx context.Context, userID string, in GoalInput) (*models.Goal, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	now := s.opts.now()
	goal := models.Goal{
		Name:         in.Name,
		Description:  in.Description,
		TargetAmount: in.TargetAmount,
		AccountID:    in.AccountID,
		Kind:         in.Kind,
		Period:       in.Period,
		IsBonus:      in.IsBonus,
	}
	goal.PrepareCreate(now)

	var created models.Goal
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		if _, ok := tree.Get(ledger.Accounts, in.AccountID); !ok {
			return apperrors.ErrAccountNotFound
		}
		if in.IsBonus {
			if err := checkBonusCap(tree, ""); err != nil {
				return err
			}
		}
		evaluated, err := s.evaluateInTree(tree, goal, now)
		if err != nil {
			return err
		}
		created = evaluated
		return treePut(tree, ledger.Goals, created.ID, created)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &created, nil
}

// GetAllGoals returns every goal for the user, newest period first.
func (s *goalService) GetAllGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	goals, err := listRecords[models.Goal](ctx, s.store, userID, ledger.Goals)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(goals, func(i, j int) bool {
		if goals[i].Period != goals[j].Period {
			return goals[i].Period > goals[j].Period
		}
		return goals[i].Name < goals[j].Name
	})
	return goals, nil
}

// GetGoalByID returns one goal.
func (s *goalService) GetGoalByID(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	return getRecord[models.Goal](ctx, s.store, userID, ledger.Goals, goalID, apperrors.ErrGoalNotFound)
}

// UpdateGoal replaces the user-editable fields of a goal. Derived progress
// is never taken from the caller; it is re-derived in the same transaction.
func (s *goalService) UpdateGoal(ctx context.Context, userID, goalID string, in GoalInput) (*models.Goal, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	now := s.opts.now()
	var updated models.Goal
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		existing, err := treeGet[models.Goal](tree, ledger.Goals, goalID, apperrors.ErrGoalNotFound)
		if err != nil {
			return err
		}
		if _, ok := tree.Get(ledger.Accounts, in.AccountID); !ok {
			return apperrors.ErrAccountNotFound
		}
		if in.IsBonus && !existing.IsBonus {
			if err := checkBonusCap(tree, existing.ID); err != nil {
				return err
			}
		}

		g := *existing
		g.Name = in.Name
		g.Description = in.Description
		g.TargetAmount = in.TargetAmount
		g.AccountID = in.AccountID
		g.Kind = in.Kind
		g.Period = in.Period
		g.IsBonus = in.IsBonus
		g.Touch(now)

		evaluated, err := s.evaluateInTree(tree, g, now)
		if err != nil {
			return err
		}
		updated = evaluated
		return treePut(tree, ledger.Goals, updated.ID, updated)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &updated, nil
}

// DeleteGoal removes a goal.
func (s *goalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if _, err := s.GetGoalByID(ctx, userID, goalID); err != nil {
		return err
	}
	return storeError(s.store.Delete(ctx, ledger.Path{UserID: userID, Collection: ledger.Goals, ID: goalID}))
}

// GetAchievements scores the user's completed goals.
func (s *goalService) GetAchievements(ctx context.Context, userID string) (*Achievements, error) {
	goals, err := s.GetAllGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	a := ComputeAchievements(goals)
	return &a, nil
}
