package services

import (
	"context"
	"strings"

	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

type defaultAccount struct {
	name     string
	colorTag string
}

type defaultCategory struct {
	name     string
	iconID   string
	isIncome bool
}

type defaultGoal struct {
	name        string
	description string
	kind        models.GoalKind
	target      int64
	accountName string
}

var defaultAccounts = []defaultAccount{
	{"Bank", models.ColorBank},
	{"Savings", models.ColorSavings},
}

var defaultCategories = []defaultCategory{
	{"Salary", "ic_dollar", true},
	{"Gift", "ic_present", true},
	{"Investment", "ic_investment", true},
	{"Other", "ic_more", true},
	{models.TransferCategoryName, "ic_transfer", true},
	{"Groceries", "ic_food", false},
	{"Transport", "ic_car", false},
	{"Shopping", "ic_shopping", false},
	{"Bills", "ic_bills", false},
	{"Other", "ic_more", false},
}

var defaultGoals = []defaultGoal{
	{"Save Money", "Save up to R1500", models.GoalKindSavings, 150000, "Savings"},
	{"Buy Groceries", "Buy at least R800 groceries", models.GoalKindSpending, 80000, "Bank"},
}

// provisioningService seeds new users with default data.
type provisioningService struct {
	store ledger.Store
	goals GoalRecomputer
	opts  options
}

// NewProvisioningService creates a new ProvisioningServicer.
func NewProvisioningService(store ledger.Store, goals GoalRecomputer, opts ...Option) ProvisioningServicer {
	return &provisioningService{store: store, goals: goals, opts: newOptions(opts)}
}

// ProvisionDefaultData creates whichever default accounts, categories and
// current-period goals the user does not have yet, in one transaction.
// Records are matched by name, so running it again is a no-op.
func (s *provisioningService) ProvisionDefaultData(ctx context.Context, userID string) (*ProvisionResult, error) {
	var (
		result     ProvisionResult
		accountIDs []string
	)
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		result = ProvisionResult{}
		accountIDs = accountIDs[:0]
		now := s.opts.now()
		period := models.PeriodOf(now)

		accounts, err := treeList[models.Account](tree, ledger.Accounts)
		if err != nil {
			return err
		}
		byName := make(map[string]string, len(accounts))
		for _, a := range accounts {
			byName[strings.ToLower(a.Name)] = a.ID
		}
		for _, d := range defaultAccounts {
			if _, ok := byName[strings.ToLower(d.name)]; ok {
				continue
			}
			a := models.Account{Name: d.name, ColorTag: d.colorTag}
			a.ID = tree.NewID()
			a.PrepareCreate(now)
			if err := treePut(tree, ledger.Accounts, a.ID, a); err != nil {
				return err
			}
			byName[strings.ToLower(d.name)] = a.ID
			result.AccountsCreated++
		}

		cats, err := treeList[models.Category](tree, ledger.Categories)
		if err != nil {
			return err
		}
		hasCategory := func(d defaultCategory) bool {
			for _, c := range cats {
				if !strings.EqualFold(c.Name, d.name) {
					continue
				}
				if d.name == models.TransferCategoryName || c.IsIncome == d.isIncome {
					return true
				}
			}
			return false
		}
		for _, d := range defaultCategories {
			if hasCategory(d) {
				continue
			}
			c := models.Category{Name: d.name, IconID: d.iconID, IsIncome: d.isIncome}
			c.ID = tree.NewID()
			c.PrepareCreate(now)
			if err := treePut(tree, ledger.Categories, c.ID, c); err != nil {
				return err
			}
			result.CategoriesCreated++
		}

		goals, err := treeList[models.Goal](tree, ledger.Goals)
		if err != nil {
			return err
		}
		hasGoal := make(map[string]bool, len(goals))
		for _, g := range goals {
			if g.Period == period {
				hasGoal[strings.ToLower(g.Name)] = true
			}
		}
		for _, d := range defaultGoals {
			if hasGoal[strings.ToLower(d.name)] {
				continue
			}
			accountID := byName[strings.ToLower(d.accountName)]
			g := models.Goal{
				Name:         d.name,
				Description:  d.description,
				TargetAmount: d.target,
				AccountID:    accountID,
				Kind:         d.kind,
				Period:       period,
			}
			g.ID = tree.NewID()
			g.PrepareCreate(now)
			if err := treePut(tree, ledger.Goals, g.ID, g); err != nil {
				return err
			}
			accountIDs = append(accountIDs, accountID)
			result.GoalsCreated++
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.opts.log.Infow("default data provisioned",
		"user_id", userID,
		"accounts_created", result.AccountsCreated,
		"categories_created", result.CategoriesCreated,
		"goals_created", result.GoalsCreated,
	)
	recomputeAfterMutation(ctx, s.goals, s.opts.log, userID, accountIDs...)
	return &result, nil
}

// DeleteUserData removes every record in the user's subtree in one
// transaction. Deleting an empty subtree succeeds with zero counts.
func (s *provisioningService) DeleteUserData(ctx context.Context, userID string) (*DeletionResult, error) {
	var result DeletionResult
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		result = DeletionResult{}
		for _, coll := range ledger.Collections {
			ids := tree.IDs(coll)
			for _, id := range ids {
				tree.Delete(coll, id)
			}
			switch coll {
			case ledger.Accounts:
				result.AccountsDeleted = len(ids)
			case ledger.Transactions:
				result.TransactionsDeleted = len(ids)
			case ledger.Categories:
				result.CategoriesDeleted = len(ids)
			case ledger.Goals:
				result.GoalsDeleted = len(ids)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.opts.log.Infow("user data deleted",
		"user_id", userID,
		"accounts", result.AccountsDeleted,
		"transactions", result.TransactionsDeleted,
		"categories", result.CategoriesDeleted,
		"goals", result.GoalsDeleted,
	)
	return &result, nil
}
