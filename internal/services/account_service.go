package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

// accountService handles account-related business logic.
type accountService struct {
	store ledger.Store
	goals GoalRecomputer
	opts  options
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(store ledger.Store, goals GoalRecomputer, opts ...Option) AccountServicer {
	return &accountService{store: store, goals: goals, opts: newOptions(opts)}
}

func validateAccountFields(name string, maxMonthlySpend int64) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Account name is required")
	}
	if maxMonthlySpend < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Monthly spending limit cannot be negative")
	}
	return nil
}

func newAccount(name, colorTag string, maxMonthlySpend int64) models.Account {
	if colorTag == "" {
		colorTag = models.ColorBank
	}
	return models.Account{
		Name:            strings.TrimSpace(name),
		ColorTag:        colorTag,
		MaxMonthlySpend: maxMonthlySpend,
	}
}

// CreateAccount creates a bare account with no transactions or goals.
func (s *accountService) CreateAccount(ctx context.Context, userID, name, colorTag string, maxMonthlySpend int64) (*models.Account, error) {
	if err := validateAccountFields(name, maxMonthlySpend); err != nil {
		return nil, err
	}

	account := newAccount(name, colorTag, maxMonthlySpend)
	account.PrepareCreate(s.opts.now())

	if err := putRecord(ctx, s.store, userID, ledger.Accounts, account.ID, account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccountAndDefaultGoal creates an account together with its opening
// deposit and monthly spending goal. All three records are written in one
// transaction; either all exist afterwards or none do.
func (s *accountService) CreateAccountAndDefaultGoal(ctx context.Context, userID, name, colorTag string, initialDeposit, maxMonthlySpend int64) (*AccountSetup, error) {
	if err := validateAccountFields(name, maxMonthlySpend); err != nil {
		return nil, err
	}
	if initialDeposit < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Initial deposit cannot be negative")
	}

	var setup AccountSetup
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		now := s.opts.now()
		setup = AccountSetup{}

		account := newAccount(name, colorTag, maxMonthlySpend)
		account.ID = tree.NewID()
		account.PrepareCreate(now)
		if err := treePut(tree, ledger.Accounts, account.ID, account); err != nil {
			return err
		}
		setup.Account = account

		if initialDeposit > 0 {
			categoryID, err := resolveTransferCategoryID(tree, s.opts.transferFallbackID, s.opts.log)
			if err != nil {
				return err
			}
			deposit := models.Transaction{
				AccountID:   account.ID,
				CategoryID:  categoryID,
				Amount:      initialDeposit,
				Description: models.InitialDepositDescription,
				Date:        now,
			}
			deposit.ID = tree.NewID()
			deposit.PrepareCreate(now)
			if err := treePut(tree, ledger.Transactions, deposit.ID, deposit); err != nil {
				return err
			}
			setup.InitialDeposit = &deposit
		}

		if maxMonthlySpend > 0 {
			goal := models.Goal{
				Name:         fmt.Sprintf("%s Spending", account.Name),
				Description:  fmt.Sprintf("Automatic monthly spending limit for %s.", account.Name),
				TargetAmount: maxMonthlySpend,
				AccountID:    account.ID,
				Kind:         models.GoalKindSpending,
				Period:       models.PeriodOf(now),
			}
			goal.ID = tree.NewID()
			goal.PrepareCreate(now)
			if err := treePut(tree, ledger.Goals, goal.ID, goal); err != nil {
				return err
			}
			setup.SpendingGoal = &goal
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.opts.log.Infow("account created",
		"user_id", userID,
		"account_id", setup.Account.ID,
		"initial_deposit", initialDeposit,
		"max_monthly_spend", maxMonthlySpend,
	)
	recomputeAfterMutation(ctx, s.goals, s.opts.log, userID, setup.Account.ID)

	if setup.SpendingGoal != nil {
		if g, err := getRecord[models.Goal](ctx, s.store, userID, ledger.Goals, setup.SpendingGoal.ID, apperrors.ErrGoalNotFound); err == nil {
			setup.SpendingGoal = g
		}
	}
	return &setup, nil
}

// GetUserAccounts returns every account for the user in creation order.
func (s *accountService) GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	accounts, err := listRecords[models.Account](ctx, s.store, userID, ledger.Accounts)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// GetAccountByID retrieves an account by ID for a specific user.
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return getRecord[models.Account](ctx, s.store, userID, ledger.Accounts, accountID, apperrors.ErrAccountNotFound)
}

// GetAccountBalance derives the account's balance from its transactions.
// Results are memoized against the store revision they were read at.
func (s *accountService) GetAccountBalance(ctx context.Context, userID, accountID string) (*Balances, error) {
	rev, err := s.store.Revision(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if b, ok := s.opts.memo.Get(userID, accountID, rev); ok {
		return &b, nil
	}

	if _, err := s.GetAccountByID(ctx, userID, accountID); err != nil {
		return nil, err
	}
	txs, err := queryRecords[models.Transaction](ctx, s.store, userID, ledger.Transactions, "account_id", accountID)
	if err != nil {
		return nil, err
	}

	b := ComputeBalances(txs)
	s.opts.memo.Put(userID, accountID, rev, b)
	return &b, nil
}

// UpdateAccount applies the non-empty fields to an account.
func (s *accountService) UpdateAccount(ctx context.Context, userID, accountID, name, colorTag string, maxMonthlySpend *int64) (*models.Account, error) {
	if maxMonthlySpend != nil && *maxMonthlySpend < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Monthly spending limit cannot be negative")
	}

	var updated models.Account
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		account, err := treeGet[models.Account](tree, ledger.Accounts, accountID, apperrors.ErrAccountNotFound)
		if err != nil {
			return err
		}
		if n := strings.TrimSpace(name); n != "" {
			account.Name = n
		}
		if colorTag != "" {
			account.ColorTag = colorTag
		}
		if maxMonthlySpend != nil {
			account.MaxMonthlySpend = *maxMonthlySpend
		}
		account.Touch(s.opts.now())

		updated = *account
		return treePut(tree, ledger.Accounts, account.ID, account)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &updated, nil
}

// DeleteAccount removes an account together with its transactions and
// goals in one transaction.
func (s *accountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	var removedTxs, removedGoals int
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		removedTxs, removedGoals = 0, 0
		if _, ok := tree.Get(ledger.Accounts, accountID); !ok {
			return apperrors.ErrAccountNotFound
		}

		txs, err := treeList[models.Transaction](tree, ledger.Transactions)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.AccountID == accountID {
				tree.Delete(ledger.Transactions, tx.ID)
				removedTxs++
			}
		}

		goals, err := treeList[models.Goal](tree, ledger.Goals)
		if err != nil {
			return err
		}
		for _, g := range goals {
			if g.AccountID == accountID {
				tree.Delete(ledger.Goals, g.ID)
				removedGoals++
			}
		}

		tree.Delete(ledger.Accounts, accountID)
		return nil
	})
	if err != nil {
		return storeError(err)
	}

	s.opts.memo.Invalidate(userID, accountID)
	s.opts.log.Infow("account deleted",
		"user_id", userID,
		"account_id", accountID,
		"transactions_removed", removedTxs,
		"goals_removed", removedGoals,
	)
	return nil
}
