package services

import (
	"context"
	"strings"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	store ledger.Store
	goals GoalRecomputer
	opts  options
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(store ledger.Store, goals GoalRecomputer, opts ...Option) TransactionServicer {
	return &transactionService{
		store: store,
		goals: goals,
		opts:  newOptions(opts),
	}
}

func (s *transactionService) validateInput(in *TransactionInput) error {
	if in.Amount == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must not be zero")
	}
	if in.CategoryID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Category is required")
	}
	in.Description = strings.TrimSpace(in.Description)
	return nil
}

// AddTransaction logs a new income or expense against an account and then
// refreshes that account's goals.
func (s *transactionService) AddTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if in.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Account is required")
	}
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.opts.now()
	}

	if _, err := getRecord[models.Account](ctx, s.store, userID, ledger.Accounts, in.AccountID, apperrors.ErrAccountNotFound); err != nil {
		return nil, err
	}
	if _, err := getRecord[models.Category](ctx, s.store, userID, ledger.Categories, in.CategoryID, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		IsRecurring: in.IsRecurring,
		ReceiptPath: in.ReceiptPath,
	}
	transaction.PrepareCreate(s.opts.now())

	if err := putRecord(ctx, s.store, userID, ledger.Transactions, transaction.ID, transaction); err != nil {
		return nil, err
	}

	s.opts.memo.Invalidate(userID, transaction.AccountID)
	recomputeAfterMutation(ctx, s.goals, s.opts.log, userID, transaction.AccountID)
	return transaction, nil
}

// UpdateTransaction replaces every editable field of a transaction. The
// owning account cannot change, and a zero date keeps the stored one.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionInput) (*models.Transaction, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	var updated models.Transaction
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		existing, err := treeGet[models.Transaction](tree, ledger.Transactions, transactionID, apperrors.ErrTransactionNotFound)
		if err != nil {
			return err
		}
		if in.AccountID != "" && in.AccountID != existing.AccountID {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "A transaction cannot be moved to another account")
		}
		if _, ok := tree.Get(ledger.Categories, in.CategoryID); !ok {
			return apperrors.ErrCategoryNotFound
		}

		t := *existing
		t.CategoryID = in.CategoryID
		t.Amount = in.Amount
		t.Description = in.Description
		if !in.Date.IsZero() {
			t.Date = in.Date
		}
		t.IsRecurring = in.IsRecurring
		t.ReceiptPath = in.ReceiptPath
		t.Touch(s.opts.now())

		updated = t
		return treePut(tree, ledger.Transactions, t.ID, t)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.opts.memo.Invalidate(userID, updated.AccountID)
	recomputeAfterMutation(ctx, s.goals, s.opts.log, userID, updated.AccountID)
	return &updated, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	return getRecord[models.Transaction](ctx, s.store, userID, ledger.Transactions, transactionID, apperrors.ErrTransactionNotFound)
}

// GetAccountTransactions retrieves a paginated, filtered list of
// transactions for a specific account, newest first.
func (s *transactionService) GetAccountTransactions(ctx context.Context, userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := getRecord[models.Account](ctx, s.store, userID, ledger.Accounts, accountID, apperrors.ErrAccountNotFound); err != nil {
		return nil, err
	}

	txs, err := queryRecords[models.Transaction](ctx, s.store, userID, ledger.Transactions, "account_id", accountID)
	if err != nil {
		return nil, err
	}
	txs = applyTransactionFilters(txs, filter)
	sortByDateDesc(txs)

	result := pagination.Paginate(txs, page)
	return &result, nil
}

// GetAllUserTransactions returns every transaction across the user's
// accounts, newest first.
func (s *transactionService) GetAllUserTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	txs, err := listRecords[models.Transaction](ctx, s.store, userID, ledger.Transactions)
	if err != nil {
		return nil, err
	}
	txs = applyTransactionFilters(txs, filter)
	sortByDateDesc(txs)
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func applyTransactionFilters(txs []models.Transaction, f TransactionFilter) []models.Transaction {
	var out []models.Transaction
	for _, tx := range txs {
		if f.FromDate != nil && tx.Date.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && tx.Date.After(*f.ToDate) {
			continue
		}
		if f.CategoryID != nil && tx.CategoryID != *f.CategoryID {
			continue
		}
		if f.MinAmount != nil && tx.Amount < *f.MinAmount {
			continue
		}
		if f.MaxAmount != nil && tx.Amount > *f.MaxAmount {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// DeleteTransactionAndUpdateBalance removes a transaction from its account.
// The balance follows automatically since it is derived; goals are
// recomputed afterwards.
func (s *transactionService) DeleteTransactionAndUpdateBalance(ctx context.Context, userID, transactionID, accountID string) error {
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		if _, ok := tree.Get(ledger.Accounts, accountID); !ok {
			return apperrors.ErrAccountNotFound
		}
		existing, err := treeGet[models.Transaction](tree, ledger.Transactions, transactionID, apperrors.ErrTransactionNotFound)
		if err != nil {
			return err
		}
		if existing.AccountID != accountID {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Transaction does not belong to this account")
		}
		tree.Delete(ledger.Transactions, transactionID)
		return nil
	})
	if err != nil {
		return storeError(err)
	}

	s.opts.memo.Invalidate(userID, accountID)
	recomputeAfterMutation(ctx, s.goals, s.opts.log, userID, accountID)
	return nil
}
