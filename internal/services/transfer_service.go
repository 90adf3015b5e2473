package services

import (
	"context"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

// transferService moves funds between two of a user's accounts.
type transferService struct {
	store ledger.Store
	goals GoalRecomputer
	opts  options
}

// NewTransferService creates a new TransferServicer. goals may be nil, in
// which case no goal recomputation follows a transfer.
func NewTransferService(store ledger.Store, goals GoalRecomputer, opts ...Option) TransferServicer {
	return &transferService{store: store, goals: goals, opts: newOptions(opts)}
}

// TransferFunds writes a paired expense and income leg. The balance check
// and both legs happen in one optimistic transaction, so two concurrent
// transfers cannot both spend the same funds.
func (s *transferService) TransferFunds(ctx context.Context, userID, fromAccountID, toAccountID string, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Transfer amount must be greater than zero")
	}
	if fromAccountID == "" || toAccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Both accounts are required")
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	var result TransferResult
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		from, err := treeGet[models.Account](tree, ledger.Accounts, fromAccountID, apperrors.ErrAccountNotFound)
		if err != nil {
			return err
		}
		to, err := treeGet[models.Account](tree, ledger.Accounts, toAccountID, apperrors.ErrAccountNotFound)
		if err != nil {
			return err
		}

		txs, err := treeList[models.Transaction](tree, ledger.Transactions)
		if err != nil {
			return err
		}
		available := ComputeBalances(filterByAccount(txs, from.ID)).Balance
		if available < amount {
			return apperrors.ErrInsufficientFunds
		}

		categoryID, err := resolveTransferCategoryID(tree, s.opts.transferFallbackID, s.opts.log)
		if err != nil {
			return err
		}

		now := s.opts.now()
		expense := models.Transaction{
			AccountID:   from.ID,
			CategoryID:  categoryID,
			Amount:      -amount,
			Description: models.TransferToDescription(to.Name),
			Date:        now,
		}
		expense.ID = tree.NewID()
		expense.PrepareCreate(now)

		income := models.Transaction{
			AccountID:   to.ID,
			CategoryID:  categoryID,
			Amount:      amount,
			Description: models.TransferFromDescription(from.Name),
			Date:        now,
		}
		income.ID = tree.NewID()
		income.PrepareCreate(now)

		if err := treePut(tree, ledger.Transactions, expense.ID, expense); err != nil {
			return err
		}
		if err := treePut(tree, ledger.Transactions, income.ID, income); err != nil {
			return err
		}
		result = TransferResult{ExpenseLeg: expense, IncomeLeg: income}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.opts.memo.Invalidate(userID, fromAccountID, toAccountID)
	s.opts.log.Infow("transfer completed",
		"user_id", userID,
		"from_account_id", fromAccountID,
		"to_account_id", toAccountID,
		"amount", amount,
	)
	recomputeAfterMutation(ctx, s.goals, s.opts.log, userID, fromAccountID, toAccountID)
	return &result, nil
}
