package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

// reportService builds read-only summaries over the ledger.
type reportService struct {
	store ledger.Store
	opts  options
}

// NewReportService creates a new ReportServicer.
func NewReportService(store ledger.Store, opts ...Option) ReportServicer {
	return &reportService{store: store, opts: newOptions(opts)}
}

// GetDashboard derives every account's balances plus user-wide totals, for
// all time and for the current period.
func (s *reportService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	var (
		accounts []models.Account
		txs      []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = listRecords[models.Account](gctx, s.store, userID, ledger.Accounts)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = listRecords[models.Transaction](gctx, s.store, userID, ledger.Transactions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.opts.now()
	period := models.PeriodOf(now)
	byAccount := ComputeBalancesByAccount(txs)

	d := &Dashboard{
		Accounts: make([]AccountWithBalance, 0, len(accounts)),
		Period:   period,
	}
	for _, a := range accounts {
		d.Accounts = append(d.Accounts, AccountWithBalance{Account: a, Balances: byAccount[a.ID]})
	}
	d.Totals = ComputeBalances(txs)

	var inPeriod []models.Transaction
	for _, tx := range txs {
		if models.PeriodOf(tx.Date.In(now.Location())) == period {
			inPeriod = append(inPeriod, tx)
		}
	}
	d.PeriodTotals = ComputeBalances(inPeriod)
	return d, nil
}

// GetTransactionReport lists transactions dated within [from, to], newest
// first, with account and category names resolved.
func (s *reportService) GetTransactionReport(ctx context.Context, userID string, from, to time.Time) ([]ReportLine, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date must be before to_date")
	}

	var (
		accounts []models.Account
		cats     []models.Category
		txs      []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = listRecords[models.Account](gctx, s.store, userID, ledger.Accounts)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = listRecords[models.Category](gctx, s.store, userID, ledger.Categories)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = listRecords[models.Transaction](gctx, s.store, userID, ledger.Transactions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	categoryNames := make(map[string]string, len(cats))
	for _, c := range cats {
		categoryNames[c.ID] = c.Name
	}

	txs = applyTransactionFilters(txs, TransactionFilter{FromDate: &from, ToDate: &to})
	sortByDateDesc(txs)

	lines := make([]ReportLine, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines, ReportLine{
			Transaction:  tx,
			AccountName:  accountNames[tx.AccountID],
			CategoryName: categoryNames[tx.CategoryID],
			IsIncome:     tx.IsIncome(),
		})
	}
	return lines, nil
}
