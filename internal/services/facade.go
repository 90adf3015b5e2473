package services

import "pocketledger/internal/ledger"

// Facade bundles the services that share one store and one balance memo.
// Handlers, the CLI and tests all go through it.
type Facade struct {
	Accounts     AccountServicer
	Transactions TransactionServicer
	Transfers    TransferServicer
	Categories   CategoryServicer
	Goals        GoalServicer
	Reports      ReportServicer
	Provisioning ProvisioningServicer
}

// NewFacade wires every service against store. A balance memo is created
// unless one is passed with WithBalanceMemo.
func NewFacade(store ledger.Store, opts ...Option) *Facade {
	opts = append([]Option{WithBalanceMemo(NewBalanceMemo())}, opts...)

	goals := NewGoalService(store, opts...)
	return &Facade{
		Accounts:     NewAccountService(store, goals, opts...),
		Transactions: NewTransactionService(store, goals, opts...),
		Transfers:    NewTransferService(store, goals, opts...),
		Categories:   NewCategoryService(store, opts...),
		Goals:        goals,
		Reports:      NewReportService(store, opts...),
		Provisioning: NewProvisioningService(store, goals, opts...),
	}
}
