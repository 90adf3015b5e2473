package models

import "time"

// Transaction is one signed ledger entry. Positive amounts are inflows,
// negative amounts outflows, both in cents.
type Transaction struct {
	Base
	AccountID   string    `json:"account_id"`
	CategoryID  string    `json:"category_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	// IsRecurring is informational; nothing schedules recurrences.
	IsRecurring bool   `json:"is_recurring"`
	ReceiptPath string `json:"receipt_path,omitempty"`
}

// IsIncome reports whether the transaction is an inflow.
func (t Transaction) IsIncome() bool { return t.Amount > 0 }

// Period returns the "YYYY-MM" period the transaction falls in.
func (t Transaction) Period() string { return PeriodOf(t.Date) }

// Descriptions used for system-generated transactions.
const (
	InitialDepositDescription = "Initial Deposit"
	transferToPrefix          = "Transfer to "
	transferFromPrefix        = "Transfer from "
)

// TransferToDescription labels the expense leg of a transfer.
func TransferToDescription(toName string) string { return transferToPrefix + toName }

// TransferFromDescription labels the income leg of a transfer.
func TransferFromDescription(fromName string) string { return transferFromPrefix + fromName }
