package services

import (
	"sync"

	"pocketledger/internal/models"
)

// Balances is the derived money position over a set of transactions, in
// cents. Expenses is kept negative; callers display its absolute value.
type Balances struct {
	Balance  int64 `json:"balance"`
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
}

// ComputeBalances derives balance, income and expenses from txs.
// An empty slice yields all zeros.
func ComputeBalances(txs []models.Transaction) Balances {
	var b Balances
	for _, tx := range txs {
		switch {
		case tx.Amount > 0:
			b.Income += tx.Amount
		case tx.Amount < 0:
			b.Expenses += tx.Amount
		}
	}
	b.Balance = b.Income + b.Expenses
	return b
}

// ComputeBalancesByAccount groups txs by account and derives balances for
// each group.
func ComputeBalancesByAccount(txs []models.Transaction) map[string]Balances {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range txs {
		grouped[tx.AccountID] = append(grouped[tx.AccountID], tx)
	}
	out := make(map[string]Balances, len(grouped))
	for accountID, group := range grouped {
		out[accountID] = ComputeBalances(group)
	}
	return out
}

// filterByAccount returns the transactions that belong to accountID.
func filterByAccount(txs []models.Transaction, accountID string) []models.Transaction {
	var out []models.Transaction
	for _, tx := range txs {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}

type memoKey struct {
	userID    string
	accountID string
}

type memoEntry struct {
	revision int64
	balances Balances
}

// BalanceMemo caches derived balances per account. Entries are stamped with
// the store revision they were computed at and are only served while that
// revision is current, so the memo is never authoritative.
type BalanceMemo struct {
	mu      sync.Mutex
	entries map[memoKey]memoEntry
}

// NewBalanceMemo creates an empty memo.
func NewBalanceMemo() *BalanceMemo {
	return &BalanceMemo{entries: make(map[memoKey]memoEntry)}
}

// Get returns the memoized balances for the account if they were computed at
// revision.
func (m *BalanceMemo) Get(userID, accountID string, revision int64) (Balances, bool) {
	if m == nil {
		return Balances{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[memoKey{userID, accountID}]
	if !ok || e.revision != revision {
		return Balances{}, false
	}
	return e.balances, true
}

// Put records balances computed at revision.
func (m *BalanceMemo) Put(userID, accountID string, revision int64, b Balances) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memoKey{userID, accountID}] = memoEntry{revision: revision, balances: b}
}

// Invalidate drops the entry for one account.
func (m *BalanceMemo) Invalidate(userID string, accountIDs ...string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range accountIDs {
		delete(m.entries, memoKey{userID, id})
	}
}
