package models

// Account is a money container. Its balance is never stored; it is derived
// from the account's transactions.
type Account struct {
	Base
	Name     string `json:"name"`
	ColorTag string `json:"color_tag"`
	// MaxMonthlySpend is in cents; 0 means no spending goal.
	MaxMonthlySpend int64 `json:"max_monthly_spend"`
}

// Default account colours.
const (
	ColorBank    = "#388E3C"
	ColorSavings = "#1976D2"
)
