package models

import "time"

// GoalKind selects how a goal's progress is measured.
type GoalKind string

const (
	// GoalKindSpending tracks outflows; completed while under target.
	GoalKindSpending GoalKind = "SPENDING"
	// GoalKindSavings tracks inflows; completed once target is reached.
	GoalKindSavings GoalKind = "SAVINGS"
)

// Valid reports whether k is a known kind.
func (k GoalKind) Valid() bool {
	return k == GoalKindSpending || k == GoalKindSavings
}

// MaxBonusGoals caps how many goals a user may flag as bonus.
const MaxBonusGoals = 2

// PeriodLayout formats a period identifier.
const PeriodLayout = "2006-01"

// Goal is a monthly target on one account. CurrentAmount and Completed are
// derived and only ever written by goal recomputation.
type Goal struct {
	Base
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	TargetAmount  int64    `json:"target_amount"`
	AccountID     string   `json:"account_id"`
	Kind          GoalKind `json:"kind"`
	Period        string   `json:"period"`
	CurrentAmount int64    `json:"current_amount"`
	Completed     bool     `json:"completed"`
	IsBonus       bool     `json:"is_bonus"`
}

// PeriodOf returns the "YYYY-MM" identifier for t in t's location.
func PeriodOf(t time.Time) string { return t.Format(PeriodLayout) }

// ValidPeriod reports whether s is a well-formed "YYYY-MM" identifier.
func ValidPeriod(s string) bool {
	_, err := time.Parse(PeriodLayout, s)
	return err == nil && len(s) == len(PeriodLayout)
}
