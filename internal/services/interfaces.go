package services

import (
	"context"
	"time"

	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
)

// AccountWithBalance pairs an account with its derived balances.
type AccountWithBalance struct {
	models.Account
	Balances
}

// AccountSetup is what CreateAccountAndDefaultGoal wrote.
type AccountSetup struct {
	Account        models.Account      `json:"account"`
	InitialDeposit *models.Transaction `json:"initial_deposit,omitempty"`
	SpendingGoal   *models.Goal        `json:"spending_goal,omitempty"`
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID, name, colorTag string, maxMonthlySpend int64) (*models.Account, error)
	CreateAccountAndDefaultGoal(ctx context.Context, userID, name, colorTag string, initialDeposit, maxMonthlySpend int64) (*AccountSetup, error)
	GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
	GetAccountBalance(ctx context.Context, userID, accountID string) (*Balances, error)
	UpdateAccount(ctx context.Context, userID, accountID, name, colorTag string, maxMonthlySpend *int64) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID, name, iconID string, isIncome bool) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID string, isIncome *bool) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID, name, iconID string, isIncome *bool) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// TransactionInput carries the user-editable fields of a transaction.
type TransactionInput struct {
	AccountID   string
	CategoryID  string
	Amount      int64
	Description string
	Date        time.Time
	IsRecurring bool
	ReceiptPath string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	CategoryID *string
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	AddTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionInput) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	GetAccountTransactions(ctx context.Context, userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAllUserTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error)
	DeleteTransactionAndUpdateBalance(ctx context.Context, userID, transactionID, accountID string) error
}

// TransferResult holds both legs written by a transfer.
type TransferResult struct {
	ExpenseLeg models.Transaction `json:"expense_leg"`
	IncomeLeg  models.Transaction `json:"income_leg"`
}

// TransferServicer defines the contract for moving funds between accounts.
type TransferServicer interface {
	TransferFunds(ctx context.Context, userID, fromAccountID, toAccountID string, amount int64) (*TransferResult, error)
}

// GoalInput carries the user-editable fields of a goal.
type GoalInput struct {
	Name         string
	Description  string
	TargetAmount int64
	AccountID    string
	Kind         models.GoalKind
	Period       string
	IsBonus      bool
}

// Achievements summarises completed goals into points and a tier.
type Achievements struct {
	CompletedGoals      int      `json:"completed_goals"`
	CompletedBonusGoals int      `json:"completed_bonus_goals"`
	Points              int      `json:"points"`
	Tier                string   `json:"tier"`
	BonusGoalNames      []string `json:"bonus_goal_names"`
}

// GoalRecomputer refreshes derived goal progress for one account.
type GoalRecomputer interface {
	RecomputeGoalsForAccount(ctx context.Context, userID, accountID string) error
}

// GoalServicer defines the contract for goal-related business logic.
type GoalServicer interface {
	GoalRecomputer
	AddGoal(ctx context.Context, userID string, in GoalInput) (*models.Goal, error)
	GetAllGoals(ctx context.Context, userID string) ([]models.Goal, error)
	GetGoalByID(ctx context.Context, userID, goalID string) (*models.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID string, in GoalInput) (*models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
	GetAchievements(ctx context.Context, userID string) (*Achievements, error)
}

// Dashboard is the per-account and user-wide money position.
type Dashboard struct {
	Accounts []AccountWithBalance `json:"accounts"`
	Totals   Balances             `json:"totals"`
	Period   string               `json:"period"`
	// PeriodTotals covers only transactions dated in Period.
	PeriodTotals Balances `json:"period_totals"`
}

// ReportLine is one transaction joined with its account and category names.
type ReportLine struct {
	models.Transaction
	AccountName  string `json:"account_name"`
	CategoryName string `json:"category_name"`
	IsIncome     bool   `json:"is_income"`
}

// ReportServicer defines the contract for read-only summaries.
type ReportServicer interface {
	GetDashboard(ctx context.Context, userID string) (*Dashboard, error)
	GetTransactionReport(ctx context.Context, userID string, from, to time.Time) ([]ReportLine, error)
}

// ProvisionResult counts the default records created for a user.
type ProvisionResult struct {
	AccountsCreated   int `json:"accounts_created"`
	CategoriesCreated int `json:"categories_created"`
	GoalsCreated      int `json:"goals_created"`
}

// DeletionResult counts the records removed with a user's data.
type DeletionResult struct {
	AccountsDeleted     int `json:"accounts_deleted"`
	TransactionsDeleted int `json:"transactions_deleted"`
	CategoriesDeleted   int `json:"categories_deleted"`
	GoalsDeleted        int `json:"goals_deleted"`
}

// ProvisioningServicer seeds a new user's default data and removes it again.
type ProvisioningServicer interface {
	ProvisionDefaultData(ctx context.Context, userID string) (*ProvisionResult, error)
	DeleteUserData(ctx context.Context, userID string) (*DeletionResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
