package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pocketledger/internal/logger"
	"pocketledger/internal/middleware"
	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
	"pocketledger/internal/services"
	"pocketledger/internal/validator"
)

const (
	testUserID    = "user-1"
	testAccountID = "0192f6a4-7b3c-7d1e-8f00-000000000001"
	testOtherID   = "0192f6a4-7b3c-7d1e-8f00-000000000002"
	testCatID     = "0192f6a4-7b3c-7d1e-8f00-000000000003"
	testRecordID  = "0192f6a4-7b3c-7d1e-8f00-000000000004"
)

// --- mock services ---

type mockAccountService struct {
	createAccountAndDefaultGoalFn func(ctx context.Context, userID, name, colorTag string, initialDeposit, maxMonthlySpend int64) (*services.AccountSetup, error)
	getUserAccountsFn             func(ctx context.Context, userID string) ([]models.Account, error)
	getAccountByIDFn              func(ctx context.Context, userID, accountID string) (*models.Account, error)
	getAccountBalanceFn           func(ctx context.Context, userID, accountID string) (*services.Balances, error)
	updateAccountFn               func(ctx context.Context, userID, accountID, name, colorTag string, maxMonthlySpend *int64) (*models.Account, error)
	deleteAccountFn               func(ctx context.Context, userID, accountID string) error
}

func (m *mockAccountService) CreateAccount(_ context.Context, _, name, colorTag string, maxMonthlySpend int64) (*models.Account, error) {
	return &models.Account{Name: name, ColorTag: colorTag, MaxMonthlySpend: maxMonthlySpend}, nil
}

func (m *mockAccountService) CreateAccountAndDefaultGoal(ctx context.Context, userID, name, colorTag string, initialDeposit, maxMonthlySpend int64) (*services.AccountSetup, error) {
	if m.createAccountAndDefaultGoalFn != nil {
		return m.createAccountAndDefaultGoalFn(ctx, userID, name, colorTag, initialDeposit, maxMonthlySpend)
	}
	return &services.AccountSetup{}, nil
}

func (m *mockAccountService) GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAccountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(ctx, userID, accountID)
	}
	return &models.Account{Base: models.Base{ID: accountID}}, nil
}

func (m *mockAccountService) GetAccountBalance(ctx context.Context, userID, accountID string) (*services.Balances, error) {
	if m.getAccountBalanceFn != nil {
		return m.getAccountBalanceFn(ctx, userID, accountID)
	}
	return &services.Balances{}, nil
}

func (m *mockAccountService) UpdateAccount(ctx context.Context, userID, accountID, name, colorTag string, maxMonthlySpend *int64) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(ctx, userID, accountID, name, colorTag, maxMonthlySpend)
	}
	return &models.Account{Base: models.Base{ID: accountID}}, nil
}

func (m *mockAccountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID, accountID)
	}
	return nil
}

var _ services.AccountServicer = (*mockAccountService)(nil)

type mockTransactionService struct {
	addTransactionFn         func(ctx context.Context, userID string, in services.TransactionInput) (*models.Transaction, error)
	updateTransactionFn      func(ctx context.Context, userID, transactionID string, in services.TransactionInput) (*models.Transaction, error)
	getTransactionByIDFn     func(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	getAccountTransactionsFn func(ctx context.Context, userID, accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getAllUserTransactionsFn func(ctx context.Context, userID string, filter services.TransactionFilter) ([]models.Transaction, error)
	deleteTransactionFn      func(ctx context.Context, userID, transactionID, accountID string) error
}

func (m *mockTransactionService) AddTransaction(ctx context.Context, userID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.addTransactionFn != nil {
		return m.addTransactionFn(ctx, userID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(ctx, userID, transactionID, in)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}}, nil
}

func (m *mockTransactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(ctx, userID, transactionID)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}}, nil
}

func (m *mockTransactionService) GetAccountTransactions(ctx context.Context, userID, accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getAccountTransactionsFn != nil {
		return m.getAccountTransactionsFn(ctx, userID, accountID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetAllUserTransactions(ctx context.Context, userID string, filter services.TransactionFilter) ([]models.Transaction, error) {
	if m.getAllUserTransactionsFn != nil {
		return m.getAllUserTransactionsFn(ctx, userID, filter)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransactionAndUpdateBalance(ctx context.Context, userID, transactionID, accountID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(ctx, userID, transactionID, accountID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

type mockTransferService struct {
	transferFundsFn func(ctx context.Context, userID, fromAccountID, toAccountID string, amount int64) (*services.TransferResult, error)
}

func (m *mockTransferService) TransferFunds(ctx context.Context, userID, fromAccountID, toAccountID string, amount int64) (*services.TransferResult, error) {
	if m.transferFundsFn != nil {
		return m.transferFundsFn(ctx, userID, fromAccountID, toAccountID, amount)
	}
	return &services.TransferResult{}, nil
}

var _ services.TransferServicer = (*mockTransferService)(nil)

type mockCategoryService struct {
	createCategoryFn    func(ctx context.Context, userID, name, iconID string, isIncome bool) (*models.Category, error)
	getUserCategoriesFn func(ctx context.Context, userID string, isIncome *bool) ([]models.Category, error)
	getCategoryByIDFn   func(ctx context.Context, userID, categoryID string) (*models.Category, error)
	updateCategoryFn    func(ctx context.Context, userID, categoryID, name, iconID string, isIncome *bool) (*models.Category, error)
	deleteCategoryFn    func(ctx context.Context, userID, categoryID string) error
}

func (m *mockCategoryService) CreateCategory(ctx context.Context, userID, name, iconID string, isIncome bool) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(ctx, userID, name, iconID, isIncome)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(ctx context.Context, userID string, isIncome *bool) ([]models.Category, error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(ctx, userID, isIncome)
	}
	return nil, nil
}

func (m *mockCategoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(ctx, userID, categoryID)
	}
	return &models.Category{Base: models.Base{ID: categoryID}}, nil
}

func (m *mockCategoryService) UpdateCategory(ctx context.Context, userID, categoryID, name, iconID string, isIncome *bool) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(ctx, userID, categoryID, name, iconID, isIncome)
	}
	return &models.Category{Base: models.Base{ID: categoryID}}, nil
}

func (m *mockCategoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(ctx, userID, categoryID)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

type mockGoalService struct {
	recomputeFn       func(ctx context.Context, userID, accountID string) error
	addGoalFn         func(ctx context.Context, userID string, in services.GoalInput) (*models.Goal, error)
	getAllGoalsFn     func(ctx context.Context, userID string) ([]models.Goal, error)
	getGoalByIDFn     func(ctx context.Context, userID, goalID string) (*models.Goal, error)
	updateGoalFn      func(ctx context.Context, userID, goalID string, in services.GoalInput) (*models.Goal, error)
	deleteGoalFn      func(ctx context.Context, userID, goalID string) error
	getAchievementsFn func(ctx context.Context, userID string) (*services.Achievements, error)
}

func (m *mockGoalService) RecomputeGoalsForAccount(ctx context.Context, userID, accountID string) error {
	if m.recomputeFn != nil {
		return m.recomputeFn(ctx, userID, accountID)
	}
	return nil
}

func (m *mockGoalService) AddGoal(ctx context.Context, userID string, in services.GoalInput) (*models.Goal, error) {
	if m.addGoalFn != nil {
		return m.addGoalFn(ctx, userID, in)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) GetAllGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	if m.getAllGoalsFn != nil {
		return m.getAllGoalsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockGoalService) GetGoalByID(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	if m.getGoalByIDFn != nil {
		return m.getGoalByIDFn(ctx, userID, goalID)
	}
	return &models.Goal{Base: models.Base{ID: goalID}}, nil
}

func (m *mockGoalService) UpdateGoal(ctx context.Context, userID, goalID string, in services.GoalInput) (*models.Goal, error) {
	if m.updateGoalFn != nil {
		return m.updateGoalFn(ctx, userID, goalID, in)
	}
	return &models.Goal{Base: models.Base{ID: goalID}}, nil
}

func (m *mockGoalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if m.deleteGoalFn != nil {
		return m.deleteGoalFn(ctx, userID, goalID)
	}
	return nil
}

func (m *mockGoalService) GetAchievements(ctx context.Context, userID string) (*services.Achievements, error) {
	if m.getAchievementsFn != nil {
		return m.getAchievementsFn(ctx, userID)
	}
	return &services.Achievements{BonusGoalNames: []string{}}, nil
}

var _ services.GoalServicer = (*mockGoalService)(nil)

type mockReportService struct {
	getDashboardFn          func(ctx context.Context, userID string) (*services.Dashboard, error)
	getTransactionReportFn func(ctx context.Context, userID string, from, to time.Time) ([]services.ReportLine, error)
}

func (m *mockReportService) GetDashboard(ctx context.Context, userID string) (*services.Dashboard, error) {
	if m.getDashboardFn != nil {
		return m.getDashboardFn(ctx, userID)
	}
	return &services.Dashboard{}, nil
}

func (m *mockReportService) GetTransactionReport(ctx context.Context, userID string, from, to time.Time) ([]services.ReportLine, error) {
	if m.getTransactionReportFn != nil {
		return m.getTransactionReportFn(ctx, userID, from, to)
	}
	return nil, nil
}

var _ services.ReportServicer = (*mockReportService)(nil)

type mockProvisioningService struct {
	provisionFn func(ctx context.Context, userID string) (*services.ProvisionResult, error)
	deleteFn    func(ctx context.Context, userID string) (*services.DeletionResult, error)
}

func (m *mockProvisioningService) ProvisionDefaultData(ctx context.Context, userID string) (*services.ProvisionResult, error) {
	if m.provisionFn != nil {
		return m.provisionFn(ctx, userID)
	}
	return &services.ProvisionResult{}, nil
}

func (m *mockProvisioningService) DeleteUserData(ctx context.Context, userID string) (*services.DeletionResult, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return &services.DeletionResult{}, nil
}

var _ services.ProvisioningServicer = (*mockProvisioningService)(nil)

type auditEntry struct {
	userID, action, resourceType, resourceID string
	changes                                  map[string]any
}

// mockAuditService records every entry so tests can assert on it.
type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, changes map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID, changes})
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.action
	}
	return out
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	logger.Init("test")
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
