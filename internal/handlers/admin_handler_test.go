package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
)

func setupAdminRouter(handler *AdminHandler) *gin.Engine {
	r := gin.New()
	r.POST("/admin/users/:userId/provision", handler.ProvisionUser)
	r.DELETE("/admin/users/:userId", handler.DeleteUser)
	r.POST("/admin/users/:userId/accounts/:id/recompute", handler.RecomputeGoals)
	return r
}

func TestAdminHandler_ProvisionUser(t *testing.T) {
	var provisioned string
	prov := &mockProvisioningService{
		provisionFn: func(_ context.Context, userID string) (*services.ProvisionResult, error) {
			provisioned = userID
			return &services.ProvisionResult{}, nil
		},
	}
	audit := &mockAuditService{}
	r := setupAdminRouter(NewAdminHandler(prov, &mockGoalService{}, audit))

	rec := doRequest(r, "POST", "/admin/users/user-42/provision", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if provisioned != "user-42" {
		t.Errorf("expected user-42 provisioned, got %q", provisioned)
	}
	if len(audit.entries) != 1 || audit.entries[0].userID != "user-42" {
		t.Errorf("expected audit for user-42, got %+v", audit.entries)
	}
}

func TestAdminHandler_RecomputeGoals(t *testing.T) {
	t.Run("recomputes the account", func(t *testing.T) {
		var gotUser, gotAccount string
		goals := &mockGoalService{
			recomputeFn: func(_ context.Context, userID, accountID string) error {
				gotUser, gotAccount = userID, accountID
				return nil
			},
		}
		r := setupAdminRouter(NewAdminHandler(&mockProvisioningService{}, goals, &mockAuditService{}))

		rec := doRequest(r, "POST", "/admin/users/user-42/accounts/"+testAccountID+"/recompute", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUser != "user-42" || gotAccount != testAccountID {
			t.Errorf("unexpected args: %q %q", gotUser, gotAccount)
		}
	})

	t.Run("returns 400 on invalid account id", func(t *testing.T) {
		r := setupAdminRouter(NewAdminHandler(&mockProvisioningService{}, &mockGoalService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/admin/users/user-42/accounts/nope/recompute", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	t.Run("deletes the user's data", func(t *testing.T) {
		var deleted string
		prov := &mockProvisioningService{
			deleteFn: func(_ context.Context, userID string) (*services.DeletionResult, error) {
				deleted = userID
				return &services.DeletionResult{AccountsDeleted: 2, TransactionsDeleted: 5}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupAdminRouter(NewAdminHandler(prov, &mockGoalService{}, audit))

		rec := doRequest(r, "DELETE", "/admin/users/user-42", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != "user-42" {
			t.Errorf("expected user-42 deleted, got %q", deleted)
		}
		body := parseJSON(t, rec)
		if body["accounts_deleted"] != float64(2) || body["transactions_deleted"] != float64(5) {
			t.Errorf("unexpected body: %v", body)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "ADMIN_DELETE_USER" {
			t.Errorf("expected ADMIN_DELETE_USER audit, got %v", got)
		}
	})

	t.Run("maps store conflicts", func(t *testing.T) {
		prov := &mockProvisioningService{
			deleteFn: func(context.Context, string) (*services.DeletionResult, error) {
				return nil, apperrors.ErrUpdateFailed
			},
		}
		audit := &mockAuditService{}
		r := setupAdminRouter(NewAdminHandler(prov, &mockGoalService{}, audit))

		rec := doRequest(r, "DELETE", "/admin/users/user-42", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UPDATE_FAILED")
		if len(audit.actions()) != 0 {
			t.Error("a failed delete must not be audited")
		}
	})
}
