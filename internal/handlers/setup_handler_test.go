package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
)

func TestSetupHandler_Setup(t *testing.T) {
	t.Run("returns counts", func(t *testing.T) {
		svc := &mockProvisioningService{
			provisionFn: func(_ context.Context, userID string) (*services.ProvisionResult, error) {
				if userID != testUserID {
					t.Errorf("unexpected user %q", userID)
				}
				return &services.ProvisionResult{AccountsCreated: 2, CategoriesCreated: 10, GoalsCreated: 2}, nil
			},
		}
		audit := &mockAuditService{}
		r := gin.New()
		r.POST("/setup", injectUserID(testUserID), NewSetupHandler(svc, audit).Setup)

		rec := doRequest(r, "POST", "/setup", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["categories_created"].(float64) != 10 {
			t.Errorf("unexpected result: %v", result)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "PROVISION_DEFAULTS" {
			t.Errorf("expected PROVISION_DEFAULTS audit, got %v", actions)
		}
	})

	t.Run("returns 401 without a user", func(t *testing.T) {
		r := gin.New()
		r.POST("/setup", NewSetupHandler(&mockProvisioningService{}, &mockAuditService{}).Setup)

		rec := doRequest(r, "POST", "/setup", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})

	t.Run("returns 503 when the store times out", func(t *testing.T) {
		svc := &mockProvisioningService{
			provisionFn: func(context.Context, string) (*services.ProvisionResult, error) {
				return nil, context.DeadlineExceeded
			},
		}
		r := gin.New()
		r.POST("/setup", injectUserID(testUserID), NewSetupHandler(svc, &mockAuditService{}).Setup)

		rec := doRequest(r, "POST", "/setup", "")

		if rec.Code != apperrors.ErrStoreUnavailable.StatusCode {
			t.Fatalf("expected %d, got %d", apperrors.ErrStoreUnavailable.StatusCode, rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "STORE_UNAVAILABLE")
	})
}
