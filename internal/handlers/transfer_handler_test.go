package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
	"pocketledger/internal/services"
)

func setupTransferRouter(handler *TransferHandler) *gin.Engine {
	r := gin.New()
	r.POST("/transfers", injectUserID(testUserID), handler.CreateTransfer)
	return r
}

func TestTransferHandler_CreateTransfer(t *testing.T) {
	t.Run("returns 201 with both legs", func(t *testing.T) {
		svc := &mockTransferService{
			transferFundsFn: func(_ context.Context, _, from, to string, amount int64) (*services.TransferResult, error) {
				return &services.TransferResult{
					ExpenseLeg: models.Transaction{Base: models.Base{ID: testRecordID}, AccountID: from, Amount: -amount},
					IncomeLeg:  models.Transaction{AccountID: to, Amount: amount},
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransferRouter(NewTransferHandler(svc, audit))

		rec := doRequest(r, "POST", "/transfers",
			`{"from_account_id":"`+testAccountID+`","to_account_id":"`+testOtherID+`","amount":4000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		transfer := parseJSON(t, rec)["transfer"].(map[string]interface{})
		expense := transfer["expense_leg"].(map[string]interface{})
		income := transfer["income_leg"].(map[string]interface{})
		if expense["amount"].(float64) != -4000 || income["amount"].(float64) != 4000 {
			t.Errorf("unexpected legs: %v / %v", expense, income)
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceID != testRecordID {
			t.Errorf("expected audit on the expense leg, got %+v", audit.entries)
		}
	})

	t.Run("returns 400 on non-positive amount", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/transfers",
			`{"from_account_id":"`+testAccountID+`","to_account_id":"`+testOtherID+`","amount":-1}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	errs := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{apperrors.ErrSameAccountTransfer, http.StatusBadRequest, "SAME_ACCOUNT_TRANSFER"},
		{apperrors.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{apperrors.ErrUpdateFailed, http.StatusConflict, "UPDATE_FAILED"},
	}
	for _, tt := range errs {
		t.Run("maps "+tt.code, func(t *testing.T) {
			svc := &mockTransferService{
				transferFundsFn: func(context.Context, string, string, string, int64) (*services.TransferResult, error) {
					return nil, tt.err
				},
			}
			audit := &mockAuditService{}
			r := setupTransferRouter(NewTransferHandler(svc, audit))

			rec := doRequest(r, "POST", "/transfers",
				`{"from_account_id":"`+testAccountID+`","to_account_id":"`+testOtherID+`","amount":10}`)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tt.code)
			if len(audit.entries) != 0 {
				t.Error("failed transfers must not be audited")
			}
		})
	}
}
