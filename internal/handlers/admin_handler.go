package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
)

// AdminHandler serves operator endpoints guarded by the admin API key.
type AdminHandler struct {
	provisioningService services.ProvisioningServicer
	goalService         services.GoalRecomputer
	auditService        services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(provisioningService services.ProvisioningServicer, goalService services.GoalRecomputer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{
		provisioningService: provisioningService,
		goalService:         goalService,
		auditService:        auditService,
	}
}

func targetUserID(c *gin.Context) (string, error) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "userId is required")
	}
	return userID, nil
}

// ProvisionUser handles provisioning defaults on behalf of a user.
// @Summary     Provision a user's default data
// @Description Operator variant of /setup for the given user
// @Tags        admin
// @Produce     json
// @Param       X-API-Key header string true "Admin API key"
// @Param       userId    path   string true "User ID"
// @Success     200 {object} services.ProvisionResult "Records created"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Admin API not configured"
// @Router      /admin/users/{userId}/provision [post]
func (h *AdminHandler) ProvisionUser(c *gin.Context) {
	userID, err := targetUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.provisioningService.ProvisionDefaultData(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADMIN_PROVISION_DEFAULTS", "user", userID, c.ClientIP(),
		map[string]interface{}{
			"accounts_created":   result.AccountsCreated,
			"categories_created": result.CategoriesCreated,
			"goals_created":      result.GoalsCreated,
		})

	c.JSON(http.StatusOK, result)
}

// RecomputeGoals handles re-deriving goal progress for one account.
// @Summary     Recompute an account's goals
// @Description Re-derive current-period goal progress from the account's transactions
// @Tags        admin
// @Produce     json
// @Param       X-API-Key header string true "Admin API key"
// @Param       userId    path   string true "User ID"
// @Param       id        path   string true "Account ID"
// @Success     200 {object} MessageResponse "Goals recomputed"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Admin API not configured"
// @Router      /admin/users/{userId}/accounts/{id}/recompute [post]
func (h *AdminHandler) RecomputeGoals(c *gin.Context) {
	userID, err := targetUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.goalService.RecomputeGoalsForAccount(c.Request.Context(), userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADMIN_RECOMPUTE_GOALS", "account", accountID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Goals recomputed"})
}

// DeleteUser handles wiping every record a user owns.
// @Summary     Delete a user's data
// @Description Remove all accounts, transactions, categories and goals of the given user in one transaction
// @Tags        admin
// @Produce     json
// @Param       X-API-Key header string true "Admin API key"
// @Param       userId    path   string true "User ID"
// @Success     200 {object} services.DeletionResult "Records deleted"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     409 {object} ErrorResponse "Update failed, try again"
// @Failure     503 {object} ErrorResponse "Admin API not configured"
// @Router      /admin/users/{userId} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := targetUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.provisioningService.DeleteUserData(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADMIN_DELETE_USER", "user", userID, c.ClientIP(),
		map[string]interface{}{
			"accounts_deleted":     result.AccountsDeleted,
			"transactions_deleted": result.TransactionsDeleted,
			"categories_deleted":   result.CategoriesDeleted,
			"goals_deleted":        result.GoalsDeleted,
		})

	c.JSON(http.StatusOK, result)
}
