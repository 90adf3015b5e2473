package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pocketledger/internal/services"
)

// SetupHandler provisions a user's default data.
type SetupHandler struct {
	provisioningService services.ProvisioningServicer
	auditService        services.AuditServicer
}

// NewSetupHandler creates a new SetupHandler.
func NewSetupHandler(provisioningService services.ProvisioningServicer, auditService services.AuditServicer) *SetupHandler {
	return &SetupHandler{provisioningService: provisioningService, auditService: auditService}
}

// Setup handles provisioning default accounts, categories and goals.
// @Summary     Provision default data
// @Description Create the default accounts, categories and goals that are missing. Safe to call more than once.
// @Tags        setup
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.ProvisionResult "Records created"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Concurrent update"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /setup [post]
func (h *SetupHandler) Setup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.provisioningService.ProvisionDefaultData(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "PROVISION_DEFAULTS", "user", userID, c.ClientIP(),
		map[string]interface{}{
			"accounts_created":   result.AccountsCreated,
			"categories_created": result.CategoriesCreated,
			"goals_created":      result.GoalsCreated,
		})

	c.JSON(http.StatusOK, result)
}
