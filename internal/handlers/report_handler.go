package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/services"
)

// ReportHandler serves read-only summaries.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetDashboard handles the per-account and user-wide money position.
// @Summary     Get dashboard
// @Description Balances for every account, user-wide totals and totals for the current month
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.reportService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetTransactionReport handles listing transactions in a date range with
// their account and category names.
// @Summary     Get transaction report
// @Description Transactions between from_date and to_date inclusive, newest first
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string true "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string true "End date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {array}  services.ReportLine "Report lines"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/transactions [get]
func (h *ReportHandler) GetTransactionReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if filter.FromDate == nil || filter.ToDate == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date and to_date are required"))
		return
	}

	lines, err := h.reportService.GetTransactionReport(c.Request.Context(), userID, *filter.FromDate, *filter.ToDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if lines == nil {
		lines = []services.ReportLine{}
	}

	c.JSON(http.StatusOK, gin.H{
		"from_date": filter.FromDate.Format(time.RFC3339),
		"to_date":   filter.ToDate.Format(time.RFC3339),
		"lines":     lines,
	})
}
