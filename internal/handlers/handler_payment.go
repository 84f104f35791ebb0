package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/dto"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles payments and client balances.
type paymentHandler struct {
	repos portssvc.RepositorySvc
}

func registerPaymentRoutes(rg *gin.RouterGroup, repos portssvc.RepositorySvc) {
	h := &paymentHandler{repos: repos}

	rg.GET("/projects/:projectId/payments", h.listPayments)
	rg.POST("/projects/:projectId/payments", h.allocateGeneralPayment)
	rg.GET("/projects/:projectId/clients/:clientId/outstanding", h.clientOutstanding)

	rg.DELETE("/payments", h.deletePayments)
	payments := rg.Group("/payments/:paymentId")
	{
		payments.GET("", h.getPayment)
		payments.PUT("", h.updatePayment)
	}
}

// listPayments godoc
// @Summary List a project's payments
// @Tags payments
// @Produce json
// @Param projectId path int true "Project ID"
// @Param client_id query int false "Client ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListResponse[domain.Payment]
// @Router /projects/{projectId}/payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var filter domain.PaymentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, logger, err)
		return
	}
	if err := utils.ValidateInput(filter); err != nil {
		respondError(c, logger, err, "Invalid filter")
		return
	}

	payments, err := h.repos.Current().ListPayments(c.Request.Context(), projectID, filter)
	if err != nil {
		respondError(c, logger, err, "Failed to list payments")
		return
	}
	respondPage(c, logger, payments, func(p domain.Payment) (string, string) {
		return p.Date, paymentSortID(p.ID)
	})
}

// paymentSortID pads ids so the lexical page order matches the numeric one.
func paymentSortID(id int64) string {
	return fmt.Sprintf("%019d", id)
}

// allocateGeneralPayment godoc
// @Summary Receive a general payment from a client
// @Description Spreads the amount over the client's unpaid rentals oldest first. Any remainder is reported, not kept as credit.
// @Tags payments
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param payment body domain.GeneralPaymentInput true "Payment details"
// @Success 201 {object} domain.AllocationResult
// @Failure 422 {object} dto.ErrorResponse "Client owes nothing"
// @Router /projects/{projectId}/payments [post]
func (h *paymentHandler) allocateGeneralPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var req domain.GeneralPaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = projectID

	result, err := h.repos.Current().AllocateGeneralPayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to allocate payment")
		return
	}
	logger.Info("General payment allocated",
		slog.Int64("client_id", req.ClientID),
		slog.Int("payments", len(result.Payments)),
		slog.String("unapplied", result.Unapplied.String()),
	)
	c.JSON(http.StatusCreated, result)
}

// clientOutstanding godoc
// @Summary What a client still owes
// @Tags payments
// @Produce json
// @Param projectId path int true "Project ID"
// @Param clientId path int true "Client ID"
// @Success 200 {object} dto.OutstandingResponse
// @Router /projects/{projectId}/clients/{clientId}/outstanding [get]
func (h *paymentHandler) clientOutstanding(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	clientID, ok := int64Param(c, logger, "clientId")
	if !ok {
		return
	}
	owed, err := h.repos.Current().ClientOutstanding(c.Request.Context(), projectID, clientID)
	if err != nil {
		respondError(c, logger, err, "Failed to compute outstanding balance")
		return
	}
	symbol := domain.DefaultCurrency
	if project, err := h.repos.Current().FindProjectByID(c.Request.Context(), projectID); err == nil && project != nil && project.Currency != "" {
		symbol = project.Currency
	}
	c.JSON(http.StatusOK, dto.OutstandingResponse{
		ProjectID:   projectID,
		ClientID:    clientID,
		Outstanding: owed,
		Display:     utils.FormatMoney(owed, symbol),
	})
}

// getPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Param paymentId path int true "Payment ID"
// @Success 200 {object} domain.Payment
// @Router /payments/{paymentId} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	paymentID, ok := int64Param(c, logger, "paymentId")
	if !ok {
		return
	}
	p, err := h.repos.Current().FindPaymentByID(c.Request.Context(), paymentID)
	if err == nil && p == nil {
		err = apperrors.NewNotFoundError("payment not found")
	}
	if err != nil {
		respondError(c, logger, err, "Failed to get payment")
		return
	}
	c.JSON(http.StatusOK, p)
}

// updatePayment godoc
// @Summary Edit a payment
// @Description Rejects amounts that would overpay the transaction
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentId path int true "Payment ID"
// @Param payment body domain.PaymentUpdate true "Payment fields"
// @Success 200 {object} domain.Payment
// @Router /payments/{paymentId} [put]
func (h *paymentHandler) updatePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	paymentID, ok := int64Param(c, logger, "paymentId")
	if !ok {
		return
	}
	var req domain.PaymentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	p, err := h.repos.Current().UpdatePayment(c.Request.Context(), paymentID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update payment")
		return
	}
	c.JSON(http.StatusOK, p)
}

// deletePayments godoc
// @Summary Delete payments
// @Tags payments
// @Accept json
// @Param request body dto.DeletePaymentsRequest true "Payment IDs"
// @Success 204
// @Router /payments [delete]
func (h *paymentHandler) deletePayments(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.DeletePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	if err := h.repos.Current().DeletePayments(c.Request.Context(), req.IDs); err != nil {
		respondError(c, logger, err, "Failed to delete payments")
		return
	}
	logger.Info("Payments deleted", slog.Int("count", len(req.IDs)))
	c.Status(http.StatusNoContent)
}
