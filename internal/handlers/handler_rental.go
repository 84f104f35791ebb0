package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// rentalHandler handles transactions and the rentals among them.
type rentalHandler struct {
	repos portssvc.RepositorySvc
}

func registerRentalRoutes(rg *gin.RouterGroup, repos portssvc.RepositorySvc) {
	h := &rentalHandler{repos: repos}

	rg.GET("/projects/:projectId/transactions", h.listTransactions)
	rg.POST("/projects/:projectId/transactions", h.createTransaction)
	rg.GET("/transactions/bounds", h.dateBounds)

	rg.GET("/projects/:projectId/rentals", h.listRentals)
	rg.POST("/projects/:projectId/rentals", h.createRental)

	rentals := rg.Group("/rentals/:transactionId")
	{
		rentals.GET("", h.getRental)
		rentals.PUT("", h.updateRental)
		rentals.DELETE("", h.deleteRental)
		rentals.GET("/payments", h.listRentalPayments)
	}
}

func transactionKey(t domain.Transaction) (string, string) { return t.Date, t.ID }

// transactionIDParam reads a 32-hex transaction id from the path.
func transactionIDParam(c *gin.Context, logger *slog.Logger) (string, bool) {
	id := c.Param("transactionId")
	if !utils.IsTransactionID(id) {
		respondError(c, logger, apperrors.NewValidationError("invalid transaction id %q", id), "Invalid transaction id")
		return "", false
	}
	return id, true
}

// listTransactions godoc
// @Summary List a project's transactions
// @Description Ordered by date then id, paged with nextToken
// @Tags transactions
// @Produce json
// @Param projectId path int true "Project ID"
// @Param kind query string false "Income or Expense"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListResponse[domain.Transaction]
// @Router /projects/{projectId}/transactions [get]
func (h *rentalHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var filter domain.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, logger, err)
		return
	}
	if err := utils.ValidateInput(filter); err != nil {
		respondError(c, logger, err, "Invalid filter")
		return
	}

	txs, err := h.repos.Current().ListTransactions(c.Request.Context(), projectID, filter)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}
	respondPage(c, logger, txs, transactionKey)
}

// createTransaction godoc
// @Summary Record an income or expense
// @Tags transactions
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param transaction body domain.TransactionInput true "Transaction details"
// @Success 201 {object} domain.Transaction
// @Router /projects/{projectId}/transactions [post]
func (h *rentalHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var req domain.TransactionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = projectID

	tx, err := h.repos.Current().CreateTransaction(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create transaction")
		return
	}
	logger.Info("Transaction created", slog.String("transaction_id", tx.ID))
	c.JSON(http.StatusCreated, tx)
}

// dateBounds godoc
// @Summary Earliest and latest transaction dates
// @Tags transactions
// @Produce json
// @Success 200 {object} domain.DateBounds
// @Router /transactions/bounds [get]
func (h *rentalHandler) dateBounds(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	bounds, err := h.repos.DateBounds(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to read date bounds")
		return
	}
	c.JSON(http.StatusOK, bounds)
}

// listRentals godoc
// @Summary List a project's rentals
// @Tags rentals
// @Produce json
// @Param projectId path int true "Project ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Param client_id query int false "Client ID"
// @Param operator_id query int false "Operator ID"
// @Param equipment_id query int false "Equipment ID"
// @Param q query string false "Text matched against description, comment, delivery note and location"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListResponse[domain.Transaction]
// @Router /projects/{projectId}/rentals [get]
func (h *rentalHandler) listRentals(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var filter domain.RentalFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, logger, err)
		return
	}
	if err := utils.ValidateInput(filter); err != nil {
		respondError(c, logger, err, "Invalid filter")
		return
	}

	rentals, err := h.repos.Current().ListRentals(c.Request.Context(), projectID, filter)
	if err != nil {
		respondError(c, logger, err, "Failed to list rentals")
		return
	}
	respondPage(c, logger, rentals, transactionKey)
}

// createRental godoc
// @Summary Record a rental
// @Description Writes the income transaction and its rental meta row together
// @Tags rentals
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param rental body domain.RentalInput true "Rental details"
// @Success 201 {object} domain.RentalDetail
// @Router /projects/{projectId}/rentals [post]
func (h *rentalHandler) createRental(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var req domain.RentalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = projectID

	detail, err := h.repos.Current().CreateRental(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create rental")
		return
	}
	logger.Info("Rental created", slog.String("transaction_id", detail.Transaction.ID))
	c.JSON(http.StatusCreated, detail)
}

func (h *rentalHandler) findRental(c *gin.Context, logger *slog.Logger) (*domain.RentalDetail, bool) {
	id, ok := transactionIDParam(c, logger)
	if !ok {
		return nil, false
	}
	detail, err := h.repos.Current().FindRentalDetail(c.Request.Context(), id)
	if err == nil && detail == nil {
		err = apperrors.NewNotFoundError("rental not found")
	}
	if err != nil {
		respondError(c, logger, err, "Failed to get rental")
		return nil, false
	}
	return detail, true
}

// getRental godoc
// @Summary Get a rental with its meta row
// @Tags rentals
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} domain.RentalDetail
// @Failure 404 {object} dto.ErrorResponse
// @Router /rentals/{transactionId} [get]
func (h *rentalHandler) getRental(c *gin.Context) {
	detail, ok := h.findRental(c, middleware.GetLoggerFromContext(c))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, detail)
}

// updateRental godoc
// @Summary Edit a rental
// @Tags rentals
// @Accept json
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Param rental body domain.RentalInput true "Rental details"
// @Success 200 {object} domain.RentalDetail
// @Router /rentals/{transactionId} [put]
func (h *rentalHandler) updateRental(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	existing, ok := h.findRental(c, logger)
	if !ok {
		return
	}
	var req domain.RentalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = existing.Transaction.ProjectID

	detail, err := h.repos.Current().UpdateRental(c.Request.Context(), existing.Transaction.ID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update rental")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// deleteRental godoc
// @Summary Delete a rental
// @Description Removes the transaction, its meta row and its payments
// @Tags rentals
// @Param transactionId path string true "Transaction ID"
// @Success 204
// @Router /rentals/{transactionId} [delete]
func (h *rentalHandler) deleteRental(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	id, ok := transactionIDParam(c, logger)
	if !ok {
		return
	}
	if err := h.repos.Current().DeleteRental(c.Request.Context(), id); err != nil {
		respondError(c, logger, err, "Failed to delete rental")
		return
	}
	logger.Info("Rental deleted", slog.String("transaction_id", id))
	c.Status(http.StatusNoContent)
}

// listRentalPayments godoc
// @Summary Payments applied to a rental
// @Tags rentals
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {array} domain.Payment
// @Router /rentals/{transactionId}/payments [get]
func (h *rentalHandler) listRentalPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	id, ok := transactionIDParam(c, logger)
	if !ok {
		return
	}
	payments, err := h.repos.Current().ListPaymentsByTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, logger, err, "Failed to list payments")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	c.JSON(http.StatusOK, payments)
}
