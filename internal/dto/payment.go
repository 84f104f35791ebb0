package dto

import "github.com/shopspring/decimal"

// DeletePaymentsRequest names the payments to delete in one call.
type DeletePaymentsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1"`
}

// OutstandingResponse is what a client still owes in a project.
type OutstandingResponse struct {
	ProjectID   int64           `json:"projectId"`
	ClientID    int64           `json:"clientId"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Display     string          `json:"display"` // e.g. "RD$ 15,600.00"
}
