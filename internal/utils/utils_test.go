package utils_test

import (
	"testing"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"id":                   "id",
		"precio_por_hora":      "precioPorHora",
		"conduce_adjunto_path": "conduceAdjuntoPath",
		"project_id":           "projectId",
		"_leading":             "leading",
	}
	for in, want := range tests {
		assert.Equal(t, want, utils.CamelCase(in), in)
	}
}

func TestColumnNameMap(t *testing.T) {
	m := utils.ColumnNameMap([]string{"id", "nombre", "precio_por_hora"})
	assert.Equal(t, "precio_por_hora", m["precio_por_hora"])
	assert.Equal(t, "precio_por_hora", m["precioPorHora"])
	assert.Equal(t, "nombre", m["nombre"])
	_, ok := m["precioporhora"]
	assert.False(t, ok)
}

func TestIsIDColumn(t *testing.T) {
	assert.True(t, utils.IsIDColumn("id"))
	assert.True(t, utils.IsIDColumn("client_id"))
	assert.False(t, utils.IsIDColumn("paid"))
	assert.False(t, utils.IsIDColumn("idle_hours"))
}

func TestNewTransactionID(t *testing.T) {
	id := utils.NewTransactionID()
	assert.Len(t, id, 32)
	assert.True(t, utils.IsTransactionID(id))
	assert.NotEqual(t, id, utils.NewTransactionID())
	assert.False(t, utils.IsTransactionID("42"))
}

func TestValidateInput(t *testing.T) {
	good := domain.GeneralPaymentInput{ProjectID: 1, ClientID: 10, AccountID: 1, Date: "2025-01-15", Amount: decimal.NewFromInt(100)}
	assert.NoError(t, utils.ValidateInput(good))

	badDate := good
	badDate.Date = "15/01/2025"
	err := utils.ValidateInput(badDate)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "Date")

	zero := good
	zero.Amount = decimal.Zero
	assert.ErrorIs(t, utils.ValidateInput(zero), apperrors.ErrValidation)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "RD$ 15,600.00", utils.FormatMoney(decimal.NewFromInt(15600), "RD$"))
	assert.Equal(t, "-1,000,000.50", utils.FormatMoney(decimal.RequireFromString("-1000000.5"), ""))
	assert.Equal(t, "0.00", utils.FormatMoney(decimal.Zero, ""))
}
