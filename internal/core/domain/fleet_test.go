package domain_test

import (
	"testing"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFleetStatus_Hours(t *testing.T) {
	eq := domain.Equipment{ID: 30, MaintenanceTriggerKind: domain.TriggerHours, MaintenanceTriggerValue: dec("250")}
	history := []domain.Maintenance{{ID: 1, EquipmentID: 30, Date: "2025-01-01"}}
	rentals := []domain.RentalMeta{
		{EquipmentID: 30, Date: "2024-12-30", Hours: dec("500")}, // before the last service
		{EquipmentID: 30, Date: "2025-01-02", Hours: dec("200")},
		{EquipmentID: 30, Date: "2025-01-03", Hours: dec("60")},
		{EquipmentID: 31, Date: "2025-01-03", Hours: dec("999")},
	}

	status := domain.ComputeFleetStatus(eq, history, rentals, "2025-01-04")

	require.NotNil(t, status.LastMaintenance)
	assert.True(t, dec("260").Equal(status.UsageSinceLast))
	assert.True(t, status.Due)
}

func TestComputeFleetStatus_DaysUsesLatestNextTrigger(t *testing.T) {
	eq := domain.Equipment{ID: 1, MaintenanceTriggerKind: domain.TriggerHours, MaintenanceTriggerValue: dec("100")}
	history := []domain.Maintenance{
		{ID: 2, Date: "2025-03-01", NextKind: domain.TriggerDays, NextValue: dec("30")},
		{ID: 1, Date: "2025-01-01"},
	}

	status := domain.ComputeFleetStatus(eq, history, nil, "2025-03-20")

	assert.Equal(t, int64(2), status.LastMaintenance.ID)
	assert.Equal(t, "2025-03-31", status.NextDueDate)
	assert.True(t, dec("19").Equal(status.UsageSinceLast))
	assert.False(t, status.Due)

	status = domain.ComputeFleetStatus(eq, history, nil, "2025-03-31")
	assert.True(t, status.Due)
}

func TestComputeFleetStatus_NextDatePassed(t *testing.T) {
	eq := domain.Equipment{ID: 1, MaintenanceTriggerKind: domain.TriggerKM}
	history := []domain.Maintenance{{ID: 1, Date: "2025-01-01", NextDate: "2025-02-01"}}

	assert.False(t, domain.ComputeFleetStatus(eq, history, nil, "2025-01-31").Due)
	assert.True(t, domain.ComputeFleetStatus(eq, history, nil, "2025-02-01").Due)
}

func TestComputeFleetStatus_NoHistory(t *testing.T) {
	eq := domain.Equipment{ID: 1, MaintenanceTriggerKind: domain.TriggerDays, MaintenanceTriggerValue: dec("30")}
	status := domain.ComputeFleetStatus(eq, nil, nil, "2025-01-01")
	assert.Nil(t, status.LastMaintenance)
	assert.False(t, status.Due)
}
