package mapping

import (
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
)

// ToDomainEquipment converts a model Equipment to a domain Equipment
func ToDomainEquipment(m models.Equipment) domain.Equipment {
	return domain.Equipment{
		ID:                      m.ID,
		ProjectID:               m.ProjectID,
		Name:                    m.Name,
		Brand:                   m.Brand,
		Model:                   m.Model,
		Category:                m.Category,
		Subtype:                 m.Subtype,
		Active:                  m.Active,
		MaintenanceTriggerKind:  domain.TriggerKind(m.MaintenanceTriggerKind),
		MaintenanceTriggerValue: m.MaintenanceTriggerValue,
	}
}

// ToDomainEquipmentSlice converts a slice of model Equipment to domain Equipment
func ToDomainEquipmentSlice(ms []models.Equipment) []domain.Equipment {
	ds := make([]domain.Equipment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEquipment(m)
	}
	return ds
}

// ToDomainEntity converts a model Entity to a domain Entity
func ToDomainEntity(m models.Entity) domain.Entity {
	return domain.Entity{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		Kind:       domain.EntityKind(m.Kind),
		Name:       m.Name,
		Phone:      m.Phone,
		NationalID: m.NationalID,
		Active:     m.Active,
	}
}

// ToDomainEntitySlice converts a slice of model Entities to domain Entities
func ToDomainEntitySlice(ms []models.Entity) []domain.Entity {
	ds := make([]domain.Entity, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEntity(m)
	}
	return ds
}

// ToDomainMaintenance converts a model Maintenance to a domain Maintenance
func ToDomainMaintenance(m models.Maintenance) domain.Maintenance {
	return domain.Maintenance{
		ID:            m.ID,
		EquipmentID:   m.EquipmentID,
		Date:          m.Date,
		Description:   m.Description,
		Kind:          m.Kind,
		Value:         m.Value,
		OdometerHours: m.OdometerHours,
		OdometerKM:    m.OdometerKM,
		NextKind:      domain.TriggerKind(m.NextKind),
		NextValue:     m.NextValue,
		NextDate:      m.NextDate,
	}
}

// ToDomainMaintenanceSlice converts a slice of model Maintenance to domain Maintenance
func ToDomainMaintenanceSlice(ms []models.Maintenance) []domain.Maintenance {
	ds := make([]domain.Maintenance, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainMaintenance(m)
	}
	return ds
}
