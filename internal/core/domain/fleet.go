package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ComputeFleetStatus evaluates whether eq is due for maintenance as of asOf.
// The trigger comes from the latest maintenance's next-trigger when set, else from the equipment.
func ComputeFleetStatus(eq Equipment, history []Maintenance, rentals []RentalMeta, asOf string) EquipmentStatus {
	status := EquipmentStatus{Equipment: eq, UsageSinceLast: decimal.Zero}

	var last *Maintenance
	if len(history) > 0 {
		sorted := append([]Maintenance(nil), history...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Date != sorted[j].Date {
				return sorted[i].Date < sorted[j].Date
			}
			return sorted[i].ID < sorted[j].ID
		})
		last = &sorted[len(sorted)-1]
		status.LastMaintenance = last
	}

	kind, value := eq.MaintenanceTriggerKind, eq.MaintenanceTriggerValue
	if last != nil && last.NextKind != "" {
		kind, value = last.NextKind, last.NextValue
	}

	switch kind {
	case TriggerHours:
		for _, r := range rentals {
			if r.EquipmentID != eq.ID {
				continue
			}
			if last != nil && datePart(r.Date) <= last.Date {
				continue
			}
			status.UsageSinceLast = status.UsageSinceLast.Add(r.Hours)
		}
		status.Due = value.IsPositive() && status.UsageSinceLast.GreaterThanOrEqual(value)
	case TriggerDays:
		if last == nil {
			break
		}
		from, err1 := time.Parse(DateLayout, last.Date)
		to, err2 := time.Parse(DateLayout, datePart(asOf))
		if err1 != nil || err2 != nil {
			break
		}
		days := int64(to.Sub(from).Hours() / 24)
		status.UsageSinceLast = decimal.NewFromInt(days)
		if value.IsPositive() {
			status.NextDueDate = from.AddDate(0, 0, int(value.IntPart())).Format(DateLayout)
			status.Due = status.UsageSinceLast.GreaterThanOrEqual(value)
		}
	}

	if last != nil && last.NextDate != "" {
		status.NextDueDate = last.NextDate
		if datePart(asOf) >= last.NextDate {
			status.Due = true
		}
	}
	return status
}
