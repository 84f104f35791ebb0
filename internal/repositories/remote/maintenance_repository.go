package remote

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
	"github.com/shopspring/decimal"
)

func (r *Repository) ListMaintenanceByEquipment(ctx context.Context, equipmentID int64) ([]domain.Maintenance, error) {
	recs, err := r.where(ctx, database.TableMaintenance, "equipment_id", equipmentID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Maintenance, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toMaintenance(rec))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *Repository) FindMaintenanceByID(ctx context.Context, maintenanceID int64) (*domain.Maintenance, error) {
	rec, err := r.get(ctx, database.TableMaintenance, docID(maintenanceID))
	if err != nil || rec == nil {
		return nil, err
	}
	m := toMaintenance(rec)
	return &m, nil
}

func (r *Repository) CreateMaintenance(ctx context.Context, in domain.MaintenanceInput) (*domain.Maintenance, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	m := in.Maintenance(0)
	id, err := r.create(ctx, database.TableMaintenance, maintenanceRecord(m))
	if err != nil {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

func (r *Repository) UpdateMaintenance(ctx context.Context, maintenanceID int64, in domain.MaintenanceInput) (*domain.Maintenance, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	m := in.Maintenance(maintenanceID)
	if err := r.replace(ctx, database.TableMaintenance, maintenanceID, "maintenance", maintenanceRecord(m)); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) DeleteMaintenance(ctx context.Context, maintenanceID int64) error {
	if _, err := r.mustGet(ctx, database.TableMaintenance, docID(maintenanceID), fmt.Sprintf("maintenance %d", maintenanceID)); err != nil {
		return err
	}
	return r.client.DeleteDocument(ctx, database.TableMaintenance, docID(maintenanceID))
}

// FleetStatus evaluates every active equipment. An empty asOf means today.
func (r *Repository) FleetStatus(ctx context.Context, projectID int64, asOf string) ([]domain.EquipmentStatus, error) {
	if asOf == "" {
		asOf = time.Now().Format(domain.DateLayout)
	}
	active := true
	equipment, err := r.ListEquipment(ctx, projectID, &active)
	if err != nil {
		return nil, err
	}
	metas, err := r.where(ctx, database.TableRentalMeta, "project_id", projectID)
	if err != nil {
		return nil, err
	}
	rentals := make([]domain.RentalMeta, 0, len(metas))
	for _, m := range metas {
		rentals = append(rentals, toRentalMeta(m))
	}

	out := make([]domain.EquipmentStatus, 0, len(equipment))
	for _, eq := range equipment {
		history, err := r.ListMaintenanceByEquipment(ctx, eq.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ComputeFleetStatus(eq, history, rentals, asOf))
	}
	return out, nil
}

func (r *Repository) MonthlyKPIs(ctx context.Context, projectID int64, year int, month time.Month) (*domain.DashboardKPIs, error) {
	window := domain.MonthRange(year, month)
	txs, err := r.ListTransactions(ctx, projectID, domain.TransactionFilter{DateRange: window})
	if err != nil {
		return nil, err
	}
	inWindow := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		inWindow[t.ID] = struct{}{}
	}
	payments, err := r.list(ctx, database.TablePayments)
	if err != nil {
		return nil, err
	}
	paidSums := make(map[string]decimal.Decimal)
	for _, rec := range payments {
		p := toPayment(rec)
		if _, ok := inWindow[p.TransactionID]; ok {
			paidSums[p.TransactionID] = paidSums[p.TransactionID].Add(p.Amount)
		}
	}

	equipment, err := r.ListEquipment(ctx, projectID, nil)
	if err != nil {
		return nil, err
	}
	operators, err := r.ListEntities(ctx, projectID, domain.EntityOperator, true)
	if err != nil {
		return nil, err
	}
	kpis := domain.ComputeKPIs(year, month, domain.KPIInput{
		Transactions: txs,
		PaidSums:     paidSums,
		Equipment:    equipment,
		Operators:    operators,
	})
	return &kpis, nil
}
