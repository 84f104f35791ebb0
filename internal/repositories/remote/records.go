package remote

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	client "github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/shopspring/decimal"
)

// record is a decoded document. Field names follow the local columns, but
// documents written by older clients may use the camelCase form instead.
type record map[string]any

func (rec record) get(field string) (any, bool) {
	if v, ok := rec[field]; ok {
		return v, true
	}
	v, ok := rec[utils.CamelCase(field)]
	return v, ok
}

func (rec record) str(field string) string {
	v, ok := rec.get(field)
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func (rec record) int(field string) int64 {
	n, _ := rec.optInt(field)
	return n
}

func (rec record) optInt(field string) (int64, bool) {
	v, ok := rec.get(field)
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if x == math.Trunc(x) {
			return int64(x), true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func (rec record) intPtr(field string) *int64 {
	if n, ok := rec.optInt(field); ok {
		return &n
	}
	return nil
}

func (rec record) dec(field string) decimal.Decimal {
	d, _ := rec.optDec(field)
	return d
}

func (rec record) optDec(field string) (decimal.Decimal, bool) {
	v, ok := rec.get(field)
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(x)); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

func (rec record) nullDec(field string) decimal.NullDecimal {
	if d, ok := rec.optDec(field); ok {
		return decimal.NewNullDecimal(d)
	}
	return decimal.NullDecimal{}
}

func (rec record) bool(field string) bool {
	v, ok := rec.get(field)
	if !ok || v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		b, _ := strconv.ParseBool(x)
		return b || x == "1"
	}
	return false
}

// activeFlag treats a missing flag as active, matching the local column default.
func (rec record) activeFlag() bool {
	if _, ok := rec.get("active"); !ok {
		return true
	}
	return rec.bool("active")
}

// intID is the record's integer id: the id field when present, else the document id.
func (rec record) intID() int64 {
	if n, ok := rec.optInt("id"); ok {
		return n
	}
	id, _ := strconv.ParseInt(rec.str(client.RemoteIDKey), 10, 64)
	return id
}

// strID is the record's string id: the id field when present, else the document id.
func (rec record) strID() string {
	if s := rec.str("id"); s != "" {
		return s
	}
	return rec.str(client.RemoteIDKey)
}

func docID(id int64) string { return strconv.FormatInt(id, 10) }

func decField(d decimal.Decimal) float64 { return d.InexactFloat64() }

func nullDecField(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func intPtrField(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func toProject(rec record) domain.Project {
	return domain.Project{
		ID:               rec.intID(),
		Name:             rec.str("name"),
		Description:      rec.str("description"),
		Currency:         rec.str("currency"),
		PrincipalAccount: rec.str("principal_account"),
	}
}

func projectRecord(p domain.Project) map[string]any {
	return map[string]any{
		"id":                p.ID,
		"name":              p.Name,
		"description":       p.Description,
		"currency":          p.Currency,
		"principal_account": p.PrincipalAccount,
	}
}

func toEquipment(rec record) domain.Equipment {
	return domain.Equipment{
		ID:                      rec.intID(),
		ProjectID:               rec.int("project_id"),
		Name:                    rec.str("name"),
		Brand:                   rec.str("brand"),
		Model:                   rec.str("model"),
		Category:                rec.str("category"),
		Subtype:                 rec.str("subtype"),
		Active:                  rec.activeFlag(),
		MaintenanceTriggerKind:  domain.TriggerKind(rec.str("maintenance_trigger_kind")),
		MaintenanceTriggerValue: rec.dec("maintenance_trigger_value"),
	}
}

func equipmentRecord(e domain.Equipment) map[string]any {
	return map[string]any{
		"id":                        e.ID,
		"project_id":                e.ProjectID,
		"name":                      e.Name,
		"brand":                     e.Brand,
		"model":                     e.Model,
		"category":                  e.Category,
		"subtype":                   e.Subtype,
		"active":                    e.Active,
		"maintenance_trigger_kind":  string(e.MaintenanceTriggerKind),
		"maintenance_trigger_value": decField(e.MaintenanceTriggerValue),
	}
}

func toEntity(rec record) domain.Entity {
	return domain.Entity{
		ID:         rec.intID(),
		ProjectID:  rec.int("project_id"),
		Kind:       domain.EntityKind(rec.str("kind")),
		Name:       rec.str("name"),
		Phone:      rec.str("phone"),
		NationalID: rec.str("national_id"),
		Active:     rec.activeFlag(),
	}
}

func entityRecord(e domain.Entity) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"project_id":  e.ProjectID,
		"kind":        string(e.Kind),
		"name":        e.Name,
		"phone":       e.Phone,
		"national_id": e.NationalID,
		"active":      e.Active,
	}
}

func toTransaction(rec record) domain.Transaction {
	return domain.Transaction{
		ID:             rec.strID(),
		ProjectID:      rec.int("project_id"),
		AccountID:      rec.int("account_id"),
		CategoryID:     rec.int("category_id"),
		SubcategoryID:  rec.intPtr("subcategory_id"),
		EquipmentID:    rec.intPtr("equipment_id"),
		ClientID:       rec.intPtr("client_id"),
		OperatorID:     rec.intPtr("operator_id"),
		Kind:           domain.TransactionKind(rec.str("kind")),
		Amount:         rec.dec("amount"),
		Date:           rec.str("date"),
		Description:    rec.str("description"),
		Comment:        rec.str("comment"),
		Paid:           rec.bool("paid"),
		Hours:          rec.nullDec("hours"),
		PricePerHour:   rec.nullDec("price_per_hour"),
		DeliveryNote:   rec.str("delivery_note"),
		Location:       rec.str("location"),
		AttachmentPath: rec.str("attachment_path"),
	}
}

func transactionRecord(t domain.Transaction) map[string]any {
	return map[string]any{
		"id":              t.ID,
		"project_id":      t.ProjectID,
		"account_id":      t.AccountID,
		"category_id":     t.CategoryID,
		"subcategory_id":  intPtrField(t.SubcategoryID),
		"equipment_id":    intPtrField(t.EquipmentID),
		"client_id":       intPtrField(t.ClientID),
		"operator_id":     intPtrField(t.OperatorID),
		"kind":            string(t.Kind),
		"amount":          decField(t.Amount),
		"date":            t.Date,
		"description":     t.Description,
		"comment":         t.Comment,
		"paid":            t.Paid,
		"hours":           nullDecField(t.Hours),
		"price_per_hour":  nullDecField(t.PricePerHour),
		"delivery_note":   t.DeliveryNote,
		"location":        t.Location,
		"attachment_path": t.AttachmentPath,
	}
}

func toRentalMeta(rec record) domain.RentalMeta {
	id := rec.str("transaction_id")
	if id == "" {
		id = rec.str(client.RemoteIDKey)
	}
	return domain.RentalMeta{
		TransactionID:  id,
		ProjectID:      rec.int("project_id"),
		EquipmentID:    rec.int("equipment_id"),
		ClientID:       rec.int("client_id"),
		OperatorID:     rec.int("operator_id"),
		Date:           rec.str("date"),
		Hours:          rec.dec("hours"),
		PricePerHour:   rec.dec("price_per_hour"),
		Amount:         rec.dec("amount"),
		DeliveryNote:   rec.str("delivery_note"),
		Location:       rec.str("location"),
		AttachmentPath: rec.str("attachment_path"),
	}
}

func rentalMetaRecord(m domain.RentalMeta) map[string]any {
	return map[string]any{
		"transaction_id":  m.TransactionID,
		"project_id":      m.ProjectID,
		"equipment_id":    m.EquipmentID,
		"client_id":       m.ClientID,
		"operator_id":     m.OperatorID,
		"date":            m.Date,
		"hours":           decField(m.Hours),
		"price_per_hour":  decField(m.PricePerHour),
		"amount":          decField(m.Amount),
		"delivery_note":   m.DeliveryNote,
		"location":        m.Location,
		"attachment_path": m.AttachmentPath,
	}
}

func toPayment(rec record) domain.Payment {
	return domain.Payment{
		ID:            rec.intID(),
		TransactionID: rec.str("transaction_id"),
		AccountID:     rec.int("account_id"),
		Date:          rec.str("date"),
		Amount:        rec.dec("amount"),
		Comment:       rec.str("comment"),
	}
}

func paymentRecord(p domain.Payment) map[string]any {
	return map[string]any{
		"id":             p.ID,
		"transaction_id": p.TransactionID,
		"account_id":     p.AccountID,
		"date":           p.Date,
		"amount":         decField(p.Amount),
		"comment":        p.Comment,
	}
}

func toMaintenance(rec record) domain.Maintenance {
	return domain.Maintenance{
		ID:            rec.intID(),
		EquipmentID:   rec.int("equipment_id"),
		Date:          rec.str("date"),
		Description:   rec.str("description"),
		Kind:          rec.str("kind"),
		Value:         rec.dec("value"),
		OdometerHours: rec.dec("odometer_hours"),
		OdometerKM:    rec.dec("odometer_km"),
		NextKind:      domain.TriggerKind(rec.str("next_kind")),
		NextValue:     rec.dec("next_value"),
		NextDate:      rec.str("next_date"),
	}
}

func maintenanceRecord(m domain.Maintenance) map[string]any {
	return map[string]any{
		"id":             m.ID,
		"equipment_id":   m.EquipmentID,
		"date":           m.Date,
		"description":    m.Description,
		"kind":           m.Kind,
		"value":          decField(m.Value),
		"odometer_hours": decField(m.OdometerHours),
		"odometer_km":    decField(m.OdometerKM),
		"next_kind":      string(m.NextKind),
		"next_value":     decField(m.NextValue),
		"next_date":      m.NextDate,
	}
}

// withFields copies rec and overlays fields, keeping anything else the document carried
// (migration metadata, legacy columns).
func withFields(rec record, fields map[string]any) map[string]any {
	out := make(map[string]any, len(rec)+len(fields))
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range fields {
		// Drop a camelCase twin so the document does not end up with both spellings.
		if camel := utils.CamelCase(k); camel != k {
			delete(out, camel)
		}
		out[k] = v
	}
	return out
}
