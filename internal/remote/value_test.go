package remote_test

import (
	"testing"

	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecodeDocument(t *testing.T) {
	d := remote.Document{
		Name: "projects/demo/databases/(default)/documents/transactions/abc123",
		Fields: map[string]map[string]any{
			"description": {"stringValue": "Alquiler retro"},
			"equipment_id": {"integerValue": "30"},
			"amount":       {"doubleValue": 10000.0},
			"paid":         {"booleanValue": false},
			"created_at":   {"timestampValue": "2025-01-15T10:00:00Z"},
			"comment":      {"nullValue": nil},
			"tags":         {"arrayValue": map[string]any{"values": []any{}}},
			"geo":          {"geoPointValue": map[string]any{"latitude": 18.4}},
		},
	}

	rec := remote.DecodeDocument(d, nil)
	assert.Equal(t, "abc123", rec[remote.RemoteIDKey])
	assert.Equal(t, "Alquiler retro", rec["description"])
	assert.Equal(t, int64(30), rec["equipment_id"])
	assert.Equal(t, 10000.0, rec["amount"])
	assert.Equal(t, false, rec["paid"])
	assert.Equal(t, "2025-01-15T10:00:00Z", rec["created_at"])
	assert.Nil(t, rec["comment"])
	assert.IsType(t, remote.Raw{}, rec["tags"])
	assert.IsType(t, remote.Raw{}, rec["geo"])
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{name: "int64 as string", in: int64(42), want: map[string]any{"integerValue": "42"}},
		{name: "decimal as double", in: decimal.RequireFromString("1250.5"), want: map[string]any{"doubleValue": 1250.5}},
		{name: "null decimal", in: decimal.NullDecimal{}, want: map[string]any{"nullValue": nil}},
		{name: "nil pointer", in: (*int64)(nil), want: map[string]any{"nullValue": nil}},
		{name: "raw passthrough", in: remote.Raw{"geoPointValue": "x"}, want: map[string]any{"geoPointValue": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, remote.EncodeValue(tt.in))
		})
	}
}
