package remote

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RemoteIDKey is the synthetic field carrying a document's id.
const RemoteIDKey = "_remote_id"

// Raw is an envelope passed through untouched: nested maps, arrays and unknown tags.
type Raw map[string]any

// Document is a document as it travels over the wire.
type Document struct {
	Name       string                    `json:"name,omitempty"`
	Fields     map[string]map[string]any `json:"fields,omitempty"`
	CreateTime string                    `json:"createTime,omitempty"`
	UpdateTime string                    `json:"updateTime,omitempty"`
}

// ID returns the last segment of the document name.
func (d Document) ID() string {
	if i := strings.LastIndex(d.Name, "/"); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// EncodeValue wraps a Go value in its tagged envelope.
func EncodeValue(v any) map[string]any {
	switch x := v.(type) {
	case nil:
		return map[string]any{"nullValue": nil}
	case Raw:
		return map[string]any(x)
	case bool:
		return map[string]any{"booleanValue": x}
	case int:
		return map[string]any{"integerValue": strconv.FormatInt(int64(x), 10)}
	case int32:
		return map[string]any{"integerValue": strconv.FormatInt(int64(x), 10)}
	case int64:
		return map[string]any{"integerValue": strconv.FormatInt(x, 10)}
	case float32:
		return map[string]any{"doubleValue": float64(x)}
	case float64:
		return map[string]any{"doubleValue": x}
	case decimal.Decimal:
		return map[string]any{"doubleValue": x.InexactFloat64()}
	case decimal.NullDecimal:
		if !x.Valid {
			return map[string]any{"nullValue": nil}
		}
		return map[string]any{"doubleValue": x.Decimal.InexactFloat64()}
	case *int64:
		if x == nil {
			return map[string]any{"nullValue": nil}
		}
		return map[string]any{"integerValue": strconv.FormatInt(*x, 10)}
	case string:
		return map[string]any{"stringValue": x}
	case time.Time:
		return map[string]any{"timestampValue": x.UTC().Format(time.RFC3339Nano)}
	case []byte:
		return map[string]any{"bytesValue": base64.StdEncoding.EncodeToString(x)}
	case map[string]any:
		return map[string]any{"mapValue": map[string]any{"fields": EncodeFields(x)}}
	case []any:
		values := make([]any, len(x))
		for i, item := range x {
			values[i] = EncodeValue(item)
		}
		return map[string]any{"arrayValue": map[string]any{"values": values}}
	default:
		return map[string]any{"stringValue": fmt.Sprint(x)}
	}
}

// EncodeFields wraps every value of a flat record. Keys starting with "_" are not sent.
func EncodeFields(record map[string]any) map[string]map[string]any {
	fields := make(map[string]map[string]any, len(record))
	for k, v := range record {
		if strings.HasPrefix(k, "_") {
			continue
		}
		fields[k] = EncodeValue(v)
	}
	return fields
}

// DecodeValue unwraps one envelope. Unknown tags are logged and passed through as Raw.
func DecodeValue(envelope map[string]any, logger *slog.Logger) any {
	for tag, v := range envelope {
		switch tag {
		case "stringValue":
			s, _ := v.(string)
			return s
		case "integerValue":
			switch n := v.(type) {
			case string:
				if i, err := strconv.ParseInt(n, 10, 64); err == nil {
					return i
				}
				return n
			case float64:
				return int64(n)
			}
			return v
		case "doubleValue":
			switch n := v.(type) {
			case float64:
				return n
			case string:
				if f, err := strconv.ParseFloat(n, 64); err == nil {
					return f
				}
			}
			return v
		case "booleanValue":
			b, _ := v.(bool)
			return b
		case "timestampValue":
			s, _ := v.(string)
			return s
		case "nullValue":
			return nil
		case "mapValue", "arrayValue":
			return Raw(envelope)
		default:
			if logger != nil {
				logger.Warn("Unknown value tag, passing through", slog.String("tag", tag))
			}
			return Raw(envelope)
		}
	}
	return nil
}

// DecodeDocument flattens a document into a record with RemoteIDKey set.
func DecodeDocument(doc Document, logger *slog.Logger) map[string]any {
	record := make(map[string]any, len(doc.Fields)+1)
	for k, envelope := range doc.Fields {
		record[k] = DecodeValue(envelope, logger)
	}
	record[RemoteIDKey] = doc.ID()
	return record
}
