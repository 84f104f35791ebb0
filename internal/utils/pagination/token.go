// Package pagination pages ordered listings with opaque (date, id) cursor tokens.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultLimit applies when a request does not name one.
const DefaultLimit = 100

// MaxLimit caps a single page.
const MaxLimit = 1000

// EncodeToken creates a base64 encoded token from a row's date and id.
func EncodeToken(date, id string) string {
	return base64.URLEncoding.EncodeToString([]byte(date + "|" + id))
}

// DecodeToken parses the base64 encoded token back into date and id.
func DecodeToken(token string) (string, string, error) {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	date, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return "", "", fmt.Errorf("invalid pagination token format (split)")
	}
	return date, id, nil
}

// Page returns up to limit items following the item named by token, plus the token for
// the next page (empty on the last page). items must be ordered by (date, id), which
// key reports for each item.
func Page[T any](items []T, limit int, token string, key func(T) (string, string)) ([]T, string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	start := 0
	if token != "" {
		date, id, err := DecodeToken(token)
		if err != nil {
			return nil, "", err
		}
		start = len(items)
		for i, it := range items {
			d, k := key(it)
			if d > date || (d == date && k > id) {
				start = i
				break
			}
		}
	}
	end := min(start+limit, len(items))
	page := items[start:end]
	next := ""
	if end < len(items) && len(page) > 0 {
		d, k := key(page[len(page)-1])
		next = EncodeToken(d, k)
	}
	return page, next, nil
}
