package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewTransactionID returns an opaque 32-character hex id.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsTransactionID reports whether s has the shape NewTransactionID produces.
func IsTransactionID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
