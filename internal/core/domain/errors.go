package domain

import "github.com/SscSPs/rental_backoffice_app/internal/apperrors"

func invalid(format string, args ...any) error {
	return apperrors.NewValidationError(format, args...)
}
