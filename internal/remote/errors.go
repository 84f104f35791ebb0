package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"google.golang.org/api/googleapi"
)

// Error is a failed remote call. Kind is one of the apperrors sentinels and is
// reachable through errors.Is.
type Error struct {
	Method   string
	Path     string
	Status   int    // 0 for transport failures
	Message  string // server message when one was returned
	Attempts int
	Kind     error
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remote %s %s", e.Method, e.Path)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " (after %d attempts)", e.Attempts)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// kindForStatus maps an HTTP status to an error kind.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.ErrAuthFailed
	case status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case status == http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	default:
		return apperrors.ErrRemote
	}
}

// responseError reads a non-2xx response into an Error. It returns nil for 2xx.
// The body is consumed.
func responseError(resp *http.Response, method, path string, attempts int) *Error {
	err := googleapi.CheckResponse(resp)
	if err == nil {
		return nil
	}
	msg := err.Error()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg = gerr.Message
		if msg == "" {
			msg = strings.TrimSpace(gerr.Body)
		}
	}
	return &Error{
		Method:   method,
		Path:     path,
		Status:   resp.StatusCode,
		Message:  msg,
		Attempts: attempts,
		Kind:     kindForStatus(resp.StatusCode),
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Status
	}
	return 0
}
