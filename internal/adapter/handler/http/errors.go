package http

import (
	"errors"

	apperrors "github.com/jetdesk/billing/pkg/errors"
)

// errorMessage is the AppError message without its cause.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}

// errorDetails is the underlying cause, for response "details" fields.
func errorDetails(err error) string {
	if cause := errors.Unwrap(err); cause != nil {
		return cause.Error()
	}
	return err.Error()
}

func isNotFound(err error) bool {
	return apperrors.CodeOf(err) == apperrors.ErrNotFound
}

func statusOf(err error) int {
	return apperrors.StatusOf(err)
}
