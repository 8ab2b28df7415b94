package store

import (
	"errors"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/database"
)

// storageError converts a driver-level failure into a persistence error
// with a message that is safe to return to clients. Errors that already
// belong to the taxonomy pass through untouched.
func storageError(message string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch database.ClassifyError(err) {
	case database.ErrorClassForeignKey:
		return apperr.Persistence("referenced menu item does not exist", err)
	case database.ErrorClassCheckViolation:
		return apperr.Persistence("record violates a storage constraint", err)
	case database.ErrorClassTransient:
		return apperr.Persistence("storage temporarily unavailable", err)
	}

	return apperr.Persistence(message, err)
}
