package services

import (
	"errors"

	"gorm.io/gorm"

	"teamboard/internal/access"
	"teamboard/pkg/response"
)

// guardError maps an access denial to the HTTP error taxonomy: conflict for
// business-rule violations, forbidden for missing roles.
func guardError(err error) error {
	if access.IsConflict(err) {
		return response.NewConflict(err.Error())
	}
	return response.NewForbidden(err.Error())
}

// notFoundOr maps gorm's record-not-found to a NotFound AppError with msg
// and passes any other error through untouched.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound(msg)
	}
	return err
}
