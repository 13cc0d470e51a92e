package repository

import (
	"errors"
	"fmt"
	"strings"

	"journal/internal/models"

	"gorm.io/gorm"
)

// translateError maps GORM and driver errors onto AppErrors. resource and id
// only feed the not-found and duplicate messages.
func translateError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueConstraintError(err):
		return models.NewDuplicateError(fmt.Sprintf("%s already exists", resource))
	case errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKeyError(err):
		return models.NewValidationError("Referenced record does not exist")
	default:
		return models.NewInternalError(err)
	}
}

// isUniqueConstraintError catches unique violations from drivers whose
// errors GORM does not translate.
func isUniqueConstraintError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func isForeignKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") ||
		strings.Contains(msg, "23503")
}
