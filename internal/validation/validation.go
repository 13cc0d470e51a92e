// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"journal/internal/models"
)

// Field is one named input value and its length limit (0 means unlimited).
type Field struct {
	Name  string
	Value string
	Max   int
}

// Required checks that every field is non-blank and within its limit,
// returning a VALIDATION_ERROR for the first offender.
func Required(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return models.NewValidationError(fmt.Sprintf("%s is required", f.Name))
		}
		if err := MaxLength(f); err != nil {
			return err
		}
	}
	return nil
}

// MaxLength checks the field's length in characters.
func MaxLength(f Field) error {
	if f.Max > 0 && utf8.RuneCountInString(f.Value) > f.Max {
		return models.NewValidationError(fmt.Sprintf("%s too long (max %d characters)", f.Name, f.Max))
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
