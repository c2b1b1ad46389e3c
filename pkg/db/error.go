package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Messages the supported dialects emit for unique-index violations:
// postgres 23505, mysql 1062, sqlite 2067. Not every driver maps these to
// gorm.ErrDuplicatedKey, so the message check backs up errors.Is.
var duplicateKeyMessages = []string{
	"duplicate key value violates unique constraint",
	"Error 1062",
	"UNIQUE constraint failed",
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
// The idempotent-create path uses this to detect a lost insert race against
// the active-record unique index.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	for _, fragment := range duplicateKeyMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
