package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kouden/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// pgUniqueViolation is SQLSTATE unique_violation
const pgUniqueViolation = "23505"

// isUniqueViolation recognises duplicate keys from any supported driver
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite builds without error translation
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// translateError maps driver errors onto domain errors. op names the failed
// operation for the message, e.g. "find return record".
func translateError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case isUniqueViolation(err):
		return shared.WrapDomainError(shared.CodeDuplicateRecord, op+": record already exists", err)
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapDomainError(shared.CodePersistenceFailure, "failed to "+op, err)
}
