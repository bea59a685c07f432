package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique violation. When
// constraintName is provided the violated constraint must match it; otherwise
// any unique violation qualifies. Errors from drivers that don't expose a
// SQLSTATE fall back to message matching so the sqlite-backed tests behave
// the same way.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != uniqueViolationCode {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != uniqueViolationCode {
			return false
		}
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") &&
		!strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if constraintName == "" {
		return true
	}
	if strings.Contains(msg, constraintName) {
		return true
	}
	// sqlite names the violated column (orders.order_number) instead of the
	// index, so match the constraint with its ux_ prefix stripped.
	normalized := strings.ReplaceAll(msg, ".", "_")
	return strings.Contains(normalized, strings.TrimPrefix(constraintName, "ux_"))
}
