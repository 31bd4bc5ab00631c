package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

func IsPgUniqueViolation(err error) bool { return pgCode(err) == uniqueViolation }

func IsPgCheckViolation(err error) bool { return pgCode(err) == checkViolation }

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
