package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("record not found")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
