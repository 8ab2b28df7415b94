package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassUnknown ErrorClass = iota
	ErrorClassNotFound
	ErrorClassForeignKey
	ErrorClassUniqueViolation
	ErrorClassCheckViolation
	ErrorClassTransient
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassUnknown
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			return ErrorClassForeignKey
		case "23505":
			return ErrorClassUniqueViolation
		case "23502", "23514":
			return ErrorClassCheckViolation
		case "40001", "40P01", "55P03", "57P01":
			return ErrorClassTransient
		}
		if pqErr.Code.Class() == "08" {
			return ErrorClassTransient
		}
	}

	return ErrorClassUnknown
}

var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrOrderNotFound    = errors.New("order not found")
)
