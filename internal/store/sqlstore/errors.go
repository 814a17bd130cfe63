package sqlstore

import (
	"context"
	"errors"
	"strings"

	"athletehub-api/internal/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgInvalidText         = "22P02"
)

// classify maps driver errors to the taxonomy. Constraint violations are the
// caller's fault; everything else is an upstream failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "referenced record does not exist", err)
		case pgUniqueViolation:
			return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "record already exists", err)
		case pgCheckViolation, pgNotNullViolation:
			return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "record violates constraint "+pgErr.ConstraintName, err)
		case pgInvalidText:
			return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "invalid identifier format", err)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "referenced record does not exist", err)
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "record already exists", err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "record violates constraint", err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrUpstream, op, op+": store timed out", err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key constraint") {
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, "referenced record does not exist", err)
	}

	return apperrors.Upstream(op, err)
}
