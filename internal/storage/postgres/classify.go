package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saldo-labs/akuntansid/internal/apperror"
)

// Postgres error codes the repositories translate into the platform
// error taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// wrapError translates a driver error into an *apperror.Error. Unique
// and foreign-key violations become CONFLICT, check violations become
// VALIDATION, everything else INTERNAL.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.New(apperror.KindConflict, op, duplicateMessage(pgErr), err)
		case pgForeignKeyViolation:
			return apperror.New(apperror.KindConflict, op, "row is referenced by or references missing data", err)
		case pgCheckViolation:
			return apperror.New(apperror.KindValidation, op, fmt.Sprintf("value violates constraint %s", pgErr.ConstraintName), err)
		}
	}

	return apperror.Internal(op, err)
}

func duplicateMessage(pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName != "" {
		return fmt.Sprintf("duplicate value for %s", pgErr.ConstraintName)
	}
	return "duplicate value"
}

// scanOne runs a single-row scan, mapping pgx.ErrNoRows to a NOT_FOUND
// error naming the entity.
func scanOne(op, entity string, row pgx.Row, dest ...any) error {
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound(op, entity)
		}
		return wrapError(op, err)
	}
	return nil
}
