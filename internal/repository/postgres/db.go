package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// PostgreSQL error codes the repositories translate
const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isPgUniqueViolation checks if an error is a PostgreSQL unique constraint violation
func isPgUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

// isPgExclusionViolation checks if an error comes from an exclusion constraint
func isPgExclusionViolation(err error) bool {
	return pgErrorCode(err) == pgExclusionViolation
}

// isPgSerializationFailure checks for errors a retry may resolve
func isPgSerializationFailure(err error) bool {
	code := pgErrorCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}

// mapTxError translates concurrency errors into domain errors
func mapTxError(err error) error {
	switch {
	case err == nil:
		return nil
	case isPgExclusionViolation(err):
		return domain.ErrTimeConflict
	case isPgSerializationFailure(err):
		return fmt.Errorf("%w: %v", domain.ErrSerializationFailure, err)
	default:
		return err
	}
}

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func stringPtrToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func pgTextToStringPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
