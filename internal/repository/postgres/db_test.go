package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func TestMapTxError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"exclusion violation", &pgconn.PgError{Code: "23P01"}, domain.ErrTimeConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domain.ErrSerializationFailure},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), domain.ErrSerializationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapTxError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapTxError() = %v, want %v", got, tt.want)
			}
		})
	}

	other := errors.New("connection reset")
	if got := mapTxError(other); got != other {
		t.Errorf("Expected unrelated errors to pass through, got %v", got)
	}
	if mapTxError(nil) != nil {
		t.Error("Expected nil for nil")
	}
}

func TestIsPgUniqueViolation(t *testing.T) {
	if !isPgUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("Expected 23505 to be a unique violation")
	}
	if isPgUniqueViolation(errors.New("23505")) {
		t.Error("Expected plain errors not to match")
	}
	if isPgUniqueViolation(nil) {
		t.Error("Expected nil not to match")
	}
}

func TestNumericRoundTrip(t *testing.T) {
	in := decimal.RequireFromString("12.75")
	num, err := decimalToPgNumeric(in)
	if err != nil {
		t.Fatalf("decimalToPgNumeric() error = %v", err)
	}
	if out := pgNumericToDecimal(num); !out.Equal(in) {
		t.Errorf("Expected %s, got %s", in, out)
	}
	if !pgNumericToDecimal(pgtype.Numeric{}).IsZero() {
		t.Error("Expected invalid numeric to map to zero")
	}
}
