package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestSelectEffectiveLimits_SpaceOverridesGlobal(t *testing.T) {
	spaceID := uuid.New()
	otherSpace := uuid.New()

	globalMonthly := &TimeLimit{ID: uuid.New(), LimitType: LimitTypeMonthly, LimitHours: decimal.NewFromInt(10)}
	spaceMonthly := &TimeLimit{ID: uuid.New(), CommonSpaceID: &spaceID, LimitType: LimitTypeMonthly, LimitHours: decimal.NewFromInt(5)}
	globalYearly := &TimeLimit{ID: uuid.New(), LimitType: LimitTypeYearly, LimitHours: decimal.NewFromInt(100)}
	otherYearly := &TimeLimit{ID: uuid.New(), CommonSpaceID: &otherSpace, LimitType: LimitTypeYearly, LimitHours: decimal.NewFromInt(1)}

	// Order must not matter: the space row wins even when listed first
	got := SelectEffectiveLimits([]*TimeLimit{spaceMonthly, globalYearly, globalMonthly, otherYearly}, spaceID)

	if len(got) != 2 {
		t.Fatalf("Expected 2 effective limits, got %d", len(got))
	}
	if got[0].ID != spaceMonthly.ID {
		t.Errorf("Expected space-specific monthly limit first, got %v", got[0].ID)
	}
	if got[1].ID != globalYearly.ID {
		t.Errorf("Expected global yearly limit, got %v", got[1].ID)
	}
}

func TestSelectEffectiveLimits_GlobalOnly(t *testing.T) {
	global := &TimeLimit{ID: uuid.New(), LimitType: LimitTypeYearly, LimitHours: decimal.NewFromInt(40)}

	got := SelectEffectiveLimits([]*TimeLimit{global}, uuid.New())
	if len(got) != 1 || got[0].ID != global.ID {
		t.Fatalf("Expected the global limit to apply, got %v", got)
	}
}

func TestSelectEffectiveLimits_None(t *testing.T) {
	if got := SelectEffectiveLimits(nil, uuid.New()); len(got) != 0 {
		t.Errorf("Expected no limits, got %d", len(got))
	}
}

func TestTimeLimit_Validate(t *testing.T) {
	tests := []struct {
		name    string
		limit   TimeLimit
		wantErr error
	}{
		{"valid monthly", TimeLimit{LimitType: LimitTypeMonthly, LimitHours: decimal.NewFromInt(5)}, nil},
		{"valid fractional", TimeLimit{LimitType: LimitTypeYearly, LimitHours: decimal.NewFromFloat(0.5)}, nil},
		{"bad type", TimeLimit{LimitType: "weekly", LimitHours: decimal.NewFromInt(5)}, ErrInvalidLimitType},
		{"zero hours", TimeLimit{LimitType: LimitTypeMonthly, LimitHours: decimal.Zero}, ErrInvalidLimitHours},
		{"negative hours", TimeLimit{LimitType: LimitTypeMonthly, LimitHours: decimal.NewFromInt(-1)}, ErrInvalidLimitHours},
		{"too many hours", TimeLimit{LimitType: LimitTypeYearly, LimitHours: decimal.NewFromInt(9000)}, ErrInvalidLimitHours},
		{"two decimals", TimeLimit{LimitType: LimitTypeMonthly, LimitHours: decimal.RequireFromString("0.01")}, nil},
		{"trailing zeros", TimeLimit{LimitType: LimitTypeMonthly, LimitHours: decimal.RequireFromString("2.500")}, nil},
		{"rounds to zero", TimeLimit{LimitType: LimitTypeMonthly, LimitHours: decimal.RequireFromString("0.004")}, ErrInvalidLimitHours},
		{"three decimals", TimeLimit{LimitType: LimitTypeMonthly, LimitHours: decimal.RequireFromString("1.125")}, ErrInvalidLimitHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limit.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLimitType_PeriodStart(t *testing.T) {
	asOf := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

	if got := LimitTypeMonthly.PeriodStart(asOf, time.UTC); !got.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Monthly period start = %v", got)
	}
	if got := LimitTypeYearly.PeriodStart(asOf, time.UTC); !got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Yearly period start = %v", got)
	}
}

func TestQuotaExceededError(t *testing.T) {
	err := error(&QuotaExceededError{
		LimitType:      LimitTypeMonthly,
		LimitHours:     decimal.NewFromInt(5),
		UsedHours:      decimal.NewFromInt(4),
		RequestedHours: decimal.NewFromInt(2),
		RemainingHours: decimal.NewFromInt(1),
	})

	if !errors.Is(err, ErrQuotaExceeded) {
		t.Error("Expected QuotaExceededError to match ErrQuotaExceeded")
	}

	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatal("Expected errors.As to find QuotaExceededError")
	}
	if !quotaErr.RemainingHours.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected 1 remaining hour, got %s", quotaErr.RemainingHours)
	}
	if err.Error() != "monthly time limit of 5.00 hours exceeded: 1.00 hours remaining" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestSortTimeLimits(t *testing.T) {
	spaceID := uuid.New()
	rows := []*TimeLimit{
		{LimitType: LimitTypeYearly},
		{LimitType: LimitTypeMonthly},
		{LimitType: LimitTypeYearly, CommonSpaceID: &spaceID},
	}

	SortTimeLimits(rows)

	if rows[0].IsGlobal() {
		t.Error("Expected space-specific limit first")
	}
	if rows[1].LimitType != LimitTypeMonthly || rows[2].LimitType != LimitTypeYearly {
		t.Errorf("Expected global limits ordered monthly, yearly; got %s, %s", rows[1].LimitType, rows[2].LimitType)
	}
}
