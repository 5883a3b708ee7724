package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTimeLimitNotFound = errors.New("time limit not found")
	ErrInvalidLimitType  = errors.New("limit type must be monthly or yearly")
	ErrInvalidLimitHours = errors.New("limit hours must be between 0.01 and 8784 with at most two decimal places")
	ErrQuotaExceeded     = errors.New("booking time limit exceeded")
)

// MaxLimitHours is the number of hours in a leap year
var MaxLimitHours = decimal.NewFromInt(8784)

// LimitType is the period a time limit is measured over
type LimitType string

const (
	LimitTypeMonthly LimitType = "monthly"
	LimitTypeYearly  LimitType = "yearly"
)

// LimitTypes lists the supported limit types in evaluation order
var LimitTypes = []LimitType{LimitTypeMonthly, LimitTypeYearly}

// IsValid reports whether the limit type is supported
func (t LimitType) IsValid() bool {
	return t == LimitTypeMonthly || t == LimitTypeYearly
}

// PeriodStart returns the anchor of the period containing asOf
func (t LimitType) PeriodStart(asOf time.Time, loc *time.Location) time.Time {
	if t == LimitTypeYearly {
		return util.YearStart(asOf, loc)
	}
	return util.MonthStart(asOf, loc)
}

// TimeLimit caps the hours a user may book per period. A nil CommonSpaceID
// applies the cap across all spaces.
type TimeLimit struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	CommonSpaceID *uuid.UUID      `json:"commonSpaceId"`
	LimitType     LimitType       `json:"limitType"`
	LimitHours    decimal.Decimal `json:"limitHours"`
	UpdatedBy     *uuid.UUID      `json:"updatedBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// IsGlobal reports whether the limit applies across all spaces
func (l *TimeLimit) IsGlobal() bool {
	return l.CommonSpaceID == nil
}

// Validate checks limit type and hours. Hours are stored as NUMERIC(8,2), so
// finer precision is rejected rather than rounded.
func (l *TimeLimit) Validate() error {
	if !l.LimitType.IsValid() {
		return ErrInvalidLimitType
	}
	h := l.LimitHours
	if h.LessThanOrEqual(decimal.Zero) || h.GreaterThan(MaxLimitHours) || !h.Equal(h.Truncate(2)) {
		return ErrInvalidLimitHours
	}
	return nil
}

// SelectEffectiveLimits picks, for each limit type, the row scoped to spaceID
// if one exists and otherwise the global row. Rows for other spaces are
// ignored. The result is ordered monthly before yearly.
func SelectEffectiveLimits(rows []*TimeLimit, spaceID uuid.UUID) []*TimeLimit {
	chosen := make(map[LimitType]*TimeLimit, len(LimitTypes))
	for _, row := range rows {
		switch {
		case row.CommonSpaceID != nil && *row.CommonSpaceID == spaceID:
			chosen[row.LimitType] = row
		case row.CommonSpaceID == nil:
			if existing, ok := chosen[row.LimitType]; !ok || existing.IsGlobal() {
				chosen[row.LimitType] = row
			}
		}
	}

	result := make([]*TimeLimit, 0, len(chosen))
	for _, lt := range LimitTypes {
		if limit, ok := chosen[lt]; ok {
			result = append(result, limit)
		}
	}
	return result
}

// QuotaExceededError reports which limit a booking would break
type QuotaExceededError struct {
	LimitType      LimitType
	LimitHours     decimal.Decimal
	UsedHours      decimal.Decimal
	RequestedHours decimal.Decimal
	RemainingHours decimal.Decimal
	CommonSpaceID  *uuid.UUID
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s time limit of %s hours exceeded: %s hours remaining",
		e.LimitType, e.LimitHours.StringFixed(2), e.RemainingHours.StringFixed(2))
}

// Unwrap lets errors.Is match ErrQuotaExceeded
func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// LimitUsage is a time limit together with its consumption in the current period
type LimitUsage struct {
	Limit          *TimeLimit
	PeriodStart    time.Time
	UsedHours      decimal.Decimal
	RemainingHours decimal.Decimal
}

// SortTimeLimits orders rows space-specific first, then by limit type
func SortTimeLimits(rows []*TimeLimit) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].IsGlobal() != rows[j].IsGlobal() {
			return !rows[i].IsGlobal()
		}
		return rows[i].LimitType < rows[j].LimitType
	})
}

// TimeLimitRepository defines persistence operations for time limits
type TimeLimitRepository interface {
	// ListForUserSpace returns rows for (user, space) and (user, null)
	ListForUserSpace(ctx context.Context, userID, spaceID uuid.UUID) ([]*TimeLimit, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*TimeLimit, error)
	GetByID(ctx context.Context, id uuid.UUID) (*TimeLimit, error)
	Upsert(ctx context.Context, limit *TimeLimit) (*TimeLimit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
