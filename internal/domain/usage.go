package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserUsage is the confirmed booking volume of one user on one space
type UserUsage struct {
	UserID       uuid.UUID       `json:"userId"`
	TotalHours   decimal.Decimal `json:"totalHours"`
	BookingCount int             `json:"bookingCount"`
}

// UsageTotals sums UserUsage rows
type UsageTotals struct {
	TotalHours   decimal.Decimal `json:"totalHours"`
	BookingCount int             `json:"bookingCount"`
	UniqueUsers  int             `json:"uniqueUsers"`
}

// SpaceStatistics is the usage report for one space since a cutoff
type SpaceStatistics struct {
	CommonSpaceID uuid.UUID   `json:"commonSpaceId"`
	Since         time.Time   `json:"since"`
	PerUser       []UserUsage `json:"perUser"`
	Totals        UsageTotals `json:"totals"`
}
