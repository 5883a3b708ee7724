package websocket

import (
	"encoding/json"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
)

// Event names pushed to building feeds
const (
	TypeBookingCreated     = "booking.created"
	TypeBookingCancelled   = "booking.cancelled"
	TypeCommonSpaceCreated = "common_space.created"
	TypeCommonSpaceUpdated = "common_space.updated"
	TypeRestrictionUpdated = "restriction.updated"
)

// EntityType names the kind of record an event carries
type EntityType string

const (
	EntityTypeBooking     EntityType = "booking"
	EntityTypeCommonSpace EntityType = "common_space"
	EntityTypeRestriction EntityType = "restriction"
)

// Event is one message on a building feed.
// CommonSpaceID scopes the event so viewers can watch a subset of spaces.
type Event struct {
	Type          string      `json:"type"`
	Entity        EntityType  `json:"entity"`
	CommonSpaceID uuid.UUID   `json:"commonSpaceId"`
	Payload       interface{} `json:"payload"`
	Timestamp     time.Time   `json:"timestamp"`
}

func newEvent(eventType string, entity EntityType, spaceID uuid.UUID, payload interface{}) Event {
	return Event{
		Type:          eventType,
		Entity:        entity,
		CommonSpaceID: spaceID,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON serializes the event
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BookingCreated announces a confirmed booking
func BookingCreated(b *domain.Booking) Event {
	return newEvent(TypeBookingCreated, EntityTypeBooking, b.CommonSpaceID, b)
}

// BookingCancelled announces a cancellation, which frees the slot
func BookingCancelled(b *domain.Booking) Event {
	return newEvent(TypeBookingCancelled, EntityTypeBooking, b.CommonSpaceID, b)
}

func CommonSpaceCreated(s *domain.CommonSpace) Event {
	return newEvent(TypeCommonSpaceCreated, EntityTypeCommonSpace, s.ID, s)
}

func CommonSpaceUpdated(s *domain.CommonSpace) Event {
	return newEvent(TypeCommonSpaceUpdated, EntityTypeCommonSpace, s.ID, s)
}

// RestrictionUpdated announces a block or unblock
func RestrictionUpdated(r *domain.Restriction) Event {
	return newEvent(TypeRestrictionUpdated, EntityTypeRestriction, r.CommonSpaceID, r)
}
