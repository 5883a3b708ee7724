package websocket

import (
	"testing"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	tower := uuid.New()

	client := newMockClient("client-1", tower)
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(tower, BookingCreated(&domain.Booking{ID: uuid.New()}))

	assert.Len(t, client.GetMessages(), 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	var publisher EventPublisher = NoOpPublisher{}
	assert.NotPanics(t, func() {
		publisher.Publish(uuid.New(), BookingCancelled(&domain.Booking{ID: uuid.New()}))
	})
}
