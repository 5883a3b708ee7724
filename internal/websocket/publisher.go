package websocket

import "github.com/google/uuid"

// EventPublisher pushes events onto a building's feed
type EventPublisher interface {
	Publish(buildingID uuid.UUID, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// NoOpPublisher discards events when no hub is wired
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(uuid.UUID, Event) {}
