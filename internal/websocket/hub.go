package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when sending to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is a viewer the hub can deliver to
type ClientInterface interface {
	ID() string
	BuildingID() uuid.UUID
	Accepts(event Event) bool
	Send(data []byte) error
	Close() error
}

// feed is the set of viewers of one building
type feed map[string]ClientInterface

// Hub fans events out to the viewers of each building.
// It is safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	feeds map[uuid.UUID]feed
}

func NewHub() *Hub {
	return &Hub{feeds: make(map[uuid.UUID]feed)}
}

// Register subscribes client to its building's feed
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[client.BuildingID()]
	if !ok {
		f = make(feed)
		h.feeds[client.BuildingID()] = f
	}
	f[client.ID()] = client

	log.Debug().
		Str("building_id", client.BuildingID().String()).
		Str("client_id", client.ID()).
		Int("viewers", len(f)).
		Msg("WebSocket client registered")
}

// Unregister removes client. Unknown clients are ignored.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[client.BuildingID()]
	if !ok {
		return
	}
	if _, ok := f[client.ID()]; !ok {
		return
	}
	delete(f, client.ID())
	if len(f) == 0 {
		delete(h.feeds, client.BuildingID())
	}

	log.Debug().
		Str("building_id", client.BuildingID().String()).
		Str("client_id", client.ID()).
		Msg("WebSocket client unregistered")
}

// viewers snapshots a building's feed so delivery runs without the lock
func (h *Hub) viewers(buildingID uuid.UUID) []ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()

	f := h.feeds[buildingID]
	out := make([]ClientInterface, 0, len(f))
	for _, c := range f {
		out = append(out, c)
	}
	return out
}

// Broadcast delivers event to every viewer of buildingID whose watch
// filter accepts it. Delivery never blocks; slow viewers drop the event.
func (h *Hub) Broadcast(buildingID uuid.UUID, event Event) {
	viewers := h.viewers(buildingID)
	if len(viewers) == 0 {
		return
	}

	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).
			Str("building_id", buildingID.String()).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	delivered := 0
	for _, c := range viewers {
		if !c.Accepts(event) {
			continue
		}
		if err := c.Send(data); err != nil {
			log.Warn().Err(err).
				Str("building_id", buildingID.String()).
				Str("client_id", c.ID()).
				Msg("Failed to deliver event")
			continue
		}
		delivered++
	}

	log.Debug().
		Str("building_id", buildingID.String()).
		Str("event_type", event.Type).
		Int("delivered", delivered).
		Msg("Broadcast event")
}

// Publish implements EventPublisher
func (h *Hub) Publish(buildingID uuid.UUID, event Event) {
	h.Broadcast(buildingID, event)
}

// ClientCount returns the number of viewers of a building
func (h *Hub) ClientCount(buildingID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[buildingID])
}

// TotalClientCount returns the number of viewers across all buildings
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, f := range h.feeds {
		total += len(f)
	}
	return total
}

// Shutdown closes every viewer and empties the hub
func (h *Hub) Shutdown() {
	h.mu.Lock()
	feeds := h.feeds
	h.feeds = make(map[uuid.UUID]feed)
	h.mu.Unlock()

	closed := 0
	for _, f := range feeds {
		for _, c := range f {
			_ = c.Close()
			closed++
		}
	}
	log.Info().Int("clients", closed).Msg("WebSocket hub shut down")
}
