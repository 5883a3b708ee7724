package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// maxFrameSize bounds inbound watch requests
	maxFrameSize = 4096

	// sendBuffer is how many events may queue before a viewer counts as slow
	sendBuffer = 64

	// MaxWatchedSpaces caps one watch request
	MaxWatchedSpaces = 50
)

// ErrSlowClient is returned when a viewer's queue is full and the event is dropped
var ErrSlowClient = errors.New("client send queue full")

// ErrTooManySpaces is returned for a watch request over MaxWatchedSpaces
var ErrTooManySpaces = errors.New("too many common spaces in watch request")

// WatchRequest is the only inbound frame a viewer sends. An empty list
// restores the full building feed.
type WatchRequest struct {
	Watch []uuid.UUID `json:"watch"`
}

// watchAck confirms the filter now in effect
type watchAck struct {
	Type  string      `json:"type"`
	Watch []uuid.UUID `json:"watch"`
}

// Client is one viewer subscribed to a building feed
type Client struct {
	id         string
	buildingID uuid.UUID
	userID     uuid.UUID
	conn       *websocket.Conn
	hub        *Hub

	send      chan []byte
	dropped   atomic.Int64
	closeOnce sync.Once

	mu      sync.RWMutex
	closed  bool
	watched map[uuid.UUID]struct{}
}

// NewClient creates a viewer of buildingID's feed
func NewClient(conn *websocket.Conn, buildingID, userID uuid.UUID, hub *Hub) *Client {
	return &Client{
		id:         uuid.NewString(),
		buildingID: buildingID,
		userID:     userID,
		conn:       conn,
		hub:        hub,
		send:       make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string            { return c.id }
func (c *Client) BuildingID() uuid.UUID { return c.buildingID }
func (c *Client) UserID() uuid.UUID     { return c.userID }

// Dropped reports how many events were discarded because the queue was full
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Accepts reports whether event passes the viewer's watch filter
func (c *Client) Accepts(event Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.watched) == 0 {
		return true
	}
	_, ok := c.watched[event.CommonSpaceID]
	return ok
}

// Watch replaces the watch filter. An empty list clears it.
func (c *Client) Watch(spaceIDs []uuid.UUID) error {
	if len(spaceIDs) > MaxWatchedSpaces {
		return ErrTooManySpaces
	}
	watched := make(map[uuid.UUID]struct{}, len(spaceIDs))
	for _, id := range spaceIDs {
		watched[id] = struct{}{}
	}

	c.mu.Lock()
	c.watched = watched
	c.mu.Unlock()
	return nil
}

// Send queues a frame without blocking
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.dropped.Add(1)
		return ErrSlowClient
	}
}

// Close stops the viewer. It may be called more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		if n := c.dropped.Load(); n > 0 {
			log.Warn().
				Str("client_id", c.id).
				Str("building_id", c.buildingID.String()).
				Int64("dropped", n).
				Msg("WebSocket client closed with dropped events")
		}
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// handleFrame applies one inbound watch request and queues the ack
func (c *Client) handleFrame(frame []byte) error {
	var req WatchRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		return err
	}
	if err := c.Watch(req.Watch); err != nil {
		return err
	}

	if req.Watch == nil {
		req.Watch = []uuid.UUID{}
	}
	ack, err := json.Marshal(watchAck{Type: "watch.updated", Watch: req.Watch})
	if err != nil {
		return err
	}
	return c.Send(ack)
}

// ReadPump reads watch requests until the peer goes away, then unregisters
// the viewer. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).
					Str("client_id", c.id).
					Str("building_id", c.buildingID.String()).
					Msg("WebSocket closed unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err := c.handleFrame(frame); err != nil {
			log.Debug().Err(err).
				Str("client_id", c.id).
				Msg("Ignoring invalid watch request")
		}
	}
}

// WritePump drains the send queue and keeps the connection alive with
// pings. Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed closed"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).
					Str("client_id", c.id).
					Str("building_id", c.buildingID.String()).
					Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
