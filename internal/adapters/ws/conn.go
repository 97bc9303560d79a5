package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bnema/teneo-node-cli/internal/ports"
)

const (
	// writeWait bounds a single frame write; past it the transport is
	// considered gone.
	writeWait = 10 * time.Second
	// maxMessageSize caps inbound frames; the server only sends small
	// JSON status objects.
	maxMessageSize = 4096
)

// Conn wraps one gorilla connection. gorilla/websocket allows only one
// concurrent writer, and the ping sender races the supervisor's init
// and close paths, so every write goes through the mutex.
type Conn struct {
	ws      *websocket.Conn
	nodeID  string
	payload map[string]string

	writeMu sync.Mutex
}

var _ ports.Conn = (*Conn)(nil)

func newConn(ws *websocket.Conn, nodeID string, payload map[string]string) *Conn {
	ws.SetReadLimit(maxMessageSize)
	return &Conn{ws: ws, nodeID: nodeID, payload: payload}
}

type statusFrame struct {
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	PointsToday int64  `json:"pointsToday"`
	PointsTotal int64  `json:"pointsTotal"`
}

func (c *Conn) ReadStatus() (ports.StatusFrame, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return ports.StatusFrame{}, fmt.Errorf("read frame: %w", err)
	}

	var frame statusFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ports.StatusFrame{}, fmt.Errorf("%w: %w", ports.ErrMalformedFrame, err)
	}

	return ports.StatusFrame{
		Type:        frame.Type,
		UserID:      frame.UserID,
		PointsToday: frame.PointsToday,
		PointsTotal: frame.PointsTotal,
	}, nil
}

func (c *Conn) SendInit() error {
	return c.writeJSON(c.frame("init", nil))
}

func (c *Conn) SendPing(now time.Time) error {
	return c.writeJSON(c.frame("ping", map[string]any{
		"timestamp": now.Format(time.RFC3339),
	}))
}

// frame builds an outbound frame with the session's custom payload
// flattened into the top-level object, as the server expects.
func (c *Conn) frame(frameType string, extra map[string]any) map[string]any {
	frame := map[string]any{
		"type":    frameType,
		"node_id": c.nodeID,
	}
	for key, value := range c.payload {
		frame[key] = value
	}
	for key, value := range extra {
		frame[key] = value
	}
	return frame
}

func (c *Conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
