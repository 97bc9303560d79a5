package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bnema/teneo-node-cli/internal/domain"
	"github.com/bnema/teneo-node-cli/internal/ports"
)

const (
	protocolVersion         = "v0.2"
	defaultHandshakeTimeout = 30 * time.Second
)

// UserAgents supplies randomized client identification strings.
type UserAgents interface {
	Random() string
}

// Dialer opens the persistent node connection. The endpoint is
// parameterized by the session's user id; authentication rides on the
// handshake headers.
type Dialer struct {
	URL              string
	APIKey           string
	AppOrigin        string
	UserAgents       UserAgents
	HandshakeTimeout time.Duration
}

var _ ports.Dialer = Dialer{}

func (d Dialer) Dial(ctx context.Context, sess *domain.Session) (ports.Conn, error) {
	endpoint, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket url: %w", err)
	}
	query := endpoint.Query()
	query.Set("userId", sess.UserID)
	query.Set("version", protocolVersion)
	endpoint.RawQuery = query.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+sess.Token)
	header.Set("Apikey", d.APIKey)
	header.Set("Cache-Control", "private")
	header.Set("X-Client-Request-Id", uuid.NewString())
	if d.AppOrigin != "" {
		header.Set("X-Do-App-Origin", d.AppOrigin)
	}
	if d.UserAgents != nil {
		header.Set("User-Agent", d.UserAgents.Random())
	}

	handshakeTimeout := d.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	wsConn, resp, err := dialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial websocket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	return newConn(wsConn, sess.UserID, sess.CustomPayload), nil
}
