package ports

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/teneo-node-cli/internal/domain"
)

// ErrMalformedFrame marks an inbound frame that could not be decoded.
// The connection itself is still healthy; callers discard the frame and
// keep reading.
var ErrMalformedFrame = errors.New("malformed frame")

// StatusFrame is an inbound server frame summarizing session counters.
type StatusFrame struct {
	Type        string
	UserID      string
	PointsToday int64
	PointsTotal int64
}

// Conn is one established persistent connection. ReadStatus is owned by
// a single reader; SendInit and SendPing may race with it and with each
// other, so implementations must serialize writes.
type Conn interface {
	ReadStatus() (StatusFrame, error)
	SendInit() error
	SendPing(now time.Time) error
	Close() error
}

// Dialer opens the persistent connection for a session. The session's
// identity and custom payload are bound into the returned Conn.
type Dialer interface {
	Dial(ctx context.Context, sess *domain.Session) (Conn, error)
}
