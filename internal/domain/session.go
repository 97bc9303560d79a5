package domain

import (
	"sync"
	"time"
)

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session is the full runtime state for one account's persistent
// connection and point tracking. The connection read loop, the ping
// sender and the accrual ticker all share it, so the mutable fields are
// reached only through the guarded accessors.
type Session struct {
	UserID        string
	Email         string
	Token         string
	CustomPayload map[string]string

	mu     sync.Mutex
	state  ConnState
	ledger PointsLedger
}

func NewSession(userID, email, token string, now time.Time) *Session {
	return &Session{
		UserID:        userID,
		Email:         email,
		Token:         token,
		CustomPayload: map[string]string{},
		state:         StateDisconnected,
		ledger:        NewPointsLedger(now),
	}
}

func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetState(state ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// TouchHeartbeat records an inbound liveness confirmation. This also
// re-arms the accrual eligibility window: accrual is driven by the less
// frequent of inbound traffic and the window itself.
func (s *Session) TouchHeartbeat(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.LastHeartbeat = now
}

func (s *Session) LastHeartbeat() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.LastHeartbeat
}

func (s *Session) Points() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Daily
}

func (s *Session) LastReset() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.LastReset
}

// CheckAccrual evaluates the reset and eligibility rules once, reading
// the connection state under the same lock as the ledger so the check
// is a single atomic region.
func (s *Session) CheckAccrual(now time.Time) AccrualResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Check(now, s.state == StateConnected)
}

// SetLedger overrides the ledger wholesale. Intended for tests that
// need to start from a non-zero counter or an aged reset timestamp.
func (s *Session) SetLedger(ledger PointsLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger
}
