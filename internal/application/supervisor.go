package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/teneo-node-cli/internal/domain"
	"github.com/bnema/teneo-node-cli/internal/ports"
)

const (
	// HeartbeatInterval is the cadence of outbound liveness frames.
	HeartbeatInterval = 15 * time.Second
	// maxBackoff caps the delay between reconnection attempts.
	maxBackoff = 30 * time.Second
)

// ConnectionSupervisor owns the open/read/reconnect cycle of one
// session's persistent connection. It retries forever: there is no
// terminal failure state.
type ConnectionSupervisor struct {
	session *domain.Session
	dialer  ports.Dialer
	gateway *NotificationGateway
	clock   ports.Clock
	logger  *zap.Logger

	heartbeatInterval time.Duration
	sleep             func(ctx context.Context, d time.Duration) error
}

func NewConnectionSupervisor(sess *domain.Session, dialer ports.Dialer, gateway *NotificationGateway, clock ports.Clock, logger *zap.Logger) *ConnectionSupervisor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConnectionSupervisor{
		session:           sess,
		dialer:            dialer,
		gateway:           gateway,
		clock:             clock,
		logger:            logger.With(zap.String("node", sess.UserID)),
		heartbeatInterval: HeartbeatInterval,
		sleep:             sleepContext,
	}
}

// Run drives the connection until ctx is canceled. Failed opens and
// dropped connections feed the same capped backoff; a successful open
// resets the failure counter.
func (s *ConnectionSupervisor) Run(ctx context.Context) {
	failures := 0
	for ctx.Err() == nil {
		s.session.SetState(domain.StateConnecting)

		conn, err := s.dialer.Dial(ctx, s.session)
		if err != nil {
			s.session.SetState(domain.StateDisconnected)
			delay := backoffDelay(failures)
			failures++
			s.logger.Warn("connection attempt failed",
				zap.Error(err),
				zap.Duration("retry_in", delay))
			if s.sleep(ctx, delay) != nil {
				return
			}
			continue
		}

		failures = 0
		if s.serveConn(ctx, conn) != nil {
			// Init frame never made it out; treat like a failed open.
			delay := backoffDelay(failures)
			failures++
			if s.sleep(ctx, delay) != nil {
				return
			}
			continue
		}

		if ctx.Err() != nil {
			return
		}
		delay := backoffDelay(failures)
		failures++
		s.logger.Info("reconnecting", zap.Duration("retry_in", delay))
		if s.sleep(ctx, delay) != nil {
			return
		}
	}
}

// serveConn runs one connection instance to completion. It returns an
// error only when the initialization frame could not be sent.
func (s *ConnectionSupervisor) serveConn(ctx context.Context, conn ports.Conn) error {
	defer func() {
		_ = conn.Close()
		s.session.SetState(domain.StateDisconnected)
	}()

	// Tear the blocked read down if the whole daemon is stopping.
	stop := context.AfterFunc(ctx, func() {
		s.session.SetState(domain.StateClosing)
		_ = conn.Close()
	})
	defer stop()

	s.session.SetState(domain.StateConnected)

	if err := conn.SendInit(); err != nil {
		s.logger.Warn("send init frame", zap.Error(err))
		return fmt.Errorf("send init frame: %w", err)
	}

	s.logger.Info("connection opened")
	s.gateway.Notify(ctx, fmt.Sprintf("*WebSocket Connection:* Opened for Node `%s`", s.session.UserID))

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go s.heartbeatLoop(heartbeatCtx, conn)

	s.readLoop(ctx, conn)
	return nil
}

// readLoop consumes inbound frames until the transport dies. Malformed
// frames are discarded without touching the connection state.
func (s *ConnectionSupervisor) readLoop(ctx context.Context, conn ports.Conn) {
	for {
		frame, err := conn.ReadStatus()
		if err != nil {
			if errors.Is(err, ports.ErrMalformedFrame) {
				s.logger.Warn("discarding malformed frame", zap.Error(err))
				continue
			}
			if ctx.Err() == nil {
				s.logger.Info("connection lost", zap.Error(err))
			}
			return
		}

		s.session.TouchHeartbeat(s.clock.Now())
		s.session.SetState(domain.StateConnected)
		s.logger.Debug("status frame received",
			zap.String("type", frame.Type),
			zap.Int64("points_today", frame.PointsToday),
			zap.Int64("points_total", frame.PointsTotal))
		s.gateway.Notify(ctx, statusMessage(frame))
	}
}

// heartbeatLoop sends a liveness frame on a fixed cadence while the
// session is connected. A send failure marks the session disconnected
// and forces the read side down so the dial loop takes over.
func (s *ConnectionSupervisor) heartbeatLoop(ctx context.Context, conn ports.Conn) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.session.State() != domain.StateConnected {
			return
		}

		if err := conn.SendPing(s.clock.Now()); err != nil {
			s.logger.Warn("send ping", zap.Error(err))
			s.session.SetState(domain.StateDisconnected)
			_ = conn.Close()
			return
		}
		s.logger.Debug("ping sent")
	}
}

func statusMessage(frame ports.StatusFrame) string {
	return fmt.Sprintf(
		"*Connected successfully!*\n\n"+
			"👤 *User ID:* `%s`\n"+
			"📅 *Points Today:* `%d`\n"+
			"🏆 *Total Points:* `%d`",
		frame.UserID, frame.PointsToday, frame.PointsTotal)
}

// backoffDelay returns the delay before the attempt following the given
// number of consecutive failures: 1s, 2s, 4s, 8s, 16s, then capped at
// 30s.
func backoffDelay(failures int) time.Duration {
	if failures >= 5 {
		return maxBackoff
	}
	return time.Second << uint(failures)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
