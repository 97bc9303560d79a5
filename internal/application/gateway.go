package application

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/teneo-node-cli/internal/ports"
)

// NotifyCooldown is the minimum interval between delivered
// notifications across all sessions.
const NotifyCooldown = 10 * time.Second

// NotificationGateway is the single rate-limited choke point for every
// human-readable message leaving the process. Messages attempted inside
// the cooldown window are dropped, not queued.
type NotificationGateway struct {
	notifier ports.Notifier
	clock    ports.Clock
	logger   *zap.Logger
	cooldown time.Duration

	mu         sync.Mutex
	lastSentAt time.Time
}

func NewNotificationGateway(notifier ports.Notifier, clock ports.Clock, logger *zap.Logger) *NotificationGateway {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationGateway{
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		cooldown: NotifyCooldown,
	}
}

// Notify delivers text to the sink unless the cooldown is still
// running. The check and the stamp happen under one lock so two
// sessions cannot both pass the same window. Sink failures are logged
// and swallowed; they never reach the calling session, and a failed
// send does not consume the window.
func (g *NotificationGateway) Notify(ctx context.Context, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if !g.lastSentAt.IsZero() && now.Sub(g.lastSentAt) < g.cooldown {
		g.logger.Debug("notification throttled", zap.Duration("since_last", now.Sub(g.lastSentAt)))
		return
	}

	if err := g.notifier.Send(ctx, text); err != nil {
		g.logger.Warn("deliver notification", zap.Error(err))
		return
	}

	g.lastSentAt = now
}
