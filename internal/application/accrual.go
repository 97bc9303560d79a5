package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/teneo-node-cli/internal/domain"
	"github.com/bnema/teneo-node-cli/internal/ports"
)

// AccrualCheckInterval is the cadence of the accrual evaluation. It is
// deliberately independent of the heartbeat sender: the 15-minute
// eligibility gate inside the ledger does the actual pacing.
const AccrualCheckInterval = 15 * time.Second

// AccrualEngine runs the bounded point accrual for one session.
type AccrualEngine struct {
	session  *domain.Session
	gateway  *NotificationGateway
	clock    ports.Clock
	logger   *zap.Logger
	interval time.Duration
}

func NewAccrualEngine(sess *domain.Session, gateway *NotificationGateway, clock ports.Clock, logger *zap.Logger) *AccrualEngine {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AccrualEngine{
		session:  sess,
		gateway:  gateway,
		clock:    clock,
		logger:   logger.With(zap.String("node", sess.UserID)),
		interval: AccrualCheckInterval,
	}
}

// Run evaluates the ledger on the fixed cadence until ctx is canceled.
// The engine outlives individual connections: eligibility already
// requires the session to be connected.
func (e *AccrualEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		e.check(ctx)
	}
}

func (e *AccrualEngine) check(ctx context.Context) {
	result := e.session.CheckAccrual(e.clock.Now())

	if result.Reset {
		e.logger.Info("daily points reset")
	}

	switch {
	case result.Added > 0:
		e.logger.Info("points accrued",
			zap.Int("added", result.Added),
			zap.Int("total", result.Total))
		e.gateway.Notify(ctx, fmt.Sprintf(
			"*Node %s:* %d points added.\n*Total Points:* %d",
			e.session.UserID, result.Added, result.Total))
	case result.AtCap:
		e.logger.Info("maximum daily points reached", zap.Int("total", result.Total))
	}
}
