package application

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bnema/teneo-node-cli/internal/domain"
	"github.com/bnema/teneo-node-cli/internal/ports"
)

// Orchestrator fans out one independent session per configured account.
// It performs the one-shot setup exchanges, then leaves each session to
// its supervisor and accrual engine. Sessions never coordinate with
// each other; the only shared piece is the notification gateway.
type Orchestrator struct {
	issuer    ports.TokenIssuer
	directory ports.Directory
	dialer    ports.Dialer
	gateway   *NotificationGateway
	clock     ports.Clock
	logger    *zap.Logger
}

func NewOrchestrator(issuer ports.TokenIssuer, directory ports.Directory, dialer ports.Dialer, gateway *NotificationGateway, clock ports.Clock, logger *zap.Logger) *Orchestrator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		issuer:    issuer,
		directory: directory,
		dialer:    dialer,
		gateway:   gateway,
		clock:     clock,
		logger:    logger,
	}
}

// Run starts every account's session and blocks until all of them
// return, which under normal operation means until ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context, accounts []domain.Account) {
	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		go func(account domain.Account) {
			defer wg.Done()
			o.runAccount(ctx, account)
		}(account)
	}
	wg.Wait()
}

// runAccount performs setup and then runs the session forever. A setup
// failure is fatal for this account only.
func (o *Orchestrator) runAccount(ctx context.Context, account domain.Account) {
	log := o.logger.With(zap.String("email", account.Email))

	sess, err := o.setupSession(ctx, account)
	if err != nil {
		log.Error("session setup failed", zap.Error(err))
		return
	}
	log.Info("session ready", zap.String("node", sess.UserID))

	engine := NewAccrualEngine(sess, o.gateway, o.clock, o.logger)
	supervisor := NewConnectionSupervisor(sess, o.dialer, o.gateway, o.clock, o.logger)

	go engine.Run(ctx)
	supervisor.Run(ctx)
}

func (o *Orchestrator) setupSession(ctx context.Context, account domain.Account) (*domain.Session, error) {
	log := o.logger.With(zap.String("email", account.Email))

	token, err := o.issuer.IssueToken(ctx, account.Email, account.Password)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	log.Info("login successful")

	identity, err := o.directory.WhoAmI(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("look up identity: %w", err)
	}
	o.gateway.Notify(ctx, fmt.Sprintf(
		"*User Information:*\n- Email: `%s`\n- ID: `%s`",
		identity.Email, identity.ID))

	sess := domain.NewSession(identity.ID, identity.Email, token, o.clock.Now())

	code, ok, err := o.directory.PersonalCode(ctx, token, identity.ID)
	switch {
	case err != nil:
		// Degraded mode: the session runs with an empty payload.
		log.Warn("profile lookup failed", zap.Error(err))
	case !ok:
		log.Info("no profile record found")
	default:
		sess.CustomPayload["personal_code"] = code
		o.gateway.Notify(ctx, fmt.Sprintf("*Profile Code:* `%s`", code))
	}

	return sess, nil
}
