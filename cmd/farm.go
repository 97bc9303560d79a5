package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bnema/teneo-node-cli/internal/adapters/supabase"
	"github.com/bnema/teneo-node-cli/internal/adapters/telegram"
	"github.com/bnema/teneo-node-cli/internal/adapters/useragent"
	"github.com/bnema/teneo-node-cli/internal/adapters/ws"
	"github.com/bnema/teneo-node-cli/internal/application"
	"github.com/bnema/teneo-node-cli/internal/ports"
	"github.com/bnema/teneo-node-cli/pkg/logger"
)

func newFarmCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "farm",
		Short: "Run persistent node sessions for all configured accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.settings.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log, err := logger.New(app.settings.Logger)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			accounts, err := app.repo.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("load accounts: %w", err)
			}
			if len(accounts) == 0 {
				return errors.New("no accounts configured, add one with `teneo account add`")
			}

			agents := useragent.NewPicker()
			clock := ports.SystemClock{}

			directory := supabase.Client{
				BaseURL:    app.settings.Endpoints.AuthBaseURL,
				APIKey:     app.settings.APIKey,
				UserAgents: agents,
			}
			notifier := telegram.Notifier{
				BotToken: app.settings.Telegram.BotToken,
				ChatID:   app.settings.Telegram.ChatID,
			}
			dialer := ws.Dialer{
				URL:        app.settings.Endpoints.WebsocketURL,
				APIKey:     app.settings.APIKey,
				AppOrigin:  app.settings.Endpoints.AppOrigin,
				UserAgents: agents,
			}

			gateway := application.NewNotificationGateway(notifier, clock, log)
			orchestrator := application.NewOrchestrator(directory, directory, dialer, gateway, clock, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting node sessions", zap.Int("accounts", len(accounts)))
			orchestrator.Run(ctx, accounts)
			log.Info("all sessions stopped")

			return nil
		},
	}
}
