package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	tomlrepo "github.com/bnema/teneo-node-cli/internal/adapters/repo/toml"
	"github.com/bnema/teneo-node-cli/internal/config"
)

type app struct {
	settings config.Settings
	repo     *tomlrepo.Repository
	now      func() time.Time
}

func wireApp() (*app, error) {
	cfg := viper.New()

	settings, err := config.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}

	return &app{
		settings: settings,
		repo:     repo,
		now:      time.Now,
	}, nil
}
