package toml

import (
	"fmt"

	"github.com/bnema/teneo-node-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID       string `toml:"id"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
	Label    string `toml:"label,omitempty"`
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		ID:       string(account.ID),
		Email:    account.Email,
		Password: account.Password,
		Label:    account.Label,
	}
}

func fromSchema(entry accountSchema) domain.Account {
	return domain.Account{
		ID:       domain.AccountID(entry.ID),
		Email:    entry.Email,
		Password: entry.Password,
		Label:    entry.Label,
	}
}
