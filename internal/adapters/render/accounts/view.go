package accounts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/teneo-node-cli/internal/domain"
)

// Render produces the terminal listing for the configured accounts.
// Passwords are never part of the output.
func Render(accounts []domain.Account) string {
	return renderView(accounts, newStyles())
}

func renderView(accounts []domain.Account, s styles) string {
	lines := []string{
		s.title.Render("Teneo Accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(accounts))),
	}

	if len(accounts) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured. Add one with `teneo account add`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, account := range accounts {
		lines = append(lines, s.section.Render(renderAccount(account, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(account domain.Account, s styles) string {
	parts := []string{
		s.account.Render(accountTitle(account)),
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.label.Render("id: "),
			s.detail.Render(string(account.ID)),
		),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func accountTitle(account domain.Account) string {
	label := strings.TrimSpace(account.Label)
	if label == "" {
		return account.Email
	}

	return fmt.Sprintf("%s (%s)", label, account.Email)
}
