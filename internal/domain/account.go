package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

type AccountID string

// Account holds one configured set of node credentials. The password is
// only ever exchanged for a bearer token at session startup.
type Account struct {
	ID       AccountID
	Email    string
	Password string
	Label    string
}

func (a Account) Validate() error {
	if strings.TrimSpace(string(a.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return fmt.Errorf("invalid email %q", a.Email)
	}
	if a.Password == "" {
		return fmt.Errorf("password is required")
	}

	return nil
}
