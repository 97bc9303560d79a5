package ports

import "context"

type Identity struct {
	ID    string
	Email string
}

// TokenIssuer exchanges account credentials for a bearer token. The
// token is used unchanged for the whole session lifetime.
type TokenIssuer interface {
	IssueToken(ctx context.Context, email, password string) (string, error)
}

// Directory resolves identity and profile attributes for a token.
type Directory interface {
	WhoAmI(ctx context.Context, token string) (Identity, error)
	// PersonalCode returns the profile code for the user, with ok=false
	// when no profile record exists (a non-fatal degraded mode).
	PersonalCode(ctx context.Context, token, userID string) (code string, ok bool, err error)
}
