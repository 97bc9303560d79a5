package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/teneo-node-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

var (
	// ErrAuth marks a failed credential exchange.
	ErrAuth = errors.New("authentication failed")
	// ErrLookup marks a failed identity or profile lookup.
	ErrLookup = errors.New("lookup failed")
)

// UserAgents supplies randomized client identification strings.
type UserAgents interface {
	Random() string
}

// Client performs the one-shot setup exchanges against the auth
// service: password grant, identity lookup and profile lookup.
type Client struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	UserAgents     UserAgents
	RequestTimeout time.Duration
}

var (
	_ ports.TokenIssuer = Client{}
	_ ports.Directory   = Client{}
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type profileRow struct {
	PersonalCode string `json:"personal_code"`
}

func (c Client) IssueToken(ctx context.Context, email, password string) (string, error) {
	endpoint, err := c.buildURL("/auth/v1/token", url.Values{"grant_type": {"password"}})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode credentials: %w", ErrAuth, err)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create token request: %w", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	c.setCommonHeaders(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request token: %w", ErrAuth, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: request token: status %d", ErrAuth, resp.StatusCode)
	}

	var payload tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode token response: %w", ErrAuth, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: token response missing access token", ErrAuth)
	}

	return payload.AccessToken, nil
}

func (c Client) WhoAmI(ctx context.Context, token string) (ports.Identity, error) {
	endpoint, err := c.buildURL("/auth/v1/user", nil)
	if err != nil {
		return ports.Identity{}, fmt.Errorf("%w: %w", ErrLookup, err)
	}

	payload, err := c.getJSON(ctx, endpoint, token)
	if err != nil {
		return ports.Identity{}, fmt.Errorf("%w: fetch user info: %w", ErrLookup, err)
	}

	var user userResponse
	if err := json.Unmarshal(payload, &user); err != nil {
		return ports.Identity{}, fmt.Errorf("%w: decode user info: %w", ErrLookup, err)
	}
	if user.ID == "" {
		return ports.Identity{}, fmt.Errorf("%w: user info missing id", ErrLookup)
	}

	return ports.Identity{ID: user.ID, Email: user.Email}, nil
}

func (c Client) PersonalCode(ctx context.Context, token, userID string) (string, bool, error) {
	endpoint, err := c.buildURL("/rest/v1/profiles", url.Values{
		"select": {"personal_code"},
		"id":     {"eq." + userID},
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrLookup, err)
	}

	payload, err := c.getJSON(ctx, endpoint, token)
	if err != nil {
		return "", false, fmt.Errorf("%w: fetch profile info: %w", ErrLookup, err)
	}

	var rows []profileRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return "", false, fmt.Errorf("%w: decode profile info: %w", ErrLookup, err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}

	return rows[0].PersonalCode, true, nil
}

func (c Client) getJSON(ctx context.Context, endpoint, token string) ([]byte, error) {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	c.setCommonHeaders(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return data, nil
}

func (c Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Apikey", c.APIKey)
	req.Header.Set("X-Client-Request-Id", uuid.NewString())
	if c.UserAgents != nil {
		req.Header.Set("User-Agent", c.UserAgents.Random())
	}
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func (c Client) buildURL(path string, query url.Values) (string, error) {
	if c.BaseURL == "" {
		return "", errors.New("base url is required")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	return endpoint.String(), nil
}
