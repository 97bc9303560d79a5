package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/teneo-node-cli/internal/domain"
	"github.com/bnema/teneo-node-cli/internal/ports"
)

func TestSetupSessionPopulatesProfileCode(t *testing.T) {
	clock := newFakeClock(time.Now())
	sink := &fakeNotifier{}

	issuer := fakeIssuer{tokens: map[string]string{"a@example.com": "tok-1"}}
	directory := fakeDirectory{
		identity: ports.Identity{ID: "u1", Email: "a@example.com"},
		code:     "ref-1",
		codeOK:   true,
	}

	orch := NewOrchestrator(issuer, directory, newFakeDialer(), newTestGateway(clock, sink), clock, nil)

	sess, err := orch.setupSession(context.Background(), domain.Account{
		ID:       "acct-1",
		Email:    "a@example.com",
		Password: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "a@example.com", sess.Email)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, "ref-1", sess.CustomPayload["personal_code"])

	messages := sink.sent()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "*User Information:*")
	assert.Contains(t, messages[0], "`u1`")
	assert.Contains(t, messages[1], "*Profile Code:* `ref-1`")
}

func TestSetupSessionDegradedOnProfileError(t *testing.T) {
	clock := newFakeClock(time.Now())

	issuer := fakeIssuer{tokens: map[string]string{"a@example.com": "tok-1"}}
	directory := fakeDirectory{
		identity: ports.Identity{ID: "u1", Email: "a@example.com"},
		codeErr:  errors.New("profiles table unavailable"),
	}

	orch := NewOrchestrator(issuer, directory, newFakeDialer(), newTestGateway(clock, &fakeNotifier{}), clock, nil)

	sess, err := orch.setupSession(context.Background(), domain.Account{
		ID:       "acct-1",
		Email:    "a@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Empty(t, sess.CustomPayload)
}

func TestSetupSessionNoProfileRecord(t *testing.T) {
	clock := newFakeClock(time.Now())

	issuer := fakeIssuer{tokens: map[string]string{"a@example.com": "tok-1"}}
	directory := fakeDirectory{identity: ports.Identity{ID: "u1", Email: "a@example.com"}}

	orch := NewOrchestrator(issuer, directory, newFakeDialer(), newTestGateway(clock, &fakeNotifier{}), clock, nil)

	sess, err := orch.setupSession(context.Background(), domain.Account{
		ID:       "acct-1",
		Email:    "a@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	_, present := sess.CustomPayload["personal_code"]
	assert.False(t, present)
}

func TestSetupSessionLoginFailure(t *testing.T) {
	clock := newFakeClock(time.Now())
	sink := &fakeNotifier{}

	issuer := fakeIssuer{err: errors.New("invalid credentials")}
	orch := NewOrchestrator(issuer, fakeDirectory{}, newFakeDialer(), newTestGateway(clock, sink), clock, nil)

	_, err := orch.setupSession(context.Background(), domain.Account{
		ID:       "acct-1",
		Email:    "a@example.com",
		Password: "wrong",
	})
	assert.Error(t, err)
	assert.Empty(t, sink.sent())
}

func TestRunIsolatesFailingAccount(t *testing.T) {
	clock := newFakeClock(time.Now())
	dialer := newFakeDialer() // every dial fails, keeping supervisors in their retry loop

	issuer := fakeIssuer{tokens: map[string]string{"good@example.com": "tok-good"}}
	directory := fakeDirectory{identity: ports.Identity{ID: "u-good", Email: "good@example.com"}}

	orch := NewOrchestrator(issuer, directory, dialer, newTestGateway(clock, &fakeNotifier{}), clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orch.Run(ctx, []domain.Account{
			{ID: "acct-bad", Email: "bad@example.com", Password: "secret"},
			{ID: "acct-good", Email: "good@example.com", Password: "secret"},
		})
		close(done)
	}()

	select {
	case <-dialer.dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy account never attempted a connection")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not stop on cancel")
	}

	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	for _, userID := range dialer.attempts {
		assert.Equal(t, "u-good", userID)
	}
}
