package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/teneo-node-cli/internal/domain"
	"github.com/bnema/teneo-node-cli/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.texts = append(n.texts, text)
	return nil
}

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

type readResult struct {
	frame ports.StatusFrame
	err   error
}

var errConnClosed = errors.New("use of closed connection")

type fakeConn struct {
	reads chan readResult

	mu      sync.Mutex
	initErr error
	pingErr error
	pings   int
	inits   int

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(script ...readResult) *fakeConn {
	reads := make(chan readResult, len(script))
	for _, r := range script {
		reads <- r
	}
	return &fakeConn{reads: reads, closed: make(chan struct{})}
}

func (c *fakeConn) ReadStatus() (ports.StatusFrame, error) {
	select {
	case r := <-c.reads:
		return r.frame, r.err
	case <-c.closed:
		return ports.StatusFrame{}, errConnClosed
	}
}

func (c *fakeConn) SendInit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inits++
	return c.initErr
}

func (c *fakeConn) SendPing(time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return c.pingErr
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type dialResult struct {
	conn ports.Conn
	err  error
}

type fakeDialer struct {
	mu       sync.Mutex
	script   []dialResult
	attempts []string
	dialed   chan struct{}
}

func newFakeDialer(script ...dialResult) *fakeDialer {
	return &fakeDialer{script: script, dialed: make(chan struct{}, 16)}
}

func (d *fakeDialer) Dial(_ context.Context, sess *domain.Session) (ports.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.attempts = append(d.attempts, sess.UserID)
	select {
	case d.dialed <- struct{}{}:
	default:
	}

	if len(d.script) == 0 {
		return nil, errors.New("connection refused")
	}
	next := d.script[0]
	d.script = d.script[1:]
	return next.conn, next.err
}

func (d *fakeDialer) attemptCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.attempts)
}

type fakeIssuer struct {
	tokens map[string]string
	err    error
}

func (i fakeIssuer) IssueToken(_ context.Context, email, _ string) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	if token, ok := i.tokens[email]; ok {
		return token, nil
	}
	return "", errors.New("unknown account")
}

type fakeDirectory struct {
	identity   ports.Identity
	whoErr     error
	code       string
	codeOK     bool
	codeErr    error
	lookupByID map[string]ports.Identity
}

func (d fakeDirectory) WhoAmI(_ context.Context, token string) (ports.Identity, error) {
	if d.whoErr != nil {
		return ports.Identity{}, d.whoErr
	}
	if d.lookupByID != nil {
		if identity, ok := d.lookupByID[token]; ok {
			return identity, nil
		}
	}
	return d.identity, nil
}

func (d fakeDirectory) PersonalCode(_ context.Context, _, _ string) (string, bool, error) {
	return d.code, d.codeOK, d.codeErr
}
