package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/teneo-node-cli/internal/domain"
	"github.com/bnema/teneo-node-cli/internal/ports"
)

type staticAgents struct{}

func (staticAgents) Random() string { return "test-agent/1.0" }

type testServer struct {
	*httptest.Server
	upgraded chan *websocket.Conn
	requests chan *http.Request
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ts := &testServer{
		upgraded: make(chan *websocket.Conn, 1),
		requests: make(chan *http.Request, 1),
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests <- r.Clone(context.Background())
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ts.upgraded <- conn
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/websocket"
}

func dialTestSession(t *testing.T, ts *testServer) (ports.Conn, *websocket.Conn) {
	t.Helper()

	sess := domain.NewSession("u1", "node@example.com", "jwt-123", time.Now())
	sess.CustomPayload["personal_code"] = "TENEO-42"

	dialer := Dialer{
		URL:        ts.wsURL(),
		APIKey:     "anon-key",
		AppOrigin:  "origin-1",
		UserAgents: staticAgents{},
	}
	conn, err := dialer.Dial(context.Background(), sess)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	server := <-ts.upgraded
	t.Cleanup(func() { _ = server.Close() })
	return conn, server
}

func TestDialSendsIdentityAndHeaders(t *testing.T) {
	ts := newTestServer(t)
	dialTestSession(t, ts)

	r := <-ts.requests
	assert.Equal(t, "u1", r.URL.Query().Get("userId"))
	assert.Equal(t, "v0.2", r.URL.Query().Get("version"))
	assert.Equal(t, "Bearer jwt-123", r.Header.Get("Authorization"))
	assert.Equal(t, "anon-key", r.Header.Get("Apikey"))
	assert.Equal(t, "origin-1", r.Header.Get("X-Do-App-Origin"))
	assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
	assert.NotEmpty(t, r.Header.Get("X-Client-Request-Id"))
}

func TestInitAndPingFramesCarryCustomPayload(t *testing.T) {
	ts := newTestServer(t)
	conn, server := dialTestSession(t, ts)

	require.NoError(t, conn.SendInit())

	var initFrame map[string]any
	require.NoError(t, server.ReadJSON(&initFrame))
	assert.Equal(t, "init", initFrame["type"])
	assert.Equal(t, "u1", initFrame["node_id"])
	assert.Equal(t, "TENEO-42", initFrame["personal_code"])

	sentAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, conn.SendPing(sentAt))

	var pingFrame map[string]any
	require.NoError(t, server.ReadJSON(&pingFrame))
	assert.Equal(t, "ping", pingFrame["type"])
	assert.Equal(t, "u1", pingFrame["node_id"])
	assert.Equal(t, "TENEO-42", pingFrame["personal_code"])
	assert.Equal(t, sentAt.Format(time.RFC3339), pingFrame["timestamp"])
}

func TestReadStatusParsesServerFrames(t *testing.T) {
	ts := newTestServer(t)
	conn, server := dialTestSession(t, ts)

	payload, err := json.Marshal(map[string]any{
		"type":        "status",
		"userId":      "u1",
		"pointsToday": 5,
		"pointsTotal": 100,
	})
	require.NoError(t, err)
	require.NoError(t, server.WriteMessage(websocket.TextMessage, payload))

	frame, err := conn.ReadStatus()
	require.NoError(t, err)
	assert.Equal(t, "status", frame.Type)
	assert.Equal(t, "u1", frame.UserID)
	assert.Equal(t, int64(5), frame.PointsToday)
	assert.Equal(t, int64(100), frame.PointsTotal)
}

func TestReadStatusMarksMalformedFrames(t *testing.T) {
	ts := newTestServer(t)
	conn, server := dialTestSession(t, ts)

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte("not json")))

	_, err := conn.ReadStatus()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrMalformedFrame))
}

func TestReadStatusReportsTransportClose(t *testing.T) {
	ts := newTestServer(t)
	conn, server := dialTestSession(t, ts)

	require.NoError(t, server.Close())

	_, err := conn.ReadStatus()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrMalformedFrame))
}

func TestDialFailureIncludesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer server.Close()

	dialer := Dialer{URL: "ws" + strings.TrimPrefix(server.URL, "http")}
	sess := domain.NewSession("u1", "node@example.com", "jwt-123", time.Now())

	_, err := dialer.Dial(context.Background(), sess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
