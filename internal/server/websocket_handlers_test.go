package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"fundboard/internal/config"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the test app on a loopback port and returns its address.
func (a *testAPI) listen() string {
	a.t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(a.t, err)
	go func() { _ = a.app.Listener(ln) }()
	a.t.Cleanup(func() { _ = a.app.Shutdown() })
	return ln.Addr().String()
}

func dialEvents(t *testing.T, addr, token string) *gorillaws.Conn {
	t.Helper()
	url := fmt.Sprintf("ws://%s/api/ws?token=%s", addr, token)
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEvent(t *testing.T, conn *gorillaws.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebsocket_StreamsPostEvents(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")
	addr := api.listen()

	conn := dialEvents(t, addr, bob.Token)
	assert.Eventually(t, func() bool { return api.srv.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readEvent(t, conn).Type)

	post := api.createPost(alice, "Flood relief")
	ev := readEvent(t, conn)
	assert.Equal(t, EventPostCreated, ev.Type)
	assert.Contains(t, string(ev.Payload), "Flood relief")

	status, _ := api.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", post.ID), nil, bob.Token)
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, EventPostReactionUpdated, readEvent(t, conn).Type)

	status, _ = api.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/toggle", post.ID), nil, alice.Token)
	require.Equal(t, http.StatusAccepted, status)
	ev = readEvent(t, conn)
	assert.Equal(t, EventPostToggled, ev.Type)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"active":false}`, post.ID), string(ev.Payload))

	// Updates to an inactive post only reach its owner.
	status, _ = api.do(http.MethodPatch, fmt.Sprintf("/api/posts/%d", post.ID),
		map[string]any{"collected_amount": 10}, alice.Token)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "bob should not see events about an inactive post")
}

func TestWebsocket_RejectsUnauthenticated(t *testing.T) {
	api := newTestAPI(t)
	addr := api.listen()

	_, resp, err := gorillaws.DefaultDialer.Dial(fmt.Sprintf("ws://%s/api/ws", addr), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocket_FlagOff(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) { cfg.FeatureFlags = "realtime_events=off" })
	alice := api.register("alice")

	status, _ := api.do(http.MethodGet, "/api/ws?token="+alice.Token, nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWebsocket_PlainHTTPNeedsUpgrade(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")

	status, _ := api.do(http.MethodGet, "/api/ws", nil, alice.Token)
	assert.Equal(t, http.StatusUpgradeRequired, status)
}
