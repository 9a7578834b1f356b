package notifications

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

// fakeConn records frames written by the hub.
type fakeConn struct {
	mu     sync.Mutex
	frames []int
	closed bool
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, io.EOF }
func (f *fakeConn) WriteMessage(kind int, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, kind)
	return nil
}
func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func recv(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("no message delivered")
		return ""
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	alice, err := hub.Register(1, nil)
	require.NoError(t, err)
	bob, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())

	hub.Broadcast(1, "only-alice")
	assert.Equal(t, "only-alice", recv(t, alice))
	assert.Empty(t, bob.Send)

	hub.BroadcastAll("everyone")
	assert.Equal(t, "everyone", recv(t, alice))
	assert.Equal(t, "everyone", recv(t, bob))
}

func TestHub_UserConnectionLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(7, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(8, nil)
	assert.NoError(t, err)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Zero(t, hub.Count())

	_, ok := <-c.Send
	assert.False(t, ok, "send channel should be closed")

	// Sending to a closed client must not panic.
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(4, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer; i++ {
		c.TrySend([]byte("x"))
	}
	c.TrySend([]byte("overflow"))
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	_, err := hub.Register(5, conn)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	conn.mu.Lock()
	assert.True(t, conn.closed)
	assert.Equal(t, []int{websocket.CloseMessage}, conn.frames)
	conn.mu.Unlock()

	_, err = hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_StartWiringDeliversPublishedEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	owner, err := hub.Register(11, nil)
	require.NoError(t, err)
	other, err := hub.Register(12, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishUser(context.Background(), 11, `{"type":"post_toggled"}`))
	assert.Equal(t, `{"type":"post_toggled"}`, recv(t, owner))

	require.NoError(t, n.PublishBroadcast(context.Background(), `{"type":"post_created"}`))
	assert.Equal(t, `{"type":"post_created"}`, recv(t, owner))
	assert.Equal(t, `{"type":"post_created"}`, recv(t, other))

	assert.Never(t, func() bool { return len(other.Send) > 0 }, 5*testPollInterval, testPollInterval)
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "payload"))
	assert.NoError(t, n.StartSubscriber(context.Background(), func(string, string) {}))
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "fundboard:events:user:42", UserChannel(42))
}
