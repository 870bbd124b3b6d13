package viewer

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSocket records messages written to it.
type fakeSocket struct {
	msgs []any
	fail bool
}

func (f *fakeSocket) WriteJSON(_ context.Context, v any) error {
	if f.fail {
		return assert.AnError
	}
	f.msgs = append(f.msgs, v)
	return nil
}

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	return New(0, 0, nil)
}

func TestBridge_SendQueuesWithoutSocket(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	require.NoError(t, b.Send(ctx, NewHighlightMessage([]string{"a"})))
	assert.False(t, b.Connected())

	// The queued message is delivered exactly once on attach.
	s := &fakeSocket{}
	b.attach(ctx, s)
	require.Len(t, s.msgs, 1)

	// A later attach does not redeliver.
	s2 := &fakeSocket{}
	b.attach(ctx, s2)
	assert.Empty(t, s2.msgs)
}

func TestBridge_PendingLastWriteWins(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	first := NewHighlightMessage([]string{"old"})
	second := NewHighlightMessage([]string{"new"})
	require.NoError(t, b.Send(ctx, first))
	require.NoError(t, b.Send(ctx, second))

	s := &fakeSocket{}
	b.attach(ctx, s)

	require.Len(t, s.msgs, 1)
	assert.Equal(t, second, s.msgs[0])
}

func TestBridge_SendDirectWhenAttached(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	s := &fakeSocket{}
	b.attach(ctx, s)
	assert.True(t, b.Connected())

	msg := NewLoadModelMessage("urn:adsk.wipprod:fs.file:vf.abc?version=1", "at-1")
	require.NoError(t, b.Send(ctx, msg))
	require.Len(t, s.msgs, 1)
	assert.Equal(t, msg, s.msgs[0])
}

func TestBridge_SecondTabReplacesFirst(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	old := &fakeSocket{}
	b.attach(ctx, old)
	newer := &fakeSocket{}
	b.attach(ctx, newer)

	require.NoError(t, b.Send(ctx, NewHighlightMessage([]string{"x"})))
	assert.Empty(t, old.msgs)
	assert.Len(t, newer.msgs, 1)

	// Detaching the replaced socket does not clear the newer one.
	b.detach(old)
	assert.True(t, b.Connected())

	b.detach(newer)
	assert.False(t, b.Connected())
}

func TestBridge_SendFailureRequeues(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	s := &fakeSocket{fail: true}
	b.attach(ctx, s)

	msg := NewHighlightMessage([]string{"x"})
	require.Error(t, b.Send(ctx, msg))
	assert.False(t, b.Connected())

	// The failed message waits for the reconnect.
	s2 := &fakeSocket{}
	b.attach(ctx, s2)
	require.Len(t, s2.msgs, 1)
	assert.Equal(t, msg, s2.msgs[0])
}

func TestBridge_StartIdempotent(t *testing.T) {
	b := newTestBridge(t)

	require.NoError(t, b.Start())
	assert.True(t, b.Running())
	url := b.PageURL()

	require.NoError(t, b.Start())
	assert.Equal(t, url, b.PageURL())
}

func TestBridge_ServesPageAndStatus(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.Start())

	resp, err := http.Get(b.PageURL())
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	status, err := http.Get(b.PageURL() + "status")
	require.NoError(t, err)
	defer func() { _ = status.Body.Close() }()
	assert.Equal(t, http.StatusOK, status.StatusCode)
	assert.Contains(t, status.Header.Get("Content-Type"), "application/json")
}

func TestBridge_WebSocketDeliversPending(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.Start())

	want := NewLoadModelMessage("urn:adsk.wipprod:fs.file:vf.abc?version=1", "at-1")
	require.NoError(t, b.Send(context.Background(), want))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://127.0.0.1:%d/ws", b.socketPort), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	var got map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, "load-model", got["type"])
	assert.Equal(t, want.URN, got["urn"])
	assert.Equal(t, "at-1", got["accessToken"])
}

func TestEncodeModelURN(t *testing.T) {
	got := EncodeModelURN("urn:adsk.wipprod:fs.file:vf.abc?version=1")

	assert.NotContains(t, got, "+")
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, "=")
	assert.Equal(t, "dXJuOmFkc2sud2lwcHJvZDpmcy5maWxlOnZmLmFiYz92ZXJzaW9uPTE", got)
}
