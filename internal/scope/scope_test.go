package scope

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Actors/internal/port"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type frames struct {
	mu  sync.Mutex
	got []Frame
}

func (f *frames) Publish(fr Frame) {
	f.mu.Lock()
	f.got = append(f.got, fr)
	f.mu.Unlock()
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestTap(t *testing.T) {
	pub := &frames{}
	y := port.Named("Y")
	tap := NewTap("scope_mount_Y", y, pub)

	tap.Read(port.NewData(y, 1.5))
	tap.Read(port.NewData(port.Named("other"), 2.0))
	tap.Read(port.NewData(y, "text"))
	tap.Read(port.NewData(y, []float64{3, 4}))

	require.Len(t, pub.got, 2)
	assert.Equal(t, "scope_mount_Y", pub.got[0].Scope)
	assert.Equal(t, "Y", pub.got[0].Port)
	assert.Equal(t, []float64{1.5}, pub.got[0].Values)
	assert.Equal(t, 1, pub.got[1].Step)
	assert.Equal(t, []float64{3, 4}, pub.got[1].Values)
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(quiet)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	all := dial(t, srv, "/")
	only := dial(t, srv, "/?scope=b")
	waitClients(t, h, 2)

	h.Publish(Frame{Scope: "a", Port: "X", Values: []float64{1}})
	h.Publish(Frame{Scope: "b", Port: "Y", Step: 7, Values: []float64{2}})

	assert.Equal(t, "a", readFrame(t, all).Scope)
	assert.Equal(t, "b", readFrame(t, all).Scope)

	f := readFrame(t, only)
	assert.Equal(t, "b", f.Scope)
	assert.Equal(t, 7, f.Step)
}

func TestHub_DisconnectAndClose(t *testing.T) {
	h := NewHub(quiet)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv, "/")
	waitClients(t, h, 1)

	require.NoError(t, conn.Close())
	waitClients(t, h, 0)

	second := dial(t, srv, "/")
	waitClients(t, h, 1)

	h.Close()
	assert.Zero(t, h.Clients())

	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	// Публикация после закрытия ничего не делает
	h.Publish(Frame{Scope: "a"})
}

func TestHub_PublishDoesNotBlock(t *testing.T) {
	h := NewHub(quiet)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	// Подписчик не читает, очередь переполняется
	dial(t, srv, "/")
	waitClients(t, h, 1)

	done := make(chan struct{})
	go func() {
		for i := range sendBuffer * 4 {
			h.Publish(Frame{Scope: "a", Step: i, Values: make([]float64, 16)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
