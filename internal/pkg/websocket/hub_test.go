package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func TestSubscribeReceivesBroadcasts(t *testing.T) {
	hub := startHub(t)
	ch, unsubscribe := hub.Subscribe("changes", 4)

	hub.Broadcast("changes", []byte(`{"table":"fees"}`))
	hub.Broadcast("other", []byte(`ignored`))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"table":"fees"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}

	unsubscribe()
	unsubscribe()
	hub.Broadcast("changes", []byte(`late`))
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message after unsubscribe: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClientRoundTrip(t *testing.T) {
	hub := startHub(t)
	upgrader := NewUpgrader(nil)
	inbound := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(context.Background(), hub, conn, "chats:1", "subject-1", func(_ context.Context, msg []byte) error {
			if string(msg) == "bad" {
				return errors.New("message text is required")
			}
			inbound <- string(msg)
			return nil
		}, zerolog.New(io.Discard))
		client.Serve()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount("chats:1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	select {
	case got := <-inbound:
		assert.Equal(t, "hello", got)
	case <-time.After(time.Second):
		t.Fatal("inbound handler not called")
	}

	frame, err := NewEnvelope("change", "chats:1", map[string]string{"message_text": "hi"})
	require.NoError(t, err)
	hub.Broadcast("chats:1", frame)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "change", env.Event)
	assert.JSONEq(t, `{"message_text":"hi"}`, string(env.Payload))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("bad")))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "error", env.Event)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("chats:1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestUpgraderOrigins(t *testing.T) {
	u := NewUpgrader([]string{"https://erp.example.edu"})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://erp.example.edu")
	assert.True(t, u.CheckOrigin(r))
	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, u.CheckOrigin(r))
}
