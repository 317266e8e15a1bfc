package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lox/nightfall/internal/game"
	"github.com/lox/nightfall/internal/protocol"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}

// newTestGateway wires a gateway to a registry and exposes it through an
// httptest server. Returns the gateway and the websocket URL to dial.
func newTestGateway(t *testing.T, opts ...game.Option) (*Server, string) {
	t.Helper()

	srv := NewServer(testLogger())
	opts = append([]game.Option{game.WithSeed(42)}, opts...)
	registry := game.NewRegistry(testLogger(), srv.Notifier(), opts...)
	srv.SetRegistry(registry)
	go srv.run()

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	return srv, wsURL
}

// testClient is one websocket client in a test game.
type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
	name string
	role string
}

// dialClient connects and completes the hello handshake.
func dialClient(t *testing.T, wsURL, name string) *testClient {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &testClient{t: t, conn: conn, name: name}
	c.send(protocol.MessageTypeHello, protocol.HelloData{Name: name})

	var welcome protocol.WelcomeData
	c.decode(c.waitFor(protocol.MessageTypeWelcome), &welcome)
	require.NotEmpty(t, welcome.PlayerID)
	c.id = welcome.PlayerID
	return c
}

func (c *testClient) send(mt protocol.MessageType, data interface{}) {
	c.t.Helper()

	msg, err := protocol.NewMessage(mt, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

// waitFor reads frames until one of the wanted type arrives, discarding
// everything else. An error frame fails the test.
func (c *testClient) waitFor(mt protocol.MessageType) *protocol.Message {
	c.t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))

		var msg protocol.Message
		require.NoError(c.t, c.conn.ReadJSON(&msg), "%s waiting for %s", c.name, mt)
		if msg.Type == mt {
			return &msg
		}
		if msg.Type == protocol.MessageTypeError {
			var e protocol.ErrorData
			_ = json.Unmarshal(msg.Data, &e)
			c.t.Fatalf("%s got error %q (%s) while waiting for %s", c.name, e.Code, e.Message, mt)
		}
	}
}

// waitForError reads frames until an error arrives and asserts its code.
func (c *testClient) waitForError(code string) {
	c.t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))

		var msg protocol.Message
		require.NoError(c.t, c.conn.ReadJSON(&msg), "%s waiting for error %s", c.name, code)
		if msg.Type != protocol.MessageTypeError {
			continue
		}

		var e protocol.ErrorData
		require.NoError(c.t, json.Unmarshal(msg.Data, &e))
		require.Equal(c.t, code, e.Code, "error message: %s", e.Message)
		return
	}
}

// waitUntilJoined reads player_joined frames until the lobby reaches the
// given size.
func (c *testClient) waitUntilJoined(count int) {
	c.t.Helper()

	for {
		var joined protocol.PlayerJoinedData
		c.decode(c.waitFor(protocol.MessageTypePlayerJoined), &joined)
		if joined.Count >= count {
			return
		}
	}
}

func (c *testClient) decode(msg *protocol.Message, out interface{}) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(msg.Data, out))
}
