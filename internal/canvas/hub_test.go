package canvas

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cicdguard/backend/pkg/graph"
	"github.com/cicdguard/backend/pkg/render"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ render.Canvas    = (*Hub)(nil)
	_ render.Inspector = (*Hub)(nil)
)

func greetWith(msgs ...Message) func(send func(Message)) {
	return func(send func(Message)) {
		for _, msg := range msgs {
			send(msg)
		}
	}
}

func serveHub(t *testing.T, hub *Hub, greet func(send func(Message)), events chan<- render.Event) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, greet, func(ev render.Event) { events <- ev })
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestGreetingThenBroadcast(t *testing.T) {
	hub := NewHub("view")
	conn := serveHub(t, hub, greetWith(Message{Type: MessageClear}), make(chan render.Event, 1))

	assert.Equal(t, MessageClear, readMessage(t, conn).Type)

	hub.Load(&graph.Model{Nodes: []graph.VisualNode{{ID: "1"}}, Edges: []graph.VisualEdge{}})
	msg := readMessage(t, conn)
	assert.Equal(t, MessageLoad, msg.Type)
	require.NotNil(t, msg.Graph)
	assert.Equal(t, "1", msg.Graph.Nodes[0].ID)

	hub.SetNodeAppearance("1", 10, "")
	msg = readMessage(t, conn)
	assert.Equal(t, MessageNode, msg.Type)
	require.NotNil(t, msg.Label)
	assert.Equal(t, "", *msg.Label)

	hub.StopLayout()
	msg = readMessage(t, conn)
	assert.Equal(t, MessageLayout, msg.Type)
	require.NotNil(t, msg.Running)
	assert.False(t, *msg.Running)

	hub.Notify("error", "could not load graph")
	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Level)
	assert.Equal(t, "could not load graph", msg.Text)
}

func TestEventsAreForwarded(t *testing.T) {
	hub := NewHub("view")
	events := make(chan render.Event, 4)
	conn := serveHub(t, hub, nil, events)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteJSON(render.Event{Type: render.OverNode, NodeID: "7"}))

	select {
	case ev := <-events:
		assert.Equal(t, render.Event{Type: render.OverNode, NodeID: "7"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub := NewHub("view")
	conn := serveHub(t, hub, nil, make(chan render.Event, 1))

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestClientIsRegisteredBeforeGreeting(t *testing.T) {
	hub := NewHub("view")
	registered := make(chan int, 1)
	greet := func(send func(Message)) {
		registered <- hub.Clients()
		// an update drawn while the greeting is prepared still arrives
		hub.Load(&graph.Model{Nodes: []graph.VisualNode{{ID: "2"}}, Edges: []graph.VisualEdge{}})
		send(Message{Type: MessageClear})
	}
	conn := serveHub(t, hub, greet, make(chan render.Event, 1))

	assert.Equal(t, 1, <-registered)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageLoad, msg.Type)
	require.NotNil(t, msg.Graph)
	assert.Equal(t, "2", msg.Graph.Nodes[0].ID)
	assert.Equal(t, MessageClear, readMessage(t, conn).Type)
}
