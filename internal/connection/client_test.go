package connection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmoretti/tictac-server/internal/game"
	"github.com/dmoretti/tictac-server/internal/hub"
	"github.com/dmoretti/tictac-server/internal/protocol"
	"github.com/dmoretti/tictac-server/internal/session"
)

// startServer boots a real hub behind an httptest server and returns the
// websocket URL.
func startServer(t *testing.T, graceDelay time.Duration) string {
	t.Helper()

	registry := session.NewRegistry(session.Config{}, nil)
	h := hub.New(hub.Config{GraceDelay: graceDelay, EventBuffer: 64}, registry, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	handler := NewHandler(DefaultClientConfig(), h, nil, nil)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, payload any) {
	t.Helper()
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func expectType(t *testing.T, conn *websocket.Conn, want protocol.MessageType) protocol.Envelope {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Type != want {
		t.Fatalf("message type = %q, want %q (payload %s)", env.Type, want, env.Payload)
	}
	return env
}

func payloadAs[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
	return v
}

func TestEndToEnd_FullGame(t *testing.T) {
	url := startServer(t, 50*time.Millisecond)

	alice := dial(t, url)
	bob := dial(t, url)

	// Alice creates a session.
	sendMsg(t, alice, protocol.TypeCreate, protocol.CreateRequest{FirstPlayerName: "Alice"})
	created := payloadAs[protocol.CreatedReply](t, expectType(t, alice, protocol.TypeCreated))
	if created.FirstPlayerName != "Alice" {
		t.Errorf("FirstPlayerName = %q, want Alice", created.FirstPlayerName)
	}

	// Bob joins it.
	sendMsg(t, bob, protocol.TypeJoin, protocol.JoinRequest{
		SessionID:        created.SessionID,
		SecondPlayerName: "Bob",
	})
	snap := payloadAs[protocol.JoinSuccess](t, expectType(t, bob, protocol.TypeJoinSuccess))
	if snap.FirstPlayerName != "Alice" || snap.SecondPlayerName != "Bob" {
		t.Errorf("snapshot = %+v, want Alice/Bob", snap)
	}
	if name := payloadAs[string](t, expectType(t, alice, protocol.TypeJoined)); name != "Bob" {
		t.Errorf("joined name = %q, want Bob", name)
	}

	// X takes the top row; O answers in the middle row.
	var board game.Board
	moves := []struct {
		conn *websocket.Conn
		idx  int
		mark game.Mark
	}{
		{alice, 0, game.MarkX},
		{bob, 3, game.MarkO},
		{alice, 1, game.MarkX},
		{bob, 4, game.MarkO},
		{alice, 2, game.MarkX},
	}

	var delta protocol.MoveBroadcast
	for _, m := range moves {
		board[m.idx] = m.mark
		sendMsg(t, m.conn, protocol.TypeMove, protocol.MoveRequest{
			SessionID: created.SessionID,
			MoveIndex: m.idx,
			Board:     board,
			Mark:      m.mark,
		})
		// Both players see every accepted move.
		delta = payloadAs[protocol.MoveBroadcast](t, expectType(t, alice, protocol.TypeMoveMade))
		payloadAs[protocol.MoveBroadcast](t, expectType(t, bob, protocol.TypeMoveMade))
	}

	if delta.Outcome != game.OutcomeX {
		t.Errorf("Outcome = %q, want X", delta.Outcome)
	}
	if delta.Phase != game.PhaseFinished {
		t.Errorf("Phase = %q, want finished", delta.Phase)
	}

	// After the grace delay the session is gone.
	time.Sleep(300 * time.Millisecond)
	sendMsg(t, alice, protocol.TypeMove, protocol.MoveRequest{
		SessionID: created.SessionID,
		MoveIndex: 5,
		Board:     board,
		Mark:      game.MarkO,
	})
	reply := payloadAs[protocol.ErrorReply](t, expectType(t, alice, protocol.TypeMoveError))
	if reply.Message != "Game not found" {
		t.Errorf("message = %q, want %q", reply.Message, "Game not found")
	}
}

func TestEndToEnd_OpponentDisconnect(t *testing.T) {
	url := startServer(t, time.Second)

	alice := dial(t, url)
	bob := dial(t, url)

	sendMsg(t, alice, protocol.TypeCreate, protocol.CreateRequest{FirstPlayerName: "Alice"})
	created := payloadAs[protocol.CreatedReply](t, expectType(t, alice, protocol.TypeCreated))

	sendMsg(t, bob, protocol.TypeJoin, protocol.JoinRequest{
		SessionID:        created.SessionID,
		SecondPlayerName: "Bob",
	})
	expectType(t, bob, protocol.TypeJoinSuccess)
	expectType(t, alice, protocol.TypeJoined)

	// Bob drops mid-game.
	bob.Close()

	expectType(t, alice, protocol.TypeOpponentDisconnected)

	// The session was destroyed immediately.
	var board game.Board
	board[0] = game.MarkX
	sendMsg(t, alice, protocol.TypeMove, protocol.MoveRequest{
		SessionID: created.SessionID,
		MoveIndex: 0,
		Board:     board,
		Mark:      game.MarkX,
	})
	reply := payloadAs[protocol.ErrorReply](t, expectType(t, alice, protocol.TypeMoveError))
	if reply.Message != "Game not found" {
		t.Errorf("message = %q, want %q", reply.Message, "Game not found")
	}
}

func TestEndToEnd_JoinUnknownSession(t *testing.T) {
	url := startServer(t, time.Second)

	conn := dial(t, url)
	sendMsg(t, conn, protocol.TypeJoin, protocol.JoinRequest{
		SessionID:        "no-such-session",
		SecondPlayerName: "Bob",
	})

	reply := payloadAs[protocol.ErrorReply](t, expectType(t, conn, protocol.TypeJoinError))
	if reply.Message != "Game not found" {
		t.Errorf("message = %q, want %q", reply.Message, "Game not found")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000", "*.example.com"})

	cases := []struct {
		origin string
		want   bool
	}{
		{"", true}, // non-browser client
		{"http://localhost:3000", true},
		{"https://app.example.com", true},
		{"https://evil.invalid", false},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := check(req); got != tc.want {
			t.Errorf("check(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}
