package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dilemma-survey-service/internal/logger"
	"github.com/gorilla/websocket"
)

func TestWebSocketStreamsPathStats(t *testing.T) {
	srv := newTestServer(t)
	server := httptest.NewServer(srv.router)
	defer server.Close()

	conn := dialStats(t, server, "doctor")
	defer conn.Close()

	// Expect the current snapshot first.
	typ, payload := readNext(conn, t, "pathStats")
	if typ != "pathStats" {
		t.Fatalf("expected pathStats, got %s", typ)
	}
	if total, _ := payload["totalCompleted"].(float64); total != 0 {
		t.Fatalf("expected empty snapshot, got %v", payload)
	}

	ctx := context.Background()
	if _, err := srv.decision.SubmitInitialChoice(ctx, client1, "doctor", "A"); err != nil {
		t.Fatalf("initial: %v", err)
	}
	if _, err := srv.decision.SubmitFinalChoice(ctx, client1, "doctor", "B"); err != nil {
		t.Fatalf("final: %v", err)
	}

	_, payload = readNext(conn, t, "pathStats")
	counts, _ := payload["pathCounts"].(map[string]any)
	if ab, _ := counts["AB"].(float64); ab != 1 {
		t.Fatalf("expected AB=1 after final choice, got %v", payload)
	}
}

func TestWebSocketPingAndUnknownMessage(t *testing.T) {
	srv := newTestServer(t)
	server := httptest.NewServer(srv.router)
	defer server.Close()

	conn := dialStats(t, server, "trolley")
	defer conn.Close()
	readNext(conn, t, "pathStats")

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	readNext(conn, t, "pong")

	if err := conn.WriteJSON(map[string]any{"type": "answer"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")
}

func TestWebSocketUnknownDilemma(t *testing.T) {
	srv := newTestServer(t)
	server := httptest.NewServer(srv.router)
	defer server.Close()

	conn := dialStats(t, server, "nope")
	defer conn.Close()

	_, payload := readNext(conn, t, "error")
	if payload["code"] != "not_found" {
		t.Fatalf("expected not_found code, got %v", payload)
	}
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	srv := newTestServer(t)
	ws := NewWSHandler(srv.stats, logger.Nop(), []string{"https://survey.example"})
	server := httptest.NewServer(http.HandlerFunc(ws.ServeWS))
	defer server.Close()
	u := "ws" + server.URL[len("http"):] + "?dilemma=doctor"

	_, resp, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://elsewhere.example"}})
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("expected handshake failure, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://survey.example"}})
	if err != nil {
		t.Fatalf("dial from allowed origin: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, "pathStats")

	// Non-browser clients send no Origin header.
	bare, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial without origin: %v", err)
	}
	defer bare.Close()
	readNext(bare, t, "pathStats")
}

func dialStats(t *testing.T, server *httptest.Server, dilemma string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws/statistics?dilemma=" + dilemma
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
