package http

import (
	"net/http"
	"strings"

	"dilemma-survey-service/internal/app"
	"dilemma-survey-service/internal/domain"
	"dilemma-survey-service/internal/logger"
	"github.com/gorilla/websocket"
)

// WSHandler streams live path statistics for one dilemma over a websocket.
type WSHandler struct {
	stats    *app.StatisticsService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts browser connections from allowedOrigins, the same list
// CORS uses. An empty list accepts any origin.
func NewWSHandler(stats *app.StatisticsService, log *logger.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		stats: stats,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker lets through requests without an Origin header; those come
// from non-browser clients that CORS does not apply to either.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

type inboundMessage struct {
	Type string `json:"type"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func wsError(err error) outboundMessage[errorPayload] {
	return outboundMessage[errorPayload]{
		Type:    "error",
		Payload: errorPayload{Message: err.Error(), Code: domain.KindOf(err).String()},
	}
}

// ServeWS upgrades the request and pushes a pathStats message on connect and
// after every finalized decision for the requested dilemma.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	dilemmaName := r.URL.Query().Get("dilemma")
	if dilemmaName == "" {
		http.Error(w, "missing dilemma", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.stats.Subscribe(r.Context(), dilemmaName)
	if err != nil {
		_ = conn.WriteJSON(wsError(err))
		return
	}
	defer cancel()

	log := h.log.With("dilemma", dilemmaName)
	log.Debug("ws subscribed")

	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", "error", err)
				_ = conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[domain.PathStats]{Type: "pathStats", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "ping":
			send <- outboundMessage[struct{}]{Type: "pong"}
		case "refresh":
			stats, err := h.stats.PathStats(r.Context(), dilemmaName)
			if err != nil {
				send <- wsError(err)
				continue
			}
			send <- outboundMessage[domain.PathStats]{Type: "pathStats", Payload: stats}
		default:
			send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	log.Debug("ws closed")
}
