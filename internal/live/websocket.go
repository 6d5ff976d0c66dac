package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/charetteworks/charette/internal/domain"
	"github.com/charetteworks/charette/internal/metrics"
	"github.com/charetteworks/charette/internal/session"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// WebSocketHandler upgrades /ws/charettes/{id} requests and runs the event
// loop for one connection. Each connection listens to exactly one room at a
// time, starting with the main room.
type WebSocketHandler struct {
	svc           *session.Service
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new websocket handler.
func NewWebSocketHandler(svc *session.Service, hub *Hub, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		svc:           svc,
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// clientEvent is what the browser sends over the socket.
type clientEvent struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId,omitempty"`
	Text     string `json:"text,omitempty"`
	UserName string `json:"userName,omitempty"`
	Role     string `json:"role,omitempty"`
	Action   string `json:"action,omitempty"`
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	charetteID := chi.URLParam(r, "charetteID")
	if _, err := h.svc.Get(r.Context(), charetteID); err != nil {
		http.Error(w, "charette not found", http.StatusNotFound)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "charette_id", charetteID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "charette_id", charetteID)
		}
	}()

	metrics.LiveConnections.Inc()
	defer metrics.LiveConnections.Dec()

	roomID := domain.MainRoomID
	h.hub.Register(charetteID, roomID, ws)
	defer func() { h.hub.Unregister(charetteID, roomID, ws) }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	slog.Info("Live connection opened", "charette_id", charetteID, "ip", r.RemoteAddr)

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "charette_id", charetteID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "charette_id", charetteID)
			}
			return
		}

		var event clientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			h.writeEvent(ws, Event{Type: "error", Error: "invalid event"})
			continue
		}

		switch event.Type {
		case "join-room":
			target := event.RoomID
			if target == "" {
				target = domain.MainRoomID
			}
			h.hub.Unregister(charetteID, roomID, ws)
			roomID = target
			h.hub.Register(charetteID, roomID, ws)
			if event.UserName != "" && roomID != domain.MainRoomID {
				if _, err := h.svc.JoinRoom(ctx, charetteID, roomID, event.UserName); err != nil {
					h.writeEvent(ws, Event{Type: "error", RoomID: roomID, Error: "Charette not found"})
				}
			}
		case "message":
			msg, err := h.svc.PostMessage(ctx, charetteID, &domain.Message{
				Text:     event.Text,
				UserName: event.UserName,
				Role:     event.Role,
				RoomID:   roomID,
			})
			if err != nil {
				h.writeEvent(ws, Event{Type: "error", RoomID: roomID, Error: err.Error()})
				continue
			}
			h.hub.BroadcastMessage(charetteID, msg)
		case "phase":
			index, phase, err := h.svc.MovePhase(ctx, charetteID, domain.PhaseDirection(event.Action))
			if err != nil {
				h.writeEvent(ws, Event{Type: "error", Error: err.Error()})
				continue
			}
			h.hub.BroadcastPhase(charetteID, index, phase)
		case "ping":
			h.writeEvent(ws, Event{Type: "pong"})
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) writeEvent(ws *websocket.Conn, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := ws.Write(context.Background(), websocket.MessageText, data); err != nil {
		slog.Debug("Failed to write event", "error", err)
	}
}
