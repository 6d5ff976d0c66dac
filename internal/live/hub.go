// Package live provides the websocket variant of the charette API: the same
// room-join, message, and phase operations delivered as bidirectional events
// instead of polling.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/charetteworks/charette/internal/domain"
	"github.com/coder/websocket"
)

// writeTimeout bounds a single broadcast write to one connection.
const writeTimeout = 5 * time.Second

// Event is the wire format for server-pushed updates.
type Event struct {
	Type       string          `json:"type"`
	RoomID     string          `json:"roomId,omitempty"`
	Message    *domain.Message `json:"message,omitempty"`
	PhaseIndex int             `json:"currentPhaseIndex,omitempty"`
	Phase      *domain.Phase   `json:"phase,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Hub tracks which websocket connections are listening to which room of
// which charette, and fans events out to them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]map[*websocket.Conn]struct{} // charette -> room -> conns
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]map[*websocket.Conn]struct{})}
}

// Register subscribes a connection to one room of a charette.
func (h *Hub) Register(charetteID, roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.rooms[charetteID]
	if !ok {
		rooms = make(map[string]map[*websocket.Conn]struct{})
		h.rooms[charetteID] = rooms
	}
	conns, ok := rooms[roomID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		rooms[roomID] = conns
	}
	conns[conn] = struct{}{}
	slog.Info("Live listener registered", "charette_id", charetteID, "room_id", roomID)
}

// Unregister removes a connection from one room. Empty room and charette
// entries are pruned.
func (h *Hub) Unregister(charetteID, roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.rooms[charetteID]
	if !ok {
		return
	}
	conns, ok := rooms[roomID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(rooms, roomID)
	}
	if len(rooms) == 0 {
		delete(h.rooms, charetteID)
	}
}

// Listeners returns the number of connections subscribed to a room.
func (h *Hub) Listeners(charetteID, roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[charetteID][roomID])
}

// BroadcastMessage delivers a stored message to every listener of its room.
func (h *Hub) BroadcastMessage(charetteID string, msg *domain.Message) {
	h.broadcast(charetteID, msg.RoomID, Event{Type: "message", RoomID: msg.RoomID, Message: msg})
}

// BroadcastPhase delivers a phase change to every listener of the charette,
// regardless of which room they are in.
func (h *Hub) BroadcastPhase(charetteID string, index int, phase domain.Phase) {
	event := Event{Type: "phase", PhaseIndex: index, Phase: &phase}
	h.mu.RLock()
	roomIDs := make([]string, 0, len(h.rooms[charetteID]))
	for roomID := range h.rooms[charetteID] {
		roomIDs = append(roomIDs, roomID)
	}
	h.mu.RUnlock()
	for _, roomID := range roomIDs {
		h.broadcast(charetteID, roomID, event)
	}
}

func (h *Hub) broadcast(charetteID, roomID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal live event", "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[charetteID][roomID]))
	for conn := range h.rooms[charetteID][roomID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			// Expected when a client disconnects abruptly; the read loop
			// unregisters the connection.
			slog.Debug("Live broadcast write failed", "charette_id", charetteID, "room_id", roomID, "error", err)
		}
		cancel()
	}
}
