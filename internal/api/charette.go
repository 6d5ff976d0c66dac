package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/charetteworks/charette/internal/domain"
	"github.com/charetteworks/charette/internal/live"
	"github.com/charetteworks/charette/internal/metrics"
	"github.com/charetteworks/charette/internal/report"
	"github.com/go-chi/chi/v5"
)

// CharetteHandler handles charette session endpoints.
type CharetteHandler struct {
	*Handler
	hub *live.Hub
}

// NewCharetteHandler creates a charette handler. hub may be nil when the
// live feed is disabled; REST behavior is unaffected.
func NewCharetteHandler(base *Handler, hub *live.Hub) *CharetteHandler {
	return &CharetteHandler{Handler: base, hub: hub}
}

// RegisterRoutes registers all charette routes.
func (h *CharetteHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/charettes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{charetteID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/participants", h.AddParticipant)
			r.Delete("/participants/{userName}", h.RemoveParticipant)
			r.Get("/messages", h.ListMessages)
			r.Post("/messages", h.PostMessage)
			r.Post("/phase", h.MovePhase)
			r.Post("/breakout-rooms", h.CreateBreakoutRooms)
			r.Post("/breakout-rooms/{roomID}/join", h.JoinBreakoutRoom)
			r.Post("/breakout-rooms/{roomID}/leave", h.LeaveBreakoutRoom)
			r.Get("/report", h.GetReport)
		})
	})
}

// List returns all charettes.
func (h *CharetteHandler) List(w http.ResponseWriter, r *http.Request) {
	charettes, err := h.svc.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, charettes)
}

// Create registers a new charette session.
func (h *CharetteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Facilitator string `json:"facilitator"`
	}
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.Create(r.Context(), req.Title, req.Description, req.Facilitator)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, c)
}

// Get returns a single charette.
func (h *CharetteHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "charetteID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// Update overwrites the charette's mutable metadata fields.
func (h *CharetteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "charetteID"), req.Title, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// Delete removes a charette and all of its messages.
func (h *CharetteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "charetteID")); err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// AddParticipant joins a participant to the session. Joining again under the
// same username overwrites the prior record.
func (h *CharetteHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"userName"`
		Role     string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.AddParticipant(r.Context(), chi.URLParam(r, "charetteID"), req.UserName, req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// RemoveParticipant drops a participant and purges them from all rooms.
func (h *CharetteHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.RemoveParticipant(r.Context(), chi.URLParam(r, "charetteID"), chi.URLParam(r, "userName"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// ListMessages returns a room's log, or all logs flattened. Supports roomId
// and after (RFC 3339) query filters for polling-style incremental fetch.
func (h *CharetteHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	var after time.Time
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid after timestamp")
			return
		}
		after = parsed
	}
	msgs, err := h.svc.Messages(r.Context(), chi.URLParam(r, "charetteID"), r.URL.Query().Get("roomId"), after)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, msgs)
}

// PostMessage appends a message to a room's log and broadcasts it to any
// live listeners of that room.
func (h *CharetteHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		UserName string `json:"userName"`
		Role     string `json:"role"`
		RoomID   string `json:"roomId"`
	}
	if !decode(w, r, &req) {
		return
	}
	charetteID := chi.URLParam(r, "charetteID")
	msg, err := h.svc.PostMessage(r.Context(), charetteID, &domain.Message{
		Text:     req.Text,
		UserName: req.UserName,
		Role:     req.Role,
		RoomID:   req.RoomID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastMessage(charetteID, msg)
	}
	JSON(w, http.StatusCreated, msg)
}

// MovePhase advances or retreats the session phase. Moves past either
// boundary are no-ops; the response reflects the resulting state.
func (h *CharetteHandler) MovePhase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if !decode(w, r, &req) {
		return
	}
	charetteID := chi.URLParam(r, "charetteID")
	index, phase, err := h.svc.MovePhase(r.Context(), charetteID, domain.PhaseDirection(req.Action))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastPhase(charetteID, index, phase)
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"currentPhaseIndex": index,
		"phase":             phase,
	})
}

// CreateBreakoutRooms replaces the session's room list and round-robins the
// current participants into the new rooms. This is a destructive overwrite
// of any prior rooms.
func (h *CharetteHandler) CreateBreakoutRooms(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCount int      `json:"roomCount"`
		Questions []string `json:"questions"`
	}
	if !decode(w, r, &req) {
		return
	}
	rooms, err := h.svc.CreateRooms(r.Context(), chi.URLParam(r, "charetteID"), req.RoomCount, req.Questions)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, rooms)
}

// JoinBreakoutRoom adds a username to a room, idempotently.
func (h *CharetteHandler) JoinBreakoutRoom(w http.ResponseWriter, r *http.Request) {
	h.mutateRoom(w, r, h.svc.JoinRoom)
}

// LeaveBreakoutRoom removes a username from a room, idempotently.
func (h *CharetteHandler) LeaveBreakoutRoom(w http.ResponseWriter, r *http.Request) {
	h.mutateRoom(w, r, h.svc.LeaveRoom)
}

func (h *CharetteHandler) mutateRoom(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, roomID, userName string) (*domain.BreakoutRoom, error)) {
	var req struct {
		UserName string `json:"userName"`
	}
	if !decode(w, r, &req) {
		return
	}
	room, err := fn(r.Context(), chi.URLParam(r, "charetteID"), chi.URLParam(r, "roomID"), req.UserName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, room)
}

// GetReport assembles the derived session summary.
func (h *CharetteHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	charetteID := chi.URLParam(r, "charetteID")
	c, err := h.svc.Get(r.Context(), charetteID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	msgs, err := h.svc.Messages(r.Context(), charetteID, "", time.Time{})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.ReportsAssembled.Inc()
	slog.Info("Report assembled", "charette_id", charetteID, "messages", len(msgs))
	JSON(w, http.StatusOK, report.Assemble(c, msgs, time.Now().UTC()))
}
