// Package session orchestrates charette state: phase transitions, breakout
// assignment, participant membership, and message routing. Both the REST
// handlers and the live websocket feed go through this service so the two
// transports share one set of semantics.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charetteworks/charette/internal/analysis"
	"github.com/charetteworks/charette/internal/domain"
	"github.com/charetteworks/charette/internal/metrics"
	"github.com/charetteworks/charette/internal/store"
	"github.com/google/uuid"
)

// ErrValidation marks rejected inputs, such as a non-positive room count.
var ErrValidation = errors.New("invalid input")

// Service coordinates all charette mutations against the repository.
type Service struct {
	repo          store.Repository
	maxMessageLen int
}

// New creates a session service. maxMessageLen of 0 disables length checks.
func New(repo store.Repository, maxMessageLen int) *Service {
	return &Service{repo: repo, maxMessageLen: maxMessageLen}
}

// Create registers a new charette and returns it.
func (s *Service) Create(ctx context.Context, title, description, facilitator string) (*domain.Charette, error) {
	c := domain.NewCharette(uuid.NewString(), title, description, time.Now().UTC())
	c.Facilitator = facilitator
	if err := s.repo.PutCharette(ctx, c); err != nil {
		return nil, fmt.Errorf("create charette: %w", err)
	}
	metrics.CharettesCreated.Inc()
	slog.Info("Charette created", "charette_id", c.ID, "title", c.Title)
	return c, nil
}

// Get returns a charette by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Charette, error) {
	return s.repo.GetCharette(ctx, id)
}

// List returns all charettes.
func (s *Service) List(ctx context.Context) ([]*domain.Charette, error) {
	return s.repo.ListCharettes(ctx)
}

// Update overwrites the title and description fields that are non-empty.
func (s *Service) Update(ctx context.Context, id, title, description string) (*domain.Charette, error) {
	return s.repo.UpdateCharette(ctx, id, func(c *domain.Charette) error {
		if title != "" {
			c.Title = title
		}
		if description != "" {
			c.Description = description
		}
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// Delete removes a charette and its message logs.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCharette(ctx, id); err != nil {
		return err
	}
	slog.Info("Charette deleted", "charette_id", id)
	return nil
}

// AddParticipant upserts a participant; a second join under the same
// username overwrites the existing record rather than duplicating it.
func (s *Service) AddParticipant(ctx context.Context, id, userName, role string) (*domain.Charette, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, fmt.Errorf("%w: userName required", ErrValidation)
	}
	return s.repo.UpdateCharette(ctx, id, func(c *domain.Charette) error {
		c.UpsertParticipant(userName, role, time.Now().UTC())
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// RemoveParticipant drops a participant and purges their name from every
// breakout room.
func (s *Service) RemoveParticipant(ctx context.Context, id, userName string) (*domain.Charette, error) {
	return s.repo.UpdateCharette(ctx, id, func(c *domain.Charette) error {
		c.RemoveParticipant(userName)
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// MovePhase advances or retreats the charette's phase. Moves past either
// boundary and unknown actions are accepted as no-ops; the response always
// reflects the resulting state.
func (s *Service) MovePhase(ctx context.Context, id string, action domain.PhaseDirection) (int, domain.Phase, error) {
	var index int
	var phase domain.Phase
	_, err := s.repo.UpdateCharette(ctx, id, func(c *domain.Charette) error {
		index, phase = c.AdvancePhase(action)
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return 0, domain.Phase{}, err
	}
	// Label values must stay a fixed set; the action string is
	// client-supplied and unknown actions are accepted as no-ops.
	label := string(action)
	if action != domain.PhaseNext && action != domain.PhasePrevious {
		label = "invalid"
	}
	metrics.PhaseTransitions.WithLabelValues(label).Inc()
	slog.Info("Phase moved", "charette_id", id, "action", action, "phase_index", index, "phase", phase.Name)
	return index, phase, nil
}

// CreateRooms replaces the charette's breakout rooms with count fresh rooms
// and round-robins every current participant into them. A non-positive count
// is rejected: silently discarding existing rooms over a nonsense request
// would be worse than the error.
func (s *Service) CreateRooms(ctx context.Context, id string, count int, questions []string) ([]*domain.BreakoutRoom, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: roomCount must be positive", ErrValidation)
	}
	c, err := s.repo.UpdateCharette(ctx, id, func(c *domain.Charette) error {
		c.CreateRooms(count, questions, time.Now().UTC())
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Breakout rooms created", "charette_id", id, "room_count", count)
	return c.Rooms, nil
}

// JoinRoom adds the username to a breakout room, idempotently.
func (s *Service) JoinRoom(ctx context.Context, id, roomID, userName string) (*domain.BreakoutRoom, error) {
	return s.mutateRoom(ctx, id, roomID, func(r *domain.BreakoutRoom) { r.Join(userName) })
}

// LeaveRoom removes the username from a breakout room, idempotently.
func (s *Service) LeaveRoom(ctx context.Context, id, roomID, userName string) (*domain.BreakoutRoom, error) {
	return s.mutateRoom(ctx, id, roomID, func(r *domain.BreakoutRoom) { r.Leave(userName) })
}

func (s *Service) mutateRoom(ctx context.Context, id, roomID string, fn func(*domain.BreakoutRoom)) (*domain.BreakoutRoom, error) {
	c, err := s.repo.UpdateCharette(ctx, id, func(c *domain.Charette) error {
		room := c.Room(roomID)
		if room == nil {
			return store.ErrRoomNotFound
		}
		fn(room)
		c.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Room(roomID), nil
}

// PostMessage analyzes the text, appends the message to the room's log, and
// accumulates the analysis on the charette. The returned message carries the
// server-assigned id and timestamp.
func (s *Service) PostMessage(ctx context.Context, id string, msg *domain.Message) (*domain.Message, error) {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return nil, fmt.Errorf("%w: text required", ErrValidation)
	}
	if s.maxMessageLen > 0 && len(msg.Text) > s.maxMessageLen {
		return nil, fmt.Errorf("%w: text exceeds %d bytes", ErrValidation, s.maxMessageLen)
	}
	if msg.RoomID == "" {
		msg.RoomID = domain.MainRoomID
	}

	c, err := s.repo.GetCharette(ctx, id)
	if err != nil {
		return nil, err
	}
	// Role is snapshotted from the participant record when one exists.
	if p := c.FindParticipant(msg.UserName); p != nil {
		msg.Role = p.Role
	} else if msg.Role == "" {
		msg.Role = domain.RoleParticipant
	}

	result := analysis.AnalyzeMessage(msg.Text)
	msg.Analysis = &domain.Analysis{
		Intent:        result.Intent,
		Constraints:   result.Constraints,
		Assumptions:   result.Assumptions,
		Opportunities: result.Opportunities,
		Sentiment:     result.Sentiment,
		Confidence:    result.Confidence,
	}

	stored, err := s.repo.AppendMessage(ctx, id, msg)
	if err != nil {
		return nil, err
	}

	record := *stored.Analysis
	record.MessageID = stored.ID
	record.UserName = stored.UserName
	if _, err := s.repo.UpdateCharette(ctx, id, func(c *domain.Charette) error {
		c.Analysis = append(c.Analysis, record)
		return nil
	}); err != nil {
		// The message is already stored; losing one accumulated analysis
		// entry only affects the derived report.
		slog.Warn("Failed to accumulate analysis", "charette_id", id, "error", err)
	}

	metrics.MessagesPosted.WithLabelValues(roomClass(stored.RoomID)).Inc()
	return stored, nil
}

// Messages returns a room's log, or all logs flattened, optionally filtered
// to timestamps strictly after the given time.
func (s *Service) Messages(ctx context.Context, id, roomID string, after time.Time) ([]*domain.Message, error) {
	return s.repo.Messages(ctx, id, roomID, after)
}

func roomClass(roomID string) string {
	if roomID == domain.MainRoomID {
		return "main"
	}
	return "breakout"
}
