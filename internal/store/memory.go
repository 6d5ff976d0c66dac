package store

import (
	"context"
	"sync"
	"time"

	"github.com/charetteworks/charette/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore implements Repository with in-process maps. All charette and
// message data lives for the process lifetime only.
type MemoryStore struct {
	mu        sync.RWMutex
	charettes map[string]*domain.Charette
	order     []string // charette ids in creation order
	messages  map[string]map[string][]*domain.Message
	roomOrder map[string][]string // room log ids in first-append order
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		charettes: make(map[string]*domain.Charette),
		messages:  make(map[string]map[string][]*domain.Message),
		roomOrder: make(map[string][]string),
	}
}

// GetCharette returns a deep copy of the charette, so callers can read it
// without racing concurrent updates.
func (s *MemoryStore) GetCharette(_ context.Context, id string) (*domain.Charette, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.charettes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// ListCharettes returns deep copies of all charettes in creation order.
func (s *MemoryStore) ListCharettes(_ context.Context) ([]*domain.Charette, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Charette, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.charettes[id].Clone())
	}
	return out, nil
}

// PutCharette creates or replaces a charette record.
func (s *MemoryStore) PutCharette(_ context.Context, c *domain.Charette) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.charettes[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.charettes[c.ID] = c.Clone()
	return nil
}

// UpdateCharette applies fn under the write lock and returns a copy of the
// updated record.
func (s *MemoryStore) UpdateCharette(_ context.Context, id string, fn func(*domain.Charette) error) (*domain.Charette, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charettes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// DeleteCharette removes a charette and all of its messages.
func (s *MemoryStore) DeleteCharette(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.charettes[id]; !ok {
		return ErrNotFound
	}
	delete(s.charettes, id)
	delete(s.messages, id)
	delete(s.roomOrder, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// AppendMessage appends to the room's log, creating it lazily, and assigns
// the id and timestamp when unset.
func (s *MemoryStore) AppendMessage(_ context.Context, charetteID string, msg *domain.Message) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.charettes[charetteID]; !ok {
		return nil, ErrNotFound
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.RoomID == "" {
		msg.RoomID = domain.MainRoomID
	}

	logs, ok := s.messages[charetteID]
	if !ok {
		logs = make(map[string][]*domain.Message)
		s.messages[charetteID] = logs
	}
	if _, ok := logs[msg.RoomID]; !ok {
		s.roomOrder[charetteID] = append(s.roomOrder[charetteID], msg.RoomID)
	}
	logs[msg.RoomID] = append(logs[msg.RoomID], msg)
	return msg, nil
}

// Messages returns one room's log, or all logs flattened in first-append
// order of their rooms. Each room's own insertion order is preserved.
func (s *MemoryStore) Messages(_ context.Context, charetteID, roomID string, after time.Time) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.charettes[charetteID]; !ok {
		return nil, ErrNotFound
	}

	logs := s.messages[charetteID]
	var out []*domain.Message
	if roomID != "" {
		out = filterAfter(logs[roomID], after)
	} else {
		out = []*domain.Message{}
		for _, room := range s.roomOrder[charetteID] {
			out = append(out, filterAfter(logs[room], after)...)
		}
	}
	return out, nil
}

func filterAfter(msgs []*domain.Message, after time.Time) []*domain.Message {
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if after.IsZero() || m.Timestamp.After(after) {
			out = append(out, m)
		}
	}
	return out
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
