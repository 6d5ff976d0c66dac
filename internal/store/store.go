// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/charetteworks/charette/internal/domain"
)

// Sentinel errors for absent records. Handlers map these to 404 responses.
var (
	ErrNotFound     = errors.New("charette not found")
	ErrRoomNotFound = errors.New("room not found")
)

// Repository defines the interface for persisting charette and message data.
// The message log is keyed per charette and per room; within a room, order is
// insertion order and stored messages are never reordered or mutated.
type Repository interface {
	// GetCharette retrieves a charette by id. Returns ErrNotFound if absent.
	GetCharette(ctx context.Context, id string) (*domain.Charette, error)

	// ListCharettes retrieves all charettes in creation order.
	ListCharettes(ctx context.Context) ([]*domain.Charette, error)

	// PutCharette creates or replaces a charette record.
	PutCharette(ctx context.Context, c *domain.Charette) error

	// UpdateCharette applies fn to the charette with the given id while
	// holding the store's write lock, so read-modify-write sequences do not
	// interleave. Returns ErrNotFound if the id is absent; fn's error aborts
	// the update and is returned as-is.
	UpdateCharette(ctx context.Context, id string, fn func(*domain.Charette) error) (*domain.Charette, error)

	// DeleteCharette removes a charette and all of its messages.
	DeleteCharette(ctx context.Context, id string) error

	// AppendMessage appends a message to the charette's per-room log,
	// creating the room's log lazily if absent. The server assigns the
	// message id and timestamp when they are unset.
	AppendMessage(ctx context.Context, charetteID string, msg *domain.Message) (*domain.Message, error)

	// Messages returns one room's log when roomID is non-empty, or all
	// rooms' logs flattened in room-creation order otherwise. When after is
	// non-zero, only messages with timestamp strictly greater are returned.
	Messages(ctx context.Context, charetteID, roomID string, after time.Time) ([]*domain.Message, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
