package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charetteworks/charette/internal/domain"
)

func seedCharette(t *testing.T, s *MemoryStore, id string) {
	t.Helper()
	c := domain.NewCharette(id, "Test", "", time.Now())
	if err := s.PutCharette(context.Background(), c); err != nil {
		t.Fatalf("PutCharette failed: %v", err)
	}
}

func TestMemoryStore_GetMissingCharette(t *testing.T) {
	s := NewMemory()
	_, err := s.GetCharette(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_AppendAndFetchRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedCharette(t, s, "c1")

	stored, err := s.AppendMessage(ctx, "c1", &domain.Message{
		Text:     "hello",
		UserName: "Alice",
		RoomID:   domain.MainRoomID,
	})
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if stored.ID == "" {
		t.Error("Expected server-assigned id")
	}
	if stored.Timestamp.IsZero() {
		t.Error("Expected server-assigned timestamp")
	}

	msgs, err := s.Messages(ctx, "c1", domain.MainRoomID, time.Time{})
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.Text != "hello" || last.UserName != "Alice" {
		t.Errorf("Round-trip mismatch: %q by %q", last.Text, last.UserName)
	}
}

func TestMemoryStore_AfterFilterIsStrict(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedCharette(t, s, "c1")

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_, err := s.AppendMessage(ctx, "c1", &domain.Message{
			Text:      "m",
			UserName:  "Alice",
			RoomID:    domain.MainRoomID,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := s.Messages(ctx, "c1", "", base)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	for _, m := range msgs {
		if !m.Timestamp.After(base) {
			t.Errorf("Message at %v should have been filtered by after=%v", m.Timestamp, base)
		}
	}
	if len(msgs) != 2 {
		t.Errorf("Expected 2 messages after cutoff, got %d", len(msgs))
	}
}

func TestMemoryStore_FlattenKeepsPerRoomOrder(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedCharette(t, s, "c1")

	for _, m := range []struct{ room, text string }{
		{"main", "m1"},
		{"room-1", "r1"},
		{"main", "m2"},
		{"room-1", "r2"},
	} {
		if _, err := s.AppendMessage(ctx, "c1", &domain.Message{Text: m.text, UserName: "A", RoomID: m.room}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := s.Messages(ctx, "c1", "", time.Time{})
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	got := make([]string, len(msgs))
	for i, m := range msgs {
		got[i] = m.Text
	}
	want := []string{"m1", "m2", "r1", "r2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected flatten order %v, got %v", want, got)
		}
	}
}

func TestMemoryStore_DeleteRemovesMessages(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedCharette(t, s, "c1")
	if _, err := s.AppendMessage(ctx, "c1", &domain.Message{Text: "hello", UserName: "A"}); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	if err := s.DeleteCharette(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCharette failed: %v", err)
	}
	if _, err := s.GetCharette(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected charette gone, got %v", err)
	}
	if _, err := s.Messages(ctx, "c1", "", time.Time{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected messages gone with charette, got %v", err)
	}
}

func TestMemoryStore_UpdateRunsUnderLock(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedCharette(t, s, "c1")

	updated, err := s.UpdateCharette(ctx, "c1", func(c *domain.Charette) error {
		c.Title = "Renamed"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateCharette failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Expected updated copy, got %q", updated.Title)
	}

	fresh, _ := s.GetCharette(ctx, "c1")
	if fresh.Title != "Renamed" {
		t.Errorf("Expected persisted update, got %q", fresh.Title)
	}

	sentinel := errors.New("abort")
	if _, err := s.UpdateCharette(ctx, "c1", func(c *domain.Charette) error {
		c.Title = "Should not stick"
		return sentinel
	}); !errors.Is(err, sentinel) {
		t.Errorf("Expected fn error surfaced, got %v", err)
	}
}

func TestMemoryStore_ListOrder(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedCharette(t, s, "a")
	seedCharette(t, s, "b")
	seedCharette(t, s, "c")

	list, err := s.ListCharettes(ctx)
	if err != nil {
		t.Fatalf("ListCharettes failed: %v", err)
	}
	if len(list) != 3 || list[0].ID != "a" || list[2].ID != "c" {
		t.Errorf("Expected creation order a,b,c, got %v", []string{list[0].ID, list[1].ID, list[2].ID})
	}
}
