// Package fixtures seeds the repository with demo data at startup. Session
// state lives only for the process lifetime, so the demo charette is rebuilt
// on every restart.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/charetteworks/charette/internal/domain"
	"github.com/charetteworks/charette/internal/session"
	"github.com/charetteworks/charette/internal/store"
)

// demoID is stable across restarts so bookmarked clients keep working.
const demoID = "demo-riverside"

var demoParticipants = []struct {
	name string
	role string
}{
	{"Maya", domain.RoleProjectManager},
	{"Devon", domain.RoleAnalyst},
	{"Priya", domain.RoleParticipant},
	{"Jonas", domain.RoleParticipant},
}

var demoMessages = []struct {
	user string
	text string
}{
	{"Maya", "Welcome everyone. Today we decide on the riverside community center layout."},
	{"Devon", "I assume the budget is still capped at 1.2 million for this phase."},
	{"Priya", "What if we combined the library and the workshop space into one flexible room?"},
	{"Jonas", "The zoning regulation limits building height to three floors, we cannot go higher."},
	{"Devon", "Good point. There is a real opportunity to use the roof as a garden terrace."},
}

// Seed creates the demo charette if it does not already exist.
func Seed(ctx context.Context, repo store.Repository, svc *session.Service) error {
	if _, err := repo.GetCharette(ctx, demoID); err == nil {
		return nil
	}

	now := time.Now().UTC()
	c := domain.NewCharette(demoID, "Riverside Community Center", "Charette for the riverside community center redesign", now)
	c.Facilitator = "Maya"
	for _, p := range demoParticipants {
		c.UpsertParticipant(p.name, p.role, now)
	}
	if err := repo.PutCharette(ctx, c); err != nil {
		return fmt.Errorf("seed demo charette: %w", err)
	}

	for _, m := range demoMessages {
		msg := &domain.Message{Text: m.text, UserName: m.user, RoomID: domain.MainRoomID}
		if _, err := svc.PostMessage(ctx, demoID, msg); err != nil {
			return fmt.Errorf("seed demo message: %w", err)
		}
	}
	return nil
}
