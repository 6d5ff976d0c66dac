// Package domain contains core domain types for the charette server.
package domain

import (
	"fmt"
	"time"
)

// Phase is one stage of the charette workflow.
type Phase struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PhaseDirection selects which way a phase transition moves.
type PhaseDirection string

const (
	PhaseNext     PhaseDirection = "next"
	PhasePrevious PhaseDirection = "previous"
)

// DefaultPhases returns the fixed phase sequence every charette moves through.
func DefaultPhases() []Phase {
	return []Phase{
		{Name: "Introduction", Description: "Frame the problem and align on goals"},
		{Name: "Data Collection", Description: "Gather relevant facts, documents, and context"},
		{Name: "Analysis", Description: "Examine constraints, assumptions, and opportunities"},
		{Name: "Ideation", Description: "Generate candidate solutions in breakout groups"},
		{Name: "Synthesis", Description: "Converge on the strongest ideas"},
		{Name: "Reporting", Description: "Summarize outcomes and next steps"},
	}
}

// Roles participants can hold. The set is open; these are the known values.
const (
	RoleParticipant    = "participant"
	RoleAnalyst        = "analyst"
	RoleProjectManager = "project_manager"
)

// Participant is a named member of a charette. UserName is the unique key
// within a session; joining again under the same name overwrites the record.
type Participant struct {
	UserName string    `json:"userName"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Charette is a facilitated group decision session.
type Charette struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Facilitator       string          `json:"facilitator,omitempty"`
	Phases            []Phase         `json:"phases"`
	CurrentPhaseIndex int             `json:"currentPhaseIndex"`
	Participants      []Participant   `json:"participants"`
	Rooms             []*BreakoutRoom `json:"breakoutRooms"`
	Analysis          []Analysis      `json:"analysis"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// NewCharette creates a charette at the first phase with the default phase list.
func NewCharette(id, title, description string, now time.Time) *Charette {
	return &Charette{
		ID:           id,
		Title:        title,
		Description:  description,
		Phases:       DefaultPhases(),
		Participants: []Participant{},
		Rooms:        []*BreakoutRoom{},
		Analysis:     []Analysis{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CurrentPhase returns the phase definition at the current index.
func (c *Charette) CurrentPhase() Phase {
	return c.Phases[c.CurrentPhaseIndex]
}

// AdvancePhase moves the phase index one step in the given direction, clamped
// to the phase list bounds. Moves past either boundary are no-ops, as is any
// unknown direction. Returns the resulting index and phase definition.
func (c *Charette) AdvancePhase(dir PhaseDirection) (int, Phase) {
	switch dir {
	case PhaseNext:
		if c.CurrentPhaseIndex < len(c.Phases)-1 {
			c.CurrentPhaseIndex++
		}
	case PhasePrevious:
		if c.CurrentPhaseIndex > 0 {
			c.CurrentPhaseIndex--
		}
	}
	return c.CurrentPhaseIndex, c.CurrentPhase()
}

// UpsertParticipant adds a participant, or overwrites the existing record
// when the username is already present.
func (c *Charette) UpsertParticipant(userName, role string, now time.Time) Participant {
	if role == "" {
		role = RoleParticipant
	}
	p := Participant{UserName: userName, Role: role, JoinedAt: now}
	for i := range c.Participants {
		if c.Participants[i].UserName == userName {
			c.Participants[i] = p
			return p
		}
	}
	c.Participants = append(c.Participants, p)
	return p
}

// FindParticipant returns the participant with the given username, or nil.
func (c *Charette) FindParticipant(userName string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserName == userName {
			return &c.Participants[i]
		}
	}
	return nil
}

// RemoveParticipant removes a participant and purges the username from every
// breakout room. Returns false if the username was not present.
func (c *Charette) RemoveParticipant(userName string) bool {
	found := false
	for i := range c.Participants {
		if c.Participants[i].UserName == userName {
			c.Participants = append(c.Participants[:i], c.Participants[i+1:]...)
			found = true
			break
		}
	}
	if found {
		for _, room := range c.Rooms {
			room.Leave(userName)
		}
	}
	return found
}

// CreateRooms replaces the entire room list with count fresh rooms and assigns
// every current participant round-robin in participant-list order. Prior rooms
// and their assignments are discarded. A non-positive count leaves the room
// list untouched and returns nil.
func (c *Charette) CreateRooms(count int, questions []string, now time.Time) []*BreakoutRoom {
	if count <= 0 {
		return nil
	}
	rooms := make([]*BreakoutRoom, count)
	for i := range rooms {
		rooms[i] = &BreakoutRoom{
			ID:           fmt.Sprintf("room-%d", i+1),
			Name:         fmt.Sprintf("Room %d", i+1),
			Questions:    append([]string(nil), questions...),
			Participants: []string{},
			CreatedAt:    now,
		}
	}
	for i, p := range c.Participants {
		rooms[i%count].Participants = append(rooms[i%count].Participants, p.UserName)
	}
	c.Rooms = rooms
	return rooms
}

// Room returns the breakout room with the given id, or nil.
func (c *Charette) Room(roomID string) *BreakoutRoom {
	for _, room := range c.Rooms {
		if room.ID == roomID {
			return room
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand out while the original keeps mutating.
func (c *Charette) Clone() *Charette {
	out := *c
	out.Phases = append([]Phase(nil), c.Phases...)
	out.Participants = append([]Participant(nil), c.Participants...)
	out.Analysis = append([]Analysis(nil), c.Analysis...)
	out.Rooms = make([]*BreakoutRoom, len(c.Rooms))
	for i, room := range c.Rooms {
		out.Rooms[i] = room.Clone()
	}
	return &out
}
