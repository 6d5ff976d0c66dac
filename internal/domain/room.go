package domain

import "time"

// MainRoomID is the default room for messages sent outside any breakout room.
const MainRoomID = "main"

// BreakoutRoom is a sub-group discussion space nested under a charette.
type BreakoutRoom struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Questions    []string  `json:"questions"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Has reports whether the username is assigned to this room.
func (r *BreakoutRoom) Has(userName string) bool {
	for _, name := range r.Participants {
		if name == userName {
			return true
		}
	}
	return false
}

// Join adds the username to the room. Joining a room the participant is
// already in is a no-op; returns false in that case.
func (r *BreakoutRoom) Join(userName string) bool {
	if r.Has(userName) {
		return false
	}
	r.Participants = append(r.Participants, userName)
	return true
}

// Leave removes the username from the room. Leaving a room the participant
// is not in is a no-op; returns false in that case.
func (r *BreakoutRoom) Leave(userName string) bool {
	for i, name := range r.Participants {
		if name == userName {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the room.
func (r *BreakoutRoom) Clone() *BreakoutRoom {
	out := *r
	out.Questions = append([]string(nil), r.Questions...)
	out.Participants = append([]string(nil), r.Participants...)
	return &out
}
