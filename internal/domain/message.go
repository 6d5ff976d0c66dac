package domain

import "time"

// Message is a single chat message routed to one room of a charette.
// Role is a snapshot of the author's role at send time. Messages are
// immutable once stored.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	UserName  string    `json:"userName"`
	Role      string    `json:"role"`
	RoomID    string    `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
	Analysis  *Analysis `json:"aiAnalysis,omitempty"`
}

// Analysis is the keyword-derived payload attached to a message and
// accumulated on the charette.
type Analysis struct {
	MessageID     string   `json:"messageId,omitempty"`
	UserName      string   `json:"userName,omitempty"`
	Intent        string   `json:"intent"`
	Constraints   []string `json:"constraints"`
	Assumptions   []string `json:"assumptions"`
	Opportunities []string `json:"opportunities"`
	Sentiment     string   `json:"sentiment"`
	Confidence    float64  `json:"confidence"`
}
