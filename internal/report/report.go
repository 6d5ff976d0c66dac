// Package report assembles a derived summary of a charette from the session
// record and its messages. The report is a recomputable projection, never the
// system of record; given identical inputs it is deterministic.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charetteworks/charette/internal/domain"
)

// themeThreshold is the fraction of messages a word must appear in to count
// as a discussion theme.
const themeThreshold = 0.1

// minThemeWordLen filters out short filler words before theme counting.
const minThemeWordLen = 4

var stopWords = map[string]bool{
	"that": true, "this": true, "with": true, "have": true, "will": true,
	"from": true, "they": true, "there": true, "their": true, "would": true,
	"could": true, "should": true, "about": true, "what": true, "when": true,
	"been": true, "were": true, "them": true, "then": true, "than": true,
	"some": true, "just": true, "like": true, "into": true, "more": true,
	"also": true, "because": true, "really": true, "think": true, "going": true,
}

// Theme is a word that crossed the frequency threshold.
type Theme struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Report is the assembled read-side projection of a charette.
type Report struct {
	CharetteID       string            `json:"charetteId"`
	Title            string            `json:"title"`
	GeneratedAt      time.Time         `json:"generatedAt"`
	CurrentPhase     domain.Phase      `json:"currentPhase"`
	MessageCount     int               `json:"messageCount"`
	ParticipantCount int               `json:"participantCount"`
	RoomCount        int               `json:"roomCount"`
	MessagesByRoom   map[string]int    `json:"messagesByRoom"`
	Analysis         []domain.Analysis `json:"analysis"`
	Themes           []Theme           `json:"themes"`
	KeyFindings      []string          `json:"keyFindings"`
	Recommendations  []string          `json:"recommendations"`
}

// Assemble builds the report from a charette and its full message set.
func Assemble(c *domain.Charette, msgs []*domain.Message, now time.Time) *Report {
	r := &Report{
		CharetteID:       c.ID,
		Title:            c.Title,
		GeneratedAt:      now,
		CurrentPhase:     c.CurrentPhase(),
		MessageCount:     len(msgs),
		ParticipantCount: len(c.Participants),
		RoomCount:        len(c.Rooms),
		MessagesByRoom:   map[string]int{},
		Analysis:         append([]domain.Analysis{}, c.Analysis...),
	}
	for _, m := range msgs {
		r.MessagesByRoom[m.RoomID]++
	}
	r.Themes = themes(msgs)
	r.KeyFindings = findings(r, msgs)
	r.Recommendations = recommendations(r)
	return r
}

// themes counts per-message word presence and keeps words appearing in more
// than themeThreshold of all messages, sorted by count then word.
func themes(msgs []*domain.Message) []Theme {
	if len(msgs) == 0 {
		return []Theme{}
	}
	counts := make(map[string]int)
	for _, m := range msgs {
		seen := make(map[string]bool)
		for _, w := range strings.FieldsFunc(strings.ToLower(m.Text), notLetter) {
			if len(w) < minThemeWordLen || stopWords[w] || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}
	min := int(float64(len(msgs))*themeThreshold) + 1
	out := []Theme{}
	for w, n := range counts {
		if n >= min {
			out = append(out, Theme{Word: w, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

func findings(r *Report, msgs []*domain.Message) []string {
	out := []string{}
	for i, t := range r.Themes {
		if i == 3 {
			break
		}
		out = append(out, fmt.Sprintf("Discussion concentrated on %q, mentioned in %d of %d messages", t.Word, t.Count, len(msgs)))
	}
	constraints, assumptions, opportunities := tallyAnalysis(r.Analysis)
	if constraints > 0 {
		out = append(out, fmt.Sprintf("%d constraints were surfaced during discussion", constraints))
	}
	if opportunities > 0 {
		out = append(out, fmt.Sprintf("%d opportunities were identified", opportunities))
	}
	if assumptions > 0 {
		out = append(out, fmt.Sprintf("%d assumptions were captured and may need validation", assumptions))
	}
	if len(out) == 0 {
		out = append(out, "Not enough discussion yet to extract findings")
	}
	return out
}

func recommendations(r *Report) []string {
	out := []string{}
	_, assumptions, opportunities := tallyAnalysis(r.Analysis)
	if assumptions > 0 {
		out = append(out, "Validate the captured assumptions before converging on a solution")
	}
	if opportunities > 0 {
		out = append(out, "Prioritize the identified opportunities in the ideation phase")
	}
	if r.RoomCount == 0 && r.ParticipantCount > 3 {
		out = append(out, "Consider breakout rooms to parallelize discussion")
	}
	if len(out) == 0 {
		out = append(out, "Continue the discussion to gather more input")
	}
	return out
}

func tallyAnalysis(analysis []domain.Analysis) (constraints, assumptions, opportunities int) {
	for _, a := range analysis {
		constraints += len(a.Constraints)
		assumptions += len(a.Assumptions)
		opportunities += len(a.Opportunities)
	}
	return
}

func notLetter(r rune) bool {
	return (r < 'a' || r > 'z') && (r < 'A' || r > 'Z')
}
