// Package analysis derives lightweight signal from chat text by keyword
// matching. It flags constraints, assumptions, and opportunities, guesses the
// author's intent, and scores sentiment. There is no language model behind
// it; every check is a single-pass substring scan.
package analysis

import "strings"

var constraintMarkers = []string{
	"budget", "cost", "deadline", "timeline", "cannot", "can't", "must not",
	"limit", "restricted", "regulation", "requirement", "not allowed", "only have",
}

var assumptionMarkers = []string{
	"assume", "assuming", "probably", "likely", "presumably", "i think",
	"should be", "i believe", "my guess", "expect that",
}

var opportunityMarkers = []string{
	"opportunity", "could", "what if", "potential", "possibility", "might be able",
	"imagine", "why not", "alternative",
}

var positiveWords = []string{
	"great", "good", "love", "excellent", "agree", "excited", "promising", "perfect", "helpful",
}

var negativeWords = []string{
	"bad", "problem", "worried", "concern", "risk", "fail", "difficult", "blocker", "wrong",
}

// AnalyzeMessage runs all detectors over the text and returns the combined
// payload. Empty text yields a neutral statement with no extractions.
func AnalyzeMessage(text string) *Analysis {
	lower := strings.ToLower(text)
	a := &Analysis{
		Intent:        detectPrimaryIntent(lower),
		Constraints:   extractSentences(text, constraintMarkers),
		Assumptions:   extractSentences(text, assumptionMarkers),
		Opportunities: extractSentences(text, opportunityMarkers),
		Sentiment:     scoreSentiment(lower),
	}
	a.Confidence = confidence(a)
	return a
}

// Analysis mirrors domain.Analysis without the message attribution fields.
type Analysis struct {
	Intent        string
	Constraints   []string
	Assumptions   []string
	Opportunities []string
	Sentiment     string
	Confidence    float64
}

// detectPrimaryIntent classifies the text into the first matching intent
// category. Order matters: a worried question still reads as a question.
func detectPrimaryIntent(lower string) string {
	switch {
	case strings.Contains(lower, "?"),
		strings.HasPrefix(lower, "how "),
		strings.HasPrefix(lower, "what "),
		strings.HasPrefix(lower, "why "):
		return "question"
	case containsAny(lower, []string{"worried", "concern", "risk", "problem", "issue", "afraid"}):
		return "concern"
	case containsAny(lower, []string{"suggest", "propose", "we could", "we should", "how about", "idea:"}):
		return "proposal"
	case containsAny(lower, []string{"agree", "exactly", "good point", "makes sense", "+1"}):
		return "agreement"
	default:
		return "statement"
	}
}

// extractSentences returns each sentence of the original text that contains
// at least one marker, deduplicated, in order of appearance.
func extractSentences(text string, markers []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, bounds := range sentenceBounds(text) {
		if !containsAny(strings.ToLower(text[bounds[0]:bounds[1]]), markers) {
			continue
		}
		sentence := strings.TrimSpace(text[bounds[0]:bounds[1]])
		if sentence == "" || seen[sentence] {
			continue
		}
		seen[sentence] = true
		out = append(out, sentence)
	}
	return out
}

// sentenceBounds splits on terminal punctuation and returns [start, end)
// byte offsets for each fragment.
func sentenceBounds(s string) [][2]int {
	var bounds [][2]int
	start := 0
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			if i > start {
				bounds = append(bounds, [2]int{start, i})
			}
			start = i + 1
		}
	}
	if start < len(s) {
		bounds = append(bounds, [2]int{start, len(s)})
	}
	return bounds
}

func scoreSentiment(lower string) string {
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// confidence grows with the number of matched signals, capped well below
// certainty since substring matching is a coarse instrument.
func confidence(a *Analysis) float64 {
	score := 0.5
	hits := len(a.Constraints) + len(a.Assumptions) + len(a.Opportunities)
	if a.Intent != "statement" {
		hits++
	}
	score += 0.1 * float64(hits)
	if score > 0.95 {
		score = 0.95
	}
	return score
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
