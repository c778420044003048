package textfeatures

import (
	"strings"
	"time"
)

var (
	polishedMarkers  = []string{"no mistakes", "perfect", "felfri", "perfekt", "utan fel"}
	reasoningMarkers = []string{"because", "therefore", "reason", "explanation", "eftersom", "därför", "alltså", "förklaring"}
	advancedMarkers  = []string{"complex", "advanced", "sophisticated", "optimal", "komplex", "avancerad", "sofistikerad"}
)

// novelStyleOverlap is the vocabulary overlap below which a submission reads
// as written by someone else than the student's earlier work.
const novelStyleOverlap = 0.1

// ExternalAidSuspected estimates whether the answer was produced with outside
// help: 1 for strong suspicion, 0.5 for some, 0 for none. history holds the
// student's earlier submissions and may be empty.
func ExternalAidSuspected(text string, history []string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	polished := containsAny(lowered, polishedMarkers)
	missingReasoning := !containsAny(lowered, reasoningMarkers)
	advanced := containsAny(lowered, advancedMarkers)
	unusual := unusualStyle(text, history)

	switch {
	case polished && missingReasoning && (advanced || unusual):
		return 1
	case polished || missingReasoning || unusual:
		return 0.5
	default:
		return 0
	}
}

// unusualStyle reports whether text shares almost no vocabulary with every prior submission.
func unusualStyle(text string, history []string) bool {
	current := tokenSet(text)
	if len(current) == 0 {
		return false
	}

	compared := 0
	for _, previous := range history {
		prior := tokenSet(previous)
		if len(prior) == 0 {
			continue
		}
		compared++
		if jaccard(current, prior) >= novelStyleOverlap {
			return false
		}
	}
	return compared > 0
}

func jaccard(a, b map[string]struct{}) float64 {
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// TimeMinutes is the whole number of minutes between start and end.
// Missing timestamps or an end before the start give 0.
func TimeMinutes(start, end *time.Time) int {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return 0
	}
	elapsed := end.Sub(*start)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}
