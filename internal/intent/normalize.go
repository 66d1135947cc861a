package intent

import (
	"strings"
)

// Voice transcripts routinely swap number words for their homophones ("plan
// for tree days in Jaipur for to people"). normalizeUtterance repairs the
// common cases before classification. It only rewrites a homophone when a
// unit word (days, nights, people, weeks) follows, so ordinary prose like
// "I'd like to visit" is never touched.
var numberHomophones = map[string]string{
	"won":  "one",
	"to":   "two",
	"too":  "two",
	"tree": "three",
	"free": "three",
	"for":  "four",
	"fore": "four",
	"sex":  "six",
	"ate":  "eight",
}

var unitWords = map[string]bool{
	"day": true, "days": true,
	"night": true, "nights": true,
	"week": true, "weeks": true,
	"people": true, "person": true,
	"hour": true, "hours": true,
}

// NormalizeUtterance returns the utterance with transcription homophones
// repaired. It never fails: input it cannot improve passes through unchanged.
func NormalizeUtterance(utterance string) string {
	words := strings.Fields(utterance)
	for i := 0; i < len(words)-1; i++ {
		lower := strings.ToLower(words[i])
		repaired, ok := numberHomophones[lower]
		if !ok {
			continue
		}
		next := strings.ToLower(strings.Trim(words[i+1], ".,!?"))
		if unitWords[next] {
			words[i] = repaired
		}
	}
	return strings.Join(words, " ")
}
