package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONPattern = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	braceSpanPattern  = regexp.MustCompile(`\{[\s\S]*\}`)
)

// extractionStrategy returns a candidate JSON text, or false when it does not apply
type extractionStrategy func(text string) (string, bool)

// extractionStrategies run in order; the first candidate that parses as an object wins
var extractionStrategies = []extractionStrategy{
	func(text string) (string, bool) {
		return strings.TrimSpace(text), true
	},
	func(text string) (string, bool) {
		match := fencedJSONPattern.FindStringSubmatch(text)
		if match == nil {
			return "", false
		}
		return match[1], true
	},
	func(text string) (string, bool) {
		match := braceSpanPattern.FindString(text)
		return match, match != ""
	},
}

// ExtractJSON recovers a JSON object from model output.
// It tries the whole text, then a ```json fenced block, then the outermost brace span,
// and returns an empty map when nothing parses.
func ExtractJSON(text string) map[string]interface{} {
	for _, strategy := range extractionStrategies {
		candidate, ok := strategy(text)
		if !ok {
			continue
		}
		var result map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &result); err == nil && result != nil {
			return result
		}
	}
	return map[string]interface{}{}
}
