package common

import (
	"regexp"

	"github.com/ternarybob/arbor"
)

// placeholderPattern matches {name} placeholders in prompt templates
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// RenderTemplate replaces every {name} placeholder in tmpl with vars[name].
// Substituted values are not scanned again, so content containing braces is safe.
// Unknown placeholders are left unchanged and logged at warn level.
func RenderTemplate(tmpl string, vars map[string]string, logger arbor.ILogger) string {
	if tmpl == "" {
		return tmpl
	}

	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		if logger != nil {
			logger.Warn().Str("placeholder", name).Msg("Unresolved template placeholder")
		}
		return match
	})
}
