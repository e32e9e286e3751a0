// Package extract parses hidden fact markers out of generated responses.
// Personas are instructed to tag durable user facts inline as
// <!--FACT:category:statement--> HTML comments; this package pulls them
// into structured Fact values and strips the markers before the text is
// shown to the user.
package extract

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/edforge/mentor/internal/types"
)

var factMarkerRe = regexp.MustCompile(`<!--FACT:(\w+):(.+?)-->`)

// factSchema constrains the payload shape personas may emit. Markers
// that do not validate are dropped rather than stored.
var factSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"category": {Type: "string"},
		"fact":     {Type: "string"},
	},
	Required: []string{"category", "fact"},
}

var (
	resolveOnce  sync.Once
	resolved     *jsonschema.Resolved
	resolveErr   error
)

func resolvedSchema() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = factSchema.Resolve(nil)
	})
	return resolved, resolveErr
}

// Facts extracts every fact marker from a response and returns the
// structured facts alongside the response text with the markers removed.
// Malformed or schema-invalid markers are logged and skipped; they are
// still stripped from the cleaned text.
func Facts(response string) ([]types.Fact, string) {
	matches := factMarkerRe.FindAllStringSubmatch(response, -1)
	if len(matches) == 0 {
		return nil, response
	}

	cleaned := strings.TrimSpace(factMarkerRe.ReplaceAllString(response, ""))

	schema, err := resolvedSchema()
	if err != nil {
		slog.Error("failed to resolve fact schema", "error", err)
		return nil, cleaned
	}

	facts := make([]types.Fact, 0, len(matches))
	for _, match := range matches {
		fact := strings.TrimSpace(match[2])
		if fact == "" {
			continue
		}
		payload := map[string]any{
			"category": match[1],
			"fact":     fact,
		}
		if err := schema.Validate(payload); err != nil {
			slog.Warn("dropping invalid fact marker", "error", err, "marker", match[0])
			continue
		}
		facts = append(facts, types.Fact{
			Category: strings.ToLower(match[1]),
			Fact:     fact,
		})
	}
	return facts, cleaned
}
