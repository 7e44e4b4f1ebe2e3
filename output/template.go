package output

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/fault"
)

// Missing is substituted for fields an item does not have.
const Missing = "NA"

var tokenPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// TemplateError reports an output template that cannot produce a path.
type TemplateError struct {
	Template string
	// Key is the offending token, empty when the template as a whole is unusable.
	Key        string
	Suggestion string
	Reason     string
}

func (e *TemplateError) Error() string {
	switch {
	case e.Key != "" && e.Suggestion != "":
		return fmt.Sprintf("unknown field {%s} in %q, did you mean {%s}?", e.Key, e.Template, e.Suggestion)
	case e.Key != "":
		return fmt.Sprintf("unknown field {%s} in %q", e.Key, e.Template)
	default:
		return fmt.Sprintf("template %q %s", e.Template, e.Reason)
	}
}

func templateErr(e *TemplateError) error {
	return fault.Wrap(fault.Template, "output template", e)
}

// Validate checks every {token} of template against the whitelist before any work is done.
func Validate(template string) error {
	if strings.TrimSpace(template) == "" {
		return templateErr(&TemplateError{Template: template, Reason: "is empty"})
	}

	for _, match := range tokenPattern.FindAllStringSubmatch(template, -1) {
		name := strings.TrimSpace(match[1])
		if name == "" {
			return templateErr(&TemplateError{Template: template, Reason: "contains an empty {} token"})
		}

		if !IsAllowed(name) {
			return templateErr(&TemplateError{Template: template, Key: name, Suggestion: Suggest(name)})
		}
	}

	return nil
}

// Suggest returns the whitelisted key closest to name: a fuzzy match if one exists, the nearest by edit distance otherwise.
func Suggest(name string) string {
	keys := Keys()

	if ranks := fuzzy.RankFindFold(name, keys); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	return lo.MinBy(keys, func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
}

// Render substitutes fields into template. Missing fields become the fallback literal,
// or stay as {token} when fallback is absent, which is how partial templates are rendered before resolution.
func Render(template string, fields map[string]string, fallback mo.Option[string]) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.TrimSpace(token[1 : len(token)-1])
		if value, ok := fields[name]; ok {
			return value
		}
		return fallback.OrElse(token)
	})
}
