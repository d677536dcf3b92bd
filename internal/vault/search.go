package vault

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dpshade/prompt-vault/internal/models"
)

// Query selects prompts by text match and tag filters. Text matches against
// the chosen fields as a substring, or as a regular expression when Regex is
// set. Tag filters are AND-combined: a prompt matches only if its tag set is
// a superset of Tags. An empty Text with tag filters is a pure tag query.
type Query struct {
	Text          string
	InTitle       bool
	InContent     bool
	Tags          []string
	Regex         bool
	CaseSensitive bool
}

// Search returns the prompts matching q, in ListPrompts order.
func (v *Vault) Search(q Query) ([]*SearchHit, error) {
	if q.Text != "" && !q.InTitle && !q.InContent {
		q.InTitle = true
	}
	match, err := q.matcher()
	if err != nil {
		return nil, err
	}

	var hits []*SearchHit
	for _, p := range v.ListPrompts() {
		if !p.HasAllTags(q.Tags) {
			continue
		}
		if q.Text != "" {
			field := ""
			switch {
			case q.InTitle && match(p.Title):
				field = "title"
			case q.InContent && match(p.Content):
				field = "content"
			default:
				continue
			}
			hits = append(hits, &SearchHit{Prompt: p, Field: field})
			continue
		}
		hits = append(hits, &SearchHit{Prompt: p})
	}
	return hits, nil
}

// SearchHit pairs a matching prompt with the field that matched, when a text
// query was given.
type SearchHit struct {
	Prompt *models.Prompt
	Field  string
}

func (q Query) matcher() (func(string) bool, error) {
	if q.Text == "" {
		return func(string) bool { return true }, nil
	}
	if q.Regex {
		pattern := q.Text
		if !q.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern: %w", err)
		}
		return re.MatchString, nil
	}
	if q.CaseSensitive {
		needle := q.Text
		return func(s string) bool { return strings.Contains(s, needle) }, nil
	}
	needle := strings.ToLower(q.Text)
	return func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }, nil
}
