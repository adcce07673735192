package titlerules

import (
	"fmt"
	"strings"

	"github.com/tellsiddh/collections/internal/domain"
)

// Mapper converts the rules file into the classifier's table.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapRules returns the file's rules in order, followed by the built-in
// table unless the file opts out. Patterns are lower-cased and blank ones
// dropped; rules left without a label or patterns are skipped.
func (m *Mapper) MapRules(file *File) ([]domain.TitleRule, error) {
	if file == nil {
		return nil, fmt.Errorf("no title rules to map")
	}

	rules := make([]domain.TitleRule, 0, len(file.Rules)+len(domain.DefaultTitleRules()))
	for _, r := range file.Rules {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			continue
		}

		patterns := make([]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				patterns = append(patterns, p)
			}
		}
		if len(patterns) == 0 {
			continue
		}

		rules = append(rules, domain.TitleRule{Patterns: patterns, Label: label})
	}

	if file.IncludeDefaults == nil || *file.IncludeDefaults {
		rules = append(rules, domain.DefaultTitleRules()...)
	}

	if len(rules) == 0 {
		return nil, fmt.Errorf("no valid title rules found")
	}
	return rules, nil
}
