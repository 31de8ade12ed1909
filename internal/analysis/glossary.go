package analysis

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"complaintqa/internal/domain"
)

// Glossary holds site-specific phrases that map straight to a category. Terms
// are checked in file order ahead of the built-in description rules.
type Glossary struct {
	Terms []GlossaryTerm `yaml:"terms"`
}

type GlossaryTerm struct {
	Phrase   string `yaml:"phrase"`
	Category string `yaml:"category"`
}

func LoadGlossary(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	var g Glossary
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse glossary yaml: %w", err)
	}
	for i, t := range g.Terms {
		if normalizeKeyword(t.Phrase) == "" {
			return nil, fmt.Errorf("glossary term %d: phrase %q has no matchable words", i+1, t.Phrase)
		}
		if _, ok := domain.ParseCategory(t.Category); !ok {
			return nil, fmt.Errorf("glossary term %q: unknown category %q", t.Phrase, t.Category)
		}
	}
	return &g, nil
}

// AppendTerm adds phrase to the glossary file at path, creating it if needed.
// Duplicate phrases are ignored.
func AppendTerm(path, phrase string, category domain.Category) error {
	phrase = strings.TrimSpace(phrase)
	if normalizeKeyword(phrase) == "" {
		return fmt.Errorf("glossary phrase %q has no matchable words", phrase)
	}
	if !category.Valid() {
		return nil
	}

	var g Glossary
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("parse existing glossary: %w", err)
		}
	}
	normalized := normalizeKeyword(phrase)
	for _, t := range g.Terms {
		if normalizeKeyword(t.Phrase) == normalized {
			return nil
		}
	}
	g.Terms = append(g.Terms, GlossaryTerm{Phrase: phrase, Category: string(category)})

	out, err := yaml.Marshal(&g)
	if err != nil {
		return fmt.Errorf("marshal glossary: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}

func (g *Glossary) rules() []rule {
	if g == nil {
		return nil
	}
	out := make([]rule, 0, len(g.Terms))
	for _, t := range g.Terms {
		label, ok := domain.ParseCategory(t.Category)
		if !ok {
			continue
		}
		out = append(out, rule{
			name:  "glossary:" + strings.ToLower(strings.TrimSpace(t.Phrase)),
			when:  has(fieldDescription, t.Phrase),
			label: label,
		})
	}
	return out
}
