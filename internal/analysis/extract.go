package analysis

import (
	"strings"

	"complaintqa/internal/domain"
)

// CustomerExtractor derives a category from the customer's own words. The
// zero value uses the built-in rule table only.
type CustomerExtractor struct {
	rules []rule
}

// NewCustomerExtractor puts glossary overrides (may be nil) ahead of the
// built-in description rules.
func NewCustomerExtractor(glossary *Glossary) CustomerExtractor {
	var table []rule
	if glossary != nil {
		table = append(table, glossary.rules()...)
	}
	table = append(table, customerRules...)
	return CustomerExtractor{rules: table}
}

// Extract returns exactly one label for the complaint.
func (x CustomerExtractor) Extract(tags []string, description string) domain.Category {
	table := x.rules
	if table == nil {
		table = customerRules
	}
	s := signals{text: map[field]string{fieldDescription: normalizeText(description)}}
	if label, _, ok := firstMatch(table, s); ok {
		return label
	}
	for _, tag := range tags {
		ts := signals{text: map[field]string{fieldTag: normalizeText(tag)}}
		if label, _, ok := firstMatch(tagRules, ts); ok {
			return label
		}
	}
	return domain.UnknownIssue
}

// ExtractCustomerCategory applies the built-in customer rules.
func ExtractCustomerCategory(tags []string, description string) domain.Category {
	return CustomerExtractor{}.Extract(tags, description)
}

func noteSignals(note domain.TechnicalNote) signals {
	ta := note.TechnicalAssessment
	s := signals{text: map[field]string{
		fieldDiagnosis: normalizeText(ta.FaultDiagnosis),
		fieldRootCause: normalizeText(ta.RootCause),
	}}
	for _, c := range ta.ComponentInspected {
		if n := normalizeText(c); strings.TrimSpace(n) != "" {
			s.components = append(s.components, n)
		}
	}
	return s
}

// ExtractTechnicianCategory evaluates every note in order; the last note that
// yields a label wins. ok is false when no note carries a usable signal.
func ExtractTechnicianCategory(notes []domain.TechnicalNote) (label domain.Category, ok bool) {
	for _, note := range notes {
		s := noteSignals(note)
		if s.empty() {
			continue
		}
		if l, _, matched := firstMatch(technicianRules, s); matched {
			label, ok = l, true
			continue
		}
		if fanMotorComponent(s) {
			label, ok = domain.EvaporatorFanMalfunction, true
		}
	}
	return label, ok
}
