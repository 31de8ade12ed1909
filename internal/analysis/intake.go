package analysis

import "complaintqa/internal/domain"

// intakeRule accepts a note for a complaint tagged with one of tags when the
// diagnosis or root cause mentions one of terms.
type intakeRule struct {
	name  string
	tags  *keywordSet
	terms *keywordSet
}

var intakeRules = []intakeRule{
	{"lighting", newKeywordSet("lighting"), newKeywordSet("light", "bulb", "lamp", "led", "electrical", "wiring")},
	{"cooling", newKeywordSet("cool", "temp"), newKeywordSet("cool", "temp", "compressor", "refrigerant", "thermostat", "freezing")},
	{"noise", newKeywordSet("noise"), newKeywordSet("noise", "vibration", "motor", "fan", "compressor", "rattling", "buzzing")},
	{"ice", newKeywordSet("ice"), newKeywordSet("ice", "water", "maker", "freezing")},
	{"water", newKeywordSet("leak", "water"), newKeywordSet("leak", "water", "drain", "condensation")},
	{"door", newKeywordSet("door", "seal"), newKeywordSet("door", "seal", "gasket", "hinge")},
}

// IntakeCheck is the result of comparing a new note with the complaint tags.
type IntakeCheck struct {
	Consistent bool
	// Checked names the tag groups that applied to the complaint.
	Checked []string
}

// CheckIntake runs before a note is stored. A note is consistent when any
// applicable tag group finds one of its terms in the diagnosis or root cause.
// Complaints whose tags match no group are not checked.
func CheckIntake(tags []string, note domain.TechnicalNote) IntakeCheck {
	normTags := make([]string, 0, len(tags))
	for _, t := range tags {
		normTags = append(normTags, normalizeText(t))
	}
	diagnosis := normalizeText(note.TechnicalAssessment.FaultDiagnosis)
	rootCause := normalizeText(note.TechnicalAssessment.RootCause)

	var out IntakeCheck
	for _, r := range intakeRules {
		if !r.tags.matchAny(normTags) {
			continue
		}
		out.Checked = append(out.Checked, r.name)
		if r.terms.matches(diagnosis) || r.terms.matches(rootCause) {
			out.Consistent = true
		}
	}
	if len(out.Checked) == 0 {
		out.Consistent = true
	}
	return out
}
