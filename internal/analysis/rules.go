package analysis

import (
	"strings"

	"complaintqa/internal/domain"
)

type field int

const (
	fieldDescription field = iota
	fieldTag
	fieldDiagnosis
	fieldRootCause
)

// signals holds the normalized text a rule table is evaluated against.
type signals struct {
	text       map[field]string
	components []string // normalized, one entry per inspected component
}

func (s signals) empty() bool {
	for _, t := range s.text {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return len(s.components) == 0
}

type predicate func(s signals) bool

// rule maps a predicate to a label. When refine is set, the first matching
// refinement supplies the label and label is the fallback.
type rule struct {
	name   string
	when   predicate
	label  domain.Category
	refine []rule
}

func has(f field, words ...string) predicate {
	ks := newKeywordSet(words...)
	return func(s signals) bool {
		return ks.matches(s.text[f])
	}
}

// componentIs matches an inspected component by exact (normalized) name.
func componentIs(names ...string) predicate {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(normalizeText(n))] = true
	}
	return func(s signals) bool {
		for _, c := range s.components {
			if want[strings.TrimSpace(c)] {
				return true
			}
		}
		return false
	}
}

// componentHas matches keywords inside any inspected component name.
func componentHas(words ...string) predicate {
	ks := newKeywordSet(words...)
	return func(s signals) bool {
		return ks.matchAny(s.components)
	}
}

func allOf(preds ...predicate) predicate {
	return func(s signals) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds ...predicate) predicate {
	return func(s signals) bool {
		for _, p := range preds {
			if p(s) {
				return true
			}
		}
		return false
	}
}

// firstMatch walks the ordered table and returns the label of the first
// matching rule, refined where the rule has refinements.
func firstMatch(table []rule, s signals) (domain.Category, string, bool) {
	for _, r := range table {
		if !r.when(s) {
			continue
		}
		if label, name, ok := firstMatch(r.refine, s); ok {
			return label, r.name + "/" + name, true
		}
		return r.label, r.name, true
	}
	return "", "", false
}

// customerRules is evaluated against the complaint description. Ordering is
// significant: noise keywords are checked before cooling keywords, and so on.
var customerRules = []rule{
	{
		name:  "noise",
		when:  has(fieldDescription, "noise", "noisy", "loud", "sound"),
		label: domain.UnknownNoiseIssue,
		refine: []rule{
			{name: "gas", when: has(fieldDescription, "gas", "injection"), label: domain.NoisyGasInjection},
			{name: "compressor", when: has(fieldDescription, "compressor"), label: domain.CompressorNoiseIssue},
			// Bubbling points at gas injection only when no component is named.
			{name: "bubbling", when: has(fieldDescription, "bubbling"), label: domain.NoisyGasInjection},
		},
	},
	{
		name:  "cooling",
		when:  has(fieldDescription, "cool", "cooling", "temperature", "warm", "cold"),
		label: domain.TemperatureControlIssue,
		refine: []rule{
			{name: "compressor", when: has(fieldDescription, "compressor"), label: domain.CompressorNotCooling},
		},
	},
	{
		name:  "panel",
		when:  has(fieldDescription, "panel", "display", "screen", "button", "control", "light", "lighting"),
		label: domain.DigitalPanelMalfunction,
		refine: []rule{
			{name: "light", when: has(fieldDescription, "light", "bulb", "dark"), label: domain.LightingIssues},
		},
	},
	{name: "door", when: has(fieldDescription, "door", "seal", "gasket", "close"), label: domain.DoorSealFailure},
	{name: "ice", when: has(fieldDescription, "ice", "maker", "dispenser"), label: domain.IceMakerFailure},
	{
		name:  "leak",
		when:  has(fieldDescription, "leak", "water", "puddle"),
		label: domain.WaterDispenserProblem,
		refine: []rule{
			{name: "refrigerant", when: has(fieldDescription, "refrigerant", "gas", "cooling"), label: domain.RefrigerantLeak},
		},
	},
	{name: "airflow", when: has(fieldDescription, "fan", "air", "flow"), label: domain.EvaporatorFanMalfunction},
	{name: "frost", when: has(fieldDescription, "frost", "ice build", "defrost"), label: domain.DefrostSystemFailure},
}

// tagRules is the fallback evaluated tag by tag when the description says
// nothing recognizable.
var tagRules = []rule{
	{name: "tag-noise", when: has(fieldTag, "noise"), label: domain.NoiseIssue},
	{name: "tag-light", when: has(fieldTag, "light"), label: domain.LightingIssues},
	{name: "tag-cooling", when: has(fieldTag, "cool", "temperature"), label: domain.TemperatureControlIssue},
	{name: "tag-panel", when: has(fieldTag, "panel", "display"), label: domain.DigitalPanelMalfunction},
	{name: "tag-door", when: has(fieldTag, "door", "seal"), label: domain.DoorSealFailure},
	{name: "tag-ice", when: has(fieldTag, "ice"), label: domain.IceMakerFailure},
}

// technicianRules is evaluated per technical note.
var technicianRules = []rule{
	{
		name:  "gas-noise",
		when:  allOf(has(fieldDiagnosis, "noise", "sound"), has(fieldDiagnosis, "gas", "injection")),
		label: domain.NoisyGasInjection,
	},
	{
		name:  "compressor-noise",
		when:  allOf(has(fieldDiagnosis, "compressor"), has(fieldDiagnosis, "noise", "sound")),
		label: domain.CompressorNoiseIssue,
	},
	{
		name:  "compressor-cooling",
		when:  allOf(componentIs("compressor"), has(fieldDiagnosis, "not cooling", "fail", "failure")),
		label: domain.CompressorNotCooling,
	},
	{name: "panel", when: has(fieldDiagnosis, "panel", "display", "control board"), label: domain.DigitalPanelMalfunction},
	{name: "light", when: has(fieldDiagnosis, "light", "bulb", "lamp", "led"), label: domain.LightingIssues},
	{name: "door", when: has(fieldDiagnosis, "door", "seal", "gasket"), label: domain.DoorSealFailure},
	{name: "ice", when: has(fieldDiagnosis, "ice", "maker"), label: domain.IceMakerFailure},
	{name: "refrigerant", when: has(fieldDiagnosis, "leak", "refrigerant", "freon", "gas"), label: domain.RefrigerantLeak},
	{
		name:  "fan",
		when:  anyOf(has(fieldDiagnosis, "fan", "evaporator"), componentIs("fan motor")),
		label: domain.EvaporatorFanMalfunction,
	},
	{name: "defrost", when: has(fieldDiagnosis, "defrost", "frost", "ice build"), label: domain.DefrostSystemFailure},
	{name: "dispenser", when: has(fieldDiagnosis, "water", "dispenser"), label: domain.WaterDispenserProblem},
	{name: "drain", when: has(fieldDiagnosis, "drain", "clog"), label: domain.DrainageSystemClog},
}

// fanMotorComponent is the per-note fallback when no technician rule matched.
var fanMotorComponent = componentHas("fan motor", "evaporator fan", "fan")
