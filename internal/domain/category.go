package domain

import "strings"

// Category is a member of the closed fault-category taxonomy.
type Category string

const (
	NoisyGasInjection        Category = "NOISY_GAS_INJECTION"
	CompressorNoiseIssue     Category = "COMPRESSOR_NOISE_ISSUE"
	UnknownNoiseIssue        Category = "UNKNOWN_NOISE_ISSUE"
	NoiseIssue               Category = "NOISE_ISSUE"
	CompressorNotCooling     Category = "COMPRESSOR_NOT_COOLING"
	TemperatureControlIssue  Category = "TEMPERATURE_CONTROL_ISSUE"
	LightingIssues           Category = "LIGHTING_ISSUES"
	DigitalPanelMalfunction  Category = "DIGITAL_PANEL_MALFUNCTION"
	DoorSealFailure          Category = "DOOR_SEAL_FAILURE"
	IceMakerFailure          Category = "ICE_MAKER_FAILURE"
	RefrigerantLeak          Category = "REFRIGERANT_LEAK"
	WaterDispenserProblem    Category = "WATER_DISPENSER_PROBLEM"
	EvaporatorFanMalfunction Category = "EVAPORATOR_FAN_MALFUNCTION"
	DefrostSystemFailure     Category = "DEFROST_SYSTEM_FAILURE"
	DrainageSystemClog       Category = "DRAINAGE_SYSTEM_CLOG"
	Other                    Category = "OTHER"
	UnknownIssue             Category = "UNKNOWN_ISSUE"
)

// Family groups labels that describe the same physical subsystem.
type Family string

const (
	FamilyNoise      Family = "noise"
	FamilyFan        Family = "fan"
	FamilyCooling    Family = "cooling"
	FamilyCompressor Family = "compressor"
	FamilyLighting   Family = "lighting"
	FamilyPanel      Family = "panel"
)

type categoryInfo struct {
	families   []Family
	unreliable bool
}

// taxonomy is ordered; Categories() returns labels in this order and the LLM
// system prompt enumerates them the same way.
var taxonomy = []struct {
	label Category
	info  categoryInfo
}{
	{NoisyGasInjection, categoryInfo{families: []Family{FamilyNoise}}},
	{CompressorNoiseIssue, categoryInfo{families: []Family{FamilyNoise, FamilyCompressor}}},
	{UnknownNoiseIssue, categoryInfo{families: []Family{FamilyNoise}, unreliable: true}},
	{NoiseIssue, categoryInfo{families: []Family{FamilyNoise}}},
	{CompressorNotCooling, categoryInfo{families: []Family{FamilyCooling, FamilyCompressor}}},
	{TemperatureControlIssue, categoryInfo{families: []Family{FamilyCooling}}},
	{LightingIssues, categoryInfo{families: []Family{FamilyLighting}}},
	{DigitalPanelMalfunction, categoryInfo{families: []Family{FamilyPanel}}},
	{DoorSealFailure, categoryInfo{}},
	{IceMakerFailure, categoryInfo{}},
	{RefrigerantLeak, categoryInfo{}},
	{WaterDispenserProblem, categoryInfo{}},
	{EvaporatorFanMalfunction, categoryInfo{families: []Family{FamilyFan}}},
	{DefrostSystemFailure, categoryInfo{}},
	{DrainageSystemClog, categoryInfo{}},
	{Other, categoryInfo{}},
	{UnknownIssue, categoryInfo{unreliable: true}},
}

var taxonomyIndex = func() map[Category]categoryInfo {
	idx := make(map[Category]categoryInfo, len(taxonomy))
	for _, entry := range taxonomy {
		idx[entry.label] = entry.info
	}
	return idx
}()

// Categories returns every taxonomy member in canonical order.
func Categories() []Category {
	out := make([]Category, 0, len(taxonomy))
	for _, entry := range taxonomy {
		out = append(out, entry.label)
	}
	return out
}

// Valid reports whether c is a taxonomy member.
func (c Category) Valid() bool {
	_, ok := taxonomyIndex[c]
	return ok
}

// Display returns the human-readable form, e.g. "NOISY GAS INJECTION".
func (c Category) Display() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

func (c Category) String() string {
	return string(c)
}

// Families returns the subsystem families the label belongs to.
func (c Category) Families() []Family {
	return taxonomyIndex[c].families
}

// HasFamily reports whether the label belongs to family f.
func (c Category) HasFamily(f Family) bool {
	for _, fam := range taxonomyIndex[c].families {
		if fam == f {
			return true
		}
	}
	return false
}

// Reliable is false for labels that carry no usable customer-side signal.
func (c Category) Reliable() bool {
	info, ok := taxonomyIndex[c]
	return ok && !info.unreliable
}

// ParseCategory accepts a canonical token or its display form, case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*`\"'.")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	token := strings.ToUpper(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_"))
	c := Category(token)
	if !c.Valid() {
		return "", false
	}
	return c, true
}
