package analysis

import (
	"strings"

	"complaintqa/internal/domain"
)

const unknownModel = "UNSPECIFIED MODEL"

// Narrative is the text half of an AnalysisResult.
type Narrative struct {
	FinalOpinion        string
	TechnicalDiagnosis  string
	RootCause           string
	SolutionImplemented string
	SystemicAssessment  string
	Recommendations     []string
}

// narrativeTemplate fields may use {model}, {category}, {customer} and
// {technician}. Empty fields fall back to the defaults below.
type narrativeTemplate struct {
	opinion         string
	diagnosis       string
	rootCause       string
	solution        string
	systemic        string
	recommendations []string
}

const (
	defaultOpinion   = "The {model} refrigerator exhibits issues with {category}, requiring specific component-level diagnostics and repair."
	defaultDiagnosis = "Based on both customer report and technical assessment, this {model} unit is experiencing a {category} issue which requires detailed technical investigation."
	defaultRootCause = "Analysis of component-specific failure is needed. Refer to the technical assessment notes for initial diagnosis."
	defaultSolution  = "See technician notes for implemented solution details."
	defaultSystemic  = "Further data collection needed to determine if this is an isolated incident or indicates a systemic issue."

	educateCustomer = "Educate customer about how the identified technical issue relates to the symptoms they observed"
)

var genericRecommendations = []string{
	"Verify all related components and connections",
	"Check for manufacturing or design issues that might contribute to the problem",
	"Document the repair procedure for quality analysis purposes",
}

// categoryTemplates is keyed by the final category. Adding a taxonomy member
// only needs an entry here; missing entries use the defaults.
var categoryTemplates = map[domain.Category]narrativeTemplate{
	domain.NoisyGasInjection: {
		opinion:   "The {model} refrigerator exhibits a noisy gas injection issue, characterized by bubbling or hissing sounds during the refrigeration cycle.",
		rootCause: "Refrigerant entering the evaporator through the capillary tube produces audible bubbling, typically aggravated by an undercharged or unevenly charged circuit.",
		recommendations: []string{
			"Check the refrigerant charge against the rating plate and correct any deviation",
			"Inspect the capillary tube and injection point for kinks or partial restriction",
		},
	},
	domain.CompressorNoiseIssue: {
		opinion:   "The {model} refrigerator has a noisy compressor, with mechanical or start-up sounds exceeding normal operating levels.",
		rootCause: "Compressor mounting, worn internal components or a failing start relay are the usual sources of abnormal compressor noise.",
		recommendations: []string{
			"Inspect compressor mounting grommets and isolation feet",
			"Measure compressor current draw during start-up and steady state",
		},
	},
	domain.UnknownNoiseIssue: {
		opinion: "The {model} refrigerator produces an abnormal noise whose source has not yet been isolated.",
		recommendations: []string{
			"Isolate the noise source by running fan, compressor and defrost cycles separately",
		},
	},
	domain.NoiseIssue: {
		opinion: "The {model} refrigerator has a reported noise issue that requires on-site isolation of the sound source.",
		recommendations: []string{
			"Isolate the noise source by running fan, compressor and defrost cycles separately",
		},
	},
	domain.CompressorNotCooling: {
		opinion:   "The {model} refrigerator's compressor is failing to cool properly, resulting in inadequate temperature regulation in the refrigeration compartment.",
		rootCause: "Loss of compressor efficiency, a failed start component or a refrigerant restriction prevents the circuit from reaching set-point temperature.",
		recommendations: []string{
			"Measure suction and discharge pressures and compare with specification",
			"Test the compressor start relay and overload protector",
		},
	},
	domain.TemperatureControlIssue: {
		opinion: "The {model} refrigerator does not hold its set temperature reliably, pointing to a control or sensing fault in the cooling loop.",
		recommendations: []string{
			"Verify thermistor readings against a calibrated reference thermometer",
			"Log compartment temperature over a full compressor cycle",
		},
	},
	domain.LightingIssues: {
		opinion: "The {model} refrigerator has lighting issues with its internal LED/bulb system, compromising visibility of the contents.",
		recommendations: []string{
			"Test the LED driver output voltage and the door switch signal",
		},
	},
	domain.DigitalPanelMalfunction: {
		opinion: "The {model} refrigerator's digital control panel is malfunctioning, preventing proper operation of temperature settings and features.",
		recommendations: []string{
			"Read stored error codes from the control board",
			"Inspect the display ribbon cable and connectors for moisture or corrosion",
		},
	},
	domain.DoorSealFailure: {
		opinion: "The {model} refrigerator has a compromised door seal/gasket, allowing warm air infiltration and reducing cooling efficiency.",
		recommendations: []string{
			"Perform a paper test around the full gasket perimeter",
			"Check door alignment and hinge adjustment before replacing the gasket",
		},
	},
	domain.IceMakerFailure: {
		opinion: "The {model} refrigerator's ice maker is not producing ice as expected.",
		recommendations: []string{
			"Check water inlet valve operation and supply pressure",
			"Verify ice maker module cycle and freezer compartment temperature",
		},
	},
	domain.RefrigerantLeak: {
		opinion: "The {model} refrigerator shows signs of a refrigerant leak, reducing cooling capacity over time.",
		recommendations: []string{
			"Perform electronic leak detection on all brazed joints",
			"Evacuate, repair and recharge the sealed system to specification",
		},
	},
	domain.WaterDispenserProblem: {
		opinion: "The {model} refrigerator has a water dispensing or water leakage problem.",
		recommendations: []string{
			"Inspect water lines, filter housing and inlet valve for leaks",
		},
	},
	domain.EvaporatorFanMalfunction: {
		opinion: "The {model} refrigerator has a malfunctioning fan motor, disrupting proper air circulation and cooling.",
		recommendations: []string{
			"Test the evaporator fan motor winding resistance and free rotation",
			"Check the fan blade and shroud for ice obstruction",
		},
	},
	domain.DefrostSystemFailure: {
		opinion: "The {model} refrigerator's automatic defrost system is failing, causing frost accumulation on the evaporator.",
		recommendations: []string{
			"Test the defrost heater, defrost thermostat and defrost timer or control",
		},
	},
	domain.DrainageSystemClog: {
		opinion: "The {model} refrigerator's defrost drainage is clogged, causing water accumulation.",
		recommendations: []string{
			"Flush the defrost drain line and verify the drain heater",
		},
	},
}

// inconsistencyTemplate is used for any unrelated pair without a dedicated
// entry in pairTemplates.
var inconsistencyTemplate = narrativeTemplate{
	opinion: "The {model} refrigerator exhibits a technical issue ({technician}) that appears inconsistent with the customer's reported problem ({customer}). This suggests either an underlying issue that manifests differently than the customer perceives, or potentially multiple issues.",
	diagnosis: `The customer reported {customer}, but technical assessment identified {technician}. This inconsistency requires further investigation.

Possible explanations:
1. The {technician} may be causing symptoms that the customer perceives as {customer}.
2. There may be multiple issues present in the unit.
3. The customer may be describing the symptoms differently than how they technically manifest.

The technician's assessment of {technician} is supported by the diagnostic measurements and component inspection, which should be the primary focus of the repair.`,
}

type categoryPair struct {
	customer   domain.Category
	technician domain.Category
}

// pairTemplates explain known symptom/cause combinations that look unrelated.
var pairTemplates = map[categoryPair]narrativeTemplate{
	{domain.LightingIssues, domain.EvaporatorFanMalfunction}: {
		opinion: "The {model} refrigerator has a malfunctioning fan motor that is affecting the electrical system, manifesting as lighting issues to the customer. The fan motor's electrical issues cause voltage fluctuations that impact the lighting circuit. The technician correctly identified the root cause (fan motor) while the customer observed the symptom (lighting failure).",
		diagnosis: `The customer reported lighting issues in the {model} refrigerator, but the technical assessment identified a fan motor malfunction as the root cause. This apparent inconsistency has a technical explanation.

Detailed Analysis:
1. The evaporator fan motor in this model shares a circuit board with the lighting system.
2. When the fan motor experiences electrical issues, it creates voltage fluctuations in the shared circuit.
3. These voltage fluctuations manifest to the customer as intermittent lighting problems.
4. When the fan motor draws excessive current during operation attempts, the lighting circuit experiences voltage drops below operational thresholds.

This is a common case where the symptom (lighting failure) is different from the actual cause (fan motor electrical issues).`,
		rootCause: "Electrical faults in the evaporator fan motor load the circuit it shares with the lighting system, producing voltage drops that the customer sees as lighting failure.",
		recommendations: []string{
			"Replace the fan motor and test both the fan and lighting systems to ensure proper operation",
			"Check the shared circuit board for any damage caused by voltage fluctuations",
			"Clean and inspect the electrical connections between the fan motor and main control board",
			"Apply dielectric grease to the fan motor's electrical connections to prevent future moisture damage",
			"Measure voltage across the lighting circuit when the fan is operational to verify the issue has been resolved",
			"Consider design improvements to isolate the lighting circuit from fan motor voltage fluctuations",
		},
	},
}

func selectTemplate(v Verdict) (narrativeTemplate, bool) {
	if v.Inconsistent {
		if t, ok := pairTemplates[categoryPair{v.Customer, v.Technician}]; ok {
			return t, true
		}
		return inconsistencyTemplate, false
	}
	return categoryTemplates[v.Final], false
}

// Synthesize builds the narrative fields for a verdict. Pure and
// deterministic; modelNumber is substituted verbatim.
func Synthesize(v Verdict, modelNumber string) Narrative {
	model := strings.TrimSpace(modelNumber)
	if model == "" {
		model = unknownModel
	}
	replacer := strings.NewReplacer(
		"{model}", model,
		"{category}", strings.ToLower(v.Final.Display()),
		"{customer}", strings.ToLower(v.Customer.Display()),
		"{technician}", strings.ToLower(v.Technician.Display()),
	)
	render := func(s, fallback string) string {
		if s == "" {
			s = fallback
		}
		return replacer.Replace(s)
	}

	tmpl, dedicated := selectTemplate(v)
	n := Narrative{
		FinalOpinion:        render(tmpl.opinion, defaultOpinion),
		TechnicalDiagnosis:  render(tmpl.diagnosis, defaultDiagnosis),
		RootCause:           render(tmpl.rootCause, defaultRootCause),
		SolutionImplemented: render(tmpl.solution, defaultSolution),
		SystemicAssessment:  render(tmpl.systemic, defaultSystemic),
	}

	if dedicated {
		for _, r := range tmpl.recommendations {
			n.Recommendations = append(n.Recommendations, replacer.Replace(r))
		}
	} else {
		focus := "Perform detailed diagnostic tests focusing on the " + strings.ToLower(v.Final.Display())
		if v.Inconsistent {
			focus += " with special attention to both reported and discovered issues"
		}
		n.Recommendations = append(n.Recommendations, focus)
		for _, r := range categoryTemplates[v.Final].recommendations {
			n.Recommendations = append(n.Recommendations, replacer.Replace(r))
		}
		n.Recommendations = append(n.Recommendations, genericRecommendations...)
	}
	if v.Inconsistent {
		n.Recommendations = append(n.Recommendations, educateCustomer)
	}
	return n
}
