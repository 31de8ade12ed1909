package domain

import "fmt"

// LLMUnavailable is stored in AnalysisResult.LLMCategory when the external
// classifier produced no usable label. It is not a taxonomy member.
const LLMUnavailable Category = "unavailable"

// AnalysisResult is the engine output for one complaint and its notes.
type AnalysisResult struct {
	FinalOpinion        string    `json:"finalOpinion"`
	RuleBasedCategory   Category  `json:"ruleBasedCategory"`
	ConflictingCategory *Category `json:"conflictingCategory,omitempty"`
	LLMCategory         Category  `json:"llmCategory"`
	LLMJustification    string    `json:"llmJustification,omitempty"`
	TechnicalDiagnosis  string    `json:"technicalDiagnosis"`
	RootCause           string    `json:"rootCause"`
	SolutionImplemented string    `json:"solutionImplemented"`
	SystemicAssessment  string    `json:"systemicAssessment"`
	Recommendations     []string  `json:"recommendations"`
}

// Inconsistent reports whether the technician finding disagreed with the
// customer report.
func (r AnalysisResult) Inconsistent() bool {
	return r.ConflictingCategory != nil
}

// LLMAvailable reports whether the cross-validator returned a taxonomy label.
func (r AnalysisResult) LLMAvailable() bool {
	return r.LLMCategory.Valid()
}

// LLMAgrees reports whether an available LLM label matches the rule-based one.
func (r AnalysisResult) LLMAgrees() bool {
	return r.LLMAvailable() && r.LLMCategory == r.RuleBasedCategory
}

// DisplayCategory renders the category for presentation, including the
// customer label when the two sides disagree.
func (r AnalysisResult) DisplayCategory() string {
	if r.ConflictingCategory == nil {
		return r.RuleBasedCategory.Display()
	}
	return fmt.Sprintf("%s (INCONSISTENT WITH CUSTOMER REPORT OF %s)",
		r.RuleBasedCategory.Display(), r.ConflictingCategory.Display())
}

// Prediction is what an external classifier returned for a complaint.
type Prediction struct {
	Category      Category
	Justification string
	Provider      string
	Model         string
}

// UnavailablePrediction is used whenever the classifier could not answer.
func UnavailablePrediction() Prediction {
	return Prediction{Category: LLMUnavailable}
}
