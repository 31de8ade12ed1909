package analysis

import "complaintqa/internal/domain"

const (
	safeDefaultOpinion = "Automated analysis could not be completed for this complaint. Manual review by a quality engineer is required."
	safeDefaultText    = "Not available. See technician notes."
)

// Assemble merges the rule-based verdict and narrative with the classifier
// prediction. The narrative is never altered by the prediction.
func Assemble(v Verdict, n Narrative, p domain.Prediction) domain.AnalysisResult {
	res := domain.AnalysisResult{
		FinalOpinion:        n.FinalOpinion,
		RuleBasedCategory:   v.Final,
		LLMCategory:         domain.LLMUnavailable,
		TechnicalDiagnosis:  n.TechnicalDiagnosis,
		RootCause:           n.RootCause,
		SolutionImplemented: n.SolutionImplemented,
		SystemicAssessment:  n.SystemicAssessment,
		Recommendations:     append([]string(nil), n.Recommendations...),
	}
	if !res.RuleBasedCategory.Valid() {
		res.RuleBasedCategory = domain.UnknownIssue
	}
	if v.Inconsistent {
		conflicting := v.Customer
		res.ConflictingCategory = &conflicting
	}
	if p.Category.Valid() {
		res.LLMCategory = p.Category
		res.LLMJustification = p.Justification
	}
	if res.Recommendations == nil {
		res.Recommendations = []string{}
	}
	return res
}

// SafeDefault is returned when analysis fails internally.
func SafeDefault() domain.AnalysisResult {
	return domain.AnalysisResult{
		FinalOpinion:        safeDefaultOpinion,
		RuleBasedCategory:   domain.UnknownIssue,
		LLMCategory:         domain.LLMUnavailable,
		TechnicalDiagnosis:  safeDefaultText,
		RootCause:           safeDefaultText,
		SolutionImplemented: safeDefaultText,
		SystemicAssessment:  defaultSystemic,
		Recommendations:     []string{"Review the complaint and technician notes manually"},
	}
}
