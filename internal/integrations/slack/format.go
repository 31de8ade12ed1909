package slackbot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"complaintqa/internal/domain"
	"complaintqa/internal/storage/sqlite"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 365

	// alertRecommendations caps the list shown in channel alerts.
	alertRecommendations = 3
)

func parseAnalyzeArgs(text string) (id int64, refresh bool, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, false, errors.New("usage: /qa-analyze <complaint id> [refresh]")
	}
	id, err = strconv.ParseInt(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("invalid complaint id %q", fields[0])
	}
	for _, f := range fields[1:] {
		switch strings.ToLower(f) {
		case "refresh", "rerun":
			refresh = true
		default:
			return 0, false, fmt.Errorf("unknown option %q", f)
		}
	}
	return id, refresh, nil
}

func parseStatsDays(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return defaultStatsDays, nil
	}
	days, err := strconv.Atoi(strings.TrimSuffix(text, "d"))
	if err != nil || days < 1 || days > maxStatsDays {
		return 0, fmt.Errorf("days must be a number between 1 and %d", maxStatsDays)
	}
	return days, nil
}

func llmLine(res domain.AnalysisResult) string {
	switch {
	case !res.LLMAvailable():
		return "unavailable"
	case res.LLMAgrees():
		return fmt.Sprintf("agrees (%s)", res.LLMCategory.Display())
	default:
		return fmt.Sprintf("disagrees (%s)", res.LLMCategory.Display())
	}
}

func formatAnalysis(complaintID int64, res domain.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Complaint #%d*\n", complaintID)
	fmt.Fprintf(&b, "*Category:* %s\n", res.DisplayCategory())
	fmt.Fprintf(&b, "*LLM cross-check:* %s\n", llmLine(res))
	fmt.Fprintf(&b, "\n*Final opinion:* %s\n", res.FinalOpinion)
	fmt.Fprintf(&b, "*Technical diagnosis:* %s\n", res.TechnicalDiagnosis)
	fmt.Fprintf(&b, "*Root cause:* %s\n", res.RootCause)
	fmt.Fprintf(&b, "*Solution implemented:* %s\n", res.SolutionImplemented)
	fmt.Fprintf(&b, "*Systemic assessment:* %s\n", res.SystemicAssessment)
	if len(res.Recommendations) > 0 {
		b.WriteString("\n*Recommendations:*\n")
		for i, r := range res.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStats(s sqlite.AgreementStats, days int) string {
	if s.Total == 0 {
		return fmt.Sprintf("No analyses in the last %d days.", days)
	}
	lines := []string{
		fmt.Sprintf("*Analysis stats (last %d days)*", days),
		fmt.Sprintf("Analyses: %d", s.Total),
		fmt.Sprintf("Inconsistent with customer report: %d", s.Inconsistent),
	}
	if checked := s.Agreed + s.Disagreed; checked > 0 {
		lines = append(lines, fmt.Sprintf("LLM agreement: %d/%d (%.0f%%)",
			s.Agreed, checked, float64(s.Agreed)*100/float64(checked)))
	}
	if s.Unavailable > 0 {
		lines = append(lines, fmt.Sprintf("LLM unavailable: %d", s.Unavailable))
	}
	return strings.Join(lines, "\n")
}

func helpText(isAdmin, adminsConfigured bool) string {
	lines := []string{
		"*Complaint QA Commands*",
		"",
		"`/qa-analyze <id>` - Show the latest analysis for a complaint.",
		"`/qa-analyze <id> refresh` - Re-run the analysis before showing it.",
		"`/qa-help` - Show this help.",
	}
	if !adminsConfigured {
		lines = append(lines, "",
			"_Admin commands (`/qa-reprocess`, `/qa-stats`) are disabled until `slack_admin_users` is configured._")
	}
	if isAdmin {
		lines = append(lines,
			"",
			"*Admin Commands*",
			"",
			"`/qa-reprocess` - Re-analyse every complaint with technician notes.",
			"`/qa-stats [days]` - Rule/LLM agreement over the last N days (default 7).",
		)
	}
	return strings.Join(lines, "\n")
}

func inconsistencyFallback(complaint domain.ComplaintRecord, res domain.AnalysisResult) string {
	return fmt.Sprintf("Complaint #%d: technician finding %s is inconsistent with the customer report",
		complaint.ID, res.RuleBasedCategory.Display())
}

func inconsistencyBlocks(complaint domain.ComplaintRecord, res domain.AnalysisResult) []slack.Block {
	customer := ""
	if res.ConflictingCategory != nil {
		customer = res.ConflictingCategory.Display()
	}
	model := complaint.ProductInformation.ModelNumber
	if model == "" {
		model = "unspecified"
	}

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Complaint:*\n#%d", complaint.ID), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Model:*\n%s", model), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Customer reported:*\n%s", customer), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Technician found:*\n%s", res.RuleBasedCategory.Display()), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*LLM cross-check:*\n%s", llmLine(res)), false, false),
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Inconsistent technician finding", false, false)),
		slack.NewSectionBlock(nil, fields, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, res.FinalOpinion, false, false), nil, nil),
	}

	recs := res.Recommendations
	if len(recs) > alertRecommendations {
		recs = recs[:alertRecommendations]
	}
	if len(recs) > 0 {
		var b strings.Builder
		b.WriteString("*Next steps:*")
		for _, r := range recs {
			b.WriteString("\n• " + r)
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, b.String(), false, false), nil, nil))
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("Run `/qa-analyze %d` for the full analysis.", complaint.ID), false, false)))
	return blocks
}
