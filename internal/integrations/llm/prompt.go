package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"complaintqa/internal/domain"
)

const (
	categoryMarker      = "CATEGORY:"
	maxJustificationLen = 4000
)

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a refrigerator quality engineer. You review one customer complaint together with the technician visit notes recorded for it.\n\n")
	b.WriteString("Classify the case into exactly one category from this list. Use the label exactly as written:\n")
	for _, c := range domain.Categories() {
		b.WriteString("- ")
		b.WriteString(c.Display())
		b.WriteString("\n")
	}
	b.WriteString(`
Respond in plain text. Start each section on its own line with its label:
CATEGORY: <one label from the list above>
FINAL OPINION: <two or three sentences>
TECHNICAL DIAGNOSIS: <what is physically wrong with the unit>
ROOT CAUSE: <why it happened>
SOLUTION IMPLEMENTED: <what the technician did>
SYSTEMIC ASSESSMENT: <isolated incident or possible systemic issue>
RECOMMENDATIONS: <numbered list>

Rules:
- The CATEGORY line is mandatory and must name exactly one label from the list.
- When the customer report and the technician findings disagree, classify by the technician findings and explain how the fault produces the symptoms the customer described.
- Use OTHER only when no listed category applies.
`)
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "N/A"
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func buildUserPrompt(c domain.ComplaintRecord, notes []domain.TechnicalNote) string {
	var b strings.Builder
	b.WriteString("--- COMPLAINT ---\n")
	writeField(&b, "Customer", c.CustomerInformation.FullName)
	writeField(&b, "Product model", c.ProductInformation.ModelNumber)
	writeField(&b, "Serial number", c.ProductInformation.SerialNumber)
	writeField(&b, "Purchase date", c.ProductInformation.DateOfPurchase)
	writeField(&b, "Warranty status", c.WarrantyInformation.WarrantyStatus)
	writeField(&b, "Problem types", strings.Join(c.ComplaintDetails.NatureOfProblem, ", "))
	writeField(&b, "Description", c.ComplaintDetails.DetailedDescription)
	writeField(&b, "First occurrence", c.ComplaintDetails.ProblemFirstOccurrence)
	writeField(&b, "Frequency", c.ComplaintDetails.Frequency)
	env := c.EnvironmentalConditions
	writeField(&b, "Environment", strings.Join(nonEmpty(env.RoomTemperature, env.Ventilation, env.RecentEnvironmentalChanges), "; "))
	rep := c.ServiceRepresentativeNotes
	writeField(&b, "Service rep notes", strings.Join(nonEmpty(rep.InitialAssessment, rep.ImmediateActionsTaken, rep.Recommendations), "; "))

	if len(notes) == 0 {
		b.WriteString("\nNo technician visits recorded yet.\n")
	}
	for i, n := range notes {
		fmt.Fprintf(&b, "\n--- TECHNICAL NOTE %d ---\n", i+1)
		writeField(&b, "Technician", n.TechnicianName)
		writeField(&b, "Visit date", n.VisitDate)
		ta := n.TechnicalAssessment
		writeField(&b, "Components inspected", strings.Join(ta.ComponentInspected, ", "))
		writeField(&b, "Fault diagnosis", ta.FaultDiagnosis)
		writeField(&b, "Root cause", ta.RootCause)
		writeField(&b, "Solution proposed", ta.SolutionProposed)
		writeField(&b, "Parts replaced", strings.Join(n.PartsReplaced, ", "))
		writeField(&b, "Repair details", n.RepairDetails)
		followUp := "No"
		if n.FollowUpRequired {
			followUp = "Yes"
		}
		writeField(&b, "Follow-up required", followUp)
	}
	return b.String()
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseCategoryResponse finds the first line starting with CATEGORY: (after
// markdown bullets, headings and bold markers are removed) and validates the
// label. The justification is the response without that line.
func parseCategoryResponse(text string) (domain.Category, string, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		clean := strings.ReplaceAll(line, "**", "")
		clean = strings.TrimLeft(clean, "-*#> \t")
		if len(clean) < len(categoryMarker) || !strings.EqualFold(clean[:len(categoryMarker)], categoryMarker) {
			continue
		}
		label, ok := domain.ParseCategory(clean[len(categoryMarker):])
		if !ok {
			return "", "", false
		}
		rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
		justification := strings.TrimSpace(strings.Join(rest, "\n"))
		justification = truncateRunes(justification, maxJustificationLen)
		return label, justification, true
	}
	return "", "", false
}

// truncateRunes cuts s to at most limit bytes on a rune boundary and marks
// the cut with an ellipsis.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
