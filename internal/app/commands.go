package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"complaintqa/internal/analysis"
	"complaintqa/internal/domain"
	slackbot "complaintqa/internal/integrations/slack"
	"complaintqa/internal/reprocess"
	"complaintqa/internal/review"
)

type runtimeFunc func() *runtime

func parseComplaintID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid complaint id %q", arg)
	}
	return id, nil
}

func newServeCommand(get runtimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reprocess scheduler and the Slack bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := get()
			ctx := cmd.Context()

			job := func(ctx context.Context) {
				summary, err := rt.svc.Reprocess(ctx)
				if err != nil {
					log.Printf("Scheduled reprocess error: %v", err)
				}
				text := reprocess.FormatSummary(summary)
				log.Printf("Scheduled reprocess complete: %s", text)
				if rt.notifier != nil {
					if err := rt.notifier.PostSummary(ctx, "Scheduled reprocess complete: "+text); err != nil {
						log.Printf("Scheduled reprocess post error: %v", err)
					}
				}
			}
			if err := reprocess.StartScheduler(ctx, rt.cfg.ReprocessSchedule, rt.cfg.Location, job); err != nil {
				return err
			}

			if rt.api == nil {
				if rt.cfg.ReprocessSchedule == "" {
					return errors.New("nothing to serve: configure slack tokens or reprocess_schedule")
				}
				log.Println("Slack not configured; running scheduler only")
				<-ctx.Done()
				return nil
			}

			log.Println("Starting complaint QA bot...")
			bot := slackbot.NewBot(rt.api, rt.svc, rt.cfg.SlackAdminUsers)
			if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("slack bot: %w", err)
			}
			return nil
		},
	}
}

func newAnalyzeCommand(get runtimeFunc) *cobra.Command {
	var (
		asJSON bool
		cached bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <complaint-id>",
		Short: "Analyze a complaint and its technician notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseComplaintID(args[0])
			if err != nil {
				return err
			}
			rt := get()
			var res domain.AnalysisResult
			if cached {
				res, err = rt.svc.LatestAnalysis(cmd.Context(), id)
			} else {
				res, err = rt.svc.AnalyzeComplaint(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printAnalysis(cmd.OutOrStdout(), id, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&cached, "cached", false, "show the stored result instead of re-running the analysis")
	return cmd
}

func newReprocessCommand(get runtimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess",
		Short: "Re-analyze every complaint that has technician notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := get().svc.Reprocess(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), reprocess.FormatSummary(summary))
			return err
		},
	}
}

func newNoteCommand(get runtimeFunc) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "note <complaint-id> <note.json>",
		Short: "Record a technician note and re-analyze the complaint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseComplaintID(args[0])
			if err != nil {
				return err
			}
			var note domain.TechnicalNote
			if err := readJSONFile(args[1], &note); err != nil {
				return err
			}
			note.ComplaintID = id

			out, err := get().svc.RecordNote(cmd.Context(), note, confirm)
			if errors.Is(err, review.ErrInconsistentNote) {
				fmt.Fprintf(cmd.OutOrStdout(),
					"The diagnosis does not mention any term expected for this complaint (checked: %s).\nRe-run with --confirm to store it anyway.\n",
					strings.Join(out.Intake.Checked, ", "))
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored note %d for complaint %d.\n\n", out.NoteID, id)
			printAnalysis(cmd.OutOrStdout(), id, out.Analysis)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "store the note even if it looks inconsistent with the complaint")
	return cmd
}

func newImportCommand(get runtimeFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import complaint or technician note documents from JSON",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "complaints <file.json>",
			Short: "Import complaint documents (a JSON object or array)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var complaints []domain.ComplaintRecord
				if err := readJSONDocuments(args[0], &complaints); err != nil {
					return err
				}
				n, err := get().svc.ImportComplaints(complaints)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d complaints.\n", n, len(complaints))
				return err
			},
		},
		&cobra.Command{
			Use:   "notes <file.json>",
			Short: "Import technician notes (a JSON object or array); run reprocess afterwards",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var notes []domain.TechnicalNote
				if err := readJSONDocuments(args[0], &notes); err != nil {
					return err
				}
				n, err := get().svc.ImportNotes(notes)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d notes.\n", n, len(notes))
				return err
			},
		},
	)
	return cmd
}

func newStatsCommand(get runtimeFunc) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how often the LLM agreed with the rule-based category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("invalid --days %d: must be >= 1", days)
			}
			s, err := get().svc.Stats(time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.SetTitle(fmt.Sprintf("Analyses in the last %d days", days))
			t.AppendHeader(table.Row{"Total", "LLM agreed", "LLM disagreed", "LLM unavailable", "Inconsistent"})
			t.AppendRow(table.Row{s.Total, s.Agreed, s.Disagreed, s.Unavailable, s.Inconsistent})
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "look-back window in days")
	return cmd
}

func newHistoryCommand(get runtimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "history <complaint-id>",
		Short: "List the stored analyses of a complaint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseComplaintID(args[0])
			if err != nil {
				return err
			}
			records, err := get().svc.History(id)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No analyses stored for complaint %d.\n", id)
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Analyzed", "Note", "Rule-based", "Customer", "LLM", "Provider"})
			for _, r := range records {
				provider := r.LLMProvider
				if r.LLMModel != "" {
					provider += "/" + r.LLMModel
				}
				t.AppendRow(table.Row{
					r.AnalyzedAt.Format("2006-01-02 15:04"),
					r.NoteID,
					r.RuleBasedCategory,
					r.ConflictingCategory,
					r.LLMCategory,
					provider,
				})
			}
			t.Render()
			return nil
		},
	}
}

func newGlossaryCommand(get runtimeFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the keyword glossary",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <phrase> <CATEGORY>",
		Short: "Map a phrase in the complaint description to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := get().cfg.LLMGlossaryPath
			if path == "" {
				return errors.New("llm_glossary_path is not configured")
			}
			category, ok := domain.ParseCategory(args[1])
			if !ok {
				return fmt.Errorf("unknown category %q", args[1])
			}
			if err := analysis.AppendTerm(path, args[0], category); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q -> %s to %s.\n", args[0], category, path)
			return nil
		},
	})
	return cmd
}

func printAnalysis(w io.Writer, id int64, res domain.AnalysisResult) {
	fmt.Fprintf(w, "Complaint #%d\n", id)
	fmt.Fprintf(w, "Category:             %s\n", res.DisplayCategory())
	switch {
	case !res.LLMAvailable():
		fmt.Fprintln(w, "LLM cross-check:      unavailable")
	case res.LLMAgrees():
		fmt.Fprintf(w, "LLM cross-check:      agrees (%s)\n", res.LLMCategory.Display())
	default:
		fmt.Fprintf(w, "LLM cross-check:      disagrees (%s)\n", res.LLMCategory.Display())
	}
	fmt.Fprintf(w, "\nFinal opinion:\n  %s\n", res.FinalOpinion)
	fmt.Fprintf(w, "Technical diagnosis:\n  %s\n", res.TechnicalDiagnosis)
	fmt.Fprintf(w, "Root cause:\n  %s\n", res.RootCause)
	fmt.Fprintf(w, "Solution implemented:\n  %s\n", res.SolutionImplemented)
	fmt.Fprintf(w, "Systemic assessment:\n  %s\n", res.SystemicAssessment)
	if len(res.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for i, r := range res.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, r)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// readJSONDocuments decodes either a single document or an array of them
// into the slice pointed to by out.
func readJSONDocuments[T any](path string, out *[]T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		*out = []T{one}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
