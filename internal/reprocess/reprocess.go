// Package reprocess re-runs the analysis over stored complaints, on demand
// or on a cron schedule.
package reprocess

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"complaintqa/internal/config"
	"complaintqa/internal/domain"
	"complaintqa/internal/storage/sqlite"
)

// Analyzer analyses and stores the result for a single complaint.
type Analyzer interface {
	AnalyzeComplaint(ctx context.Context, complaintID int64) (domain.AnalysisResult, error)
}

type Summary struct {
	Total          int
	Processed      int
	Inconsistent   int
	LLMAgreed      int
	LLMUnavailable int
	Errors         []string
}

// Run analyses every id with at most concurrency calls in flight. Failures
// are recorded in the summary and do not stop the run; only context
// cancellation does.
func Run(ctx context.Context, ids []int64, analyzer Analyzer, concurrency int) (Summary, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	summary := Summary{Total: len(ids)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := analyzer.AnalyzeComplaint(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("reprocess error complaint=%d: %v", id, err)
				summary.Errors = append(summary.Errors, fmt.Sprintf("complaint %d: %v", id, err))
				return nil
			}
			summary.Processed++
			if res.Inconsistent() {
				summary.Inconsistent++
			}
			switch {
			case !res.LLMAvailable():
				summary.LLMUnavailable++
			case res.LLMAgrees():
				summary.LLMAgreed++
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return summary, err
}

// RunAll reprocesses every complaint that has at least one technician note.
func RunAll(ctx context.Context, db *sql.DB, analyzer Analyzer, concurrency int) (Summary, error) {
	ids, err := sqlite.ListComplaintIDsWithNotes(db)
	if err != nil {
		return Summary{}, fmt.Errorf("list complaints: %w", err)
	}
	log.Printf("reprocess start complaints=%d concurrency=%d", len(ids), concurrency)
	return Run(ctx, ids, analyzer, concurrency)
}

func FormatSummary(s Summary) string {
	if s.Total == 0 {
		return "No complaints with technician notes to reprocess."
	}
	if s.Processed == 0 && len(s.Errors) > 0 {
		return fmt.Sprintf("Reprocess failed for all %d complaints:\n%s", s.Total, strings.Join(s.Errors, "\n"))
	}

	parts := []string{fmt.Sprintf("%d inconsistent", s.Inconsistent)}
	llmChecked := s.Processed - s.LLMUnavailable
	if llmChecked > 0 {
		parts = append(parts, fmt.Sprintf("LLM agreed on %d/%d", s.LLMAgreed, llmChecked))
	}
	if s.LLMUnavailable > 0 {
		parts = append(parts, fmt.Sprintf("%d without LLM label", s.LLMUnavailable))
	}
	msg := fmt.Sprintf("Reprocessed %d/%d complaints: %s", s.Processed, s.Total, strings.Join(parts, ", "))
	if len(s.Errors) > 0 {
		msg += fmt.Sprintf("\nErrors:\n%s", strings.Join(s.Errors, "\n"))
	}
	return msg
}

// StartScheduler runs job on the cron expression until ctx is cancelled. An
// empty expression disables scheduling.
func StartScheduler(ctx context.Context, expr string, loc *time.Location, job func(context.Context)) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		log.Println("Scheduled reprocess disabled (reprocess_schedule not set)")
		return nil
	}
	sched, err := config.ParseSchedule(expr)
	if err != nil {
		return fmt.Errorf("invalid reprocess_schedule %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.Local
	}
	log.Printf("Reprocess scheduled (cron: %s)", expr)
	go runSchedule(ctx, sched, loc, job)
	return nil
}

func runSchedule(ctx context.Context, sched cron.Schedule, loc *time.Location, job func(context.Context)) {
	for {
		now := time.Now().In(loc)
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("Next reprocess at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Reprocess scheduler stopped")
			return
		case <-timer.C:
		}
		job(ctx)
	}
}
