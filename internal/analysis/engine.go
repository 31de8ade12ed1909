package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"complaintqa/internal/domain"
)

const defaultLLMTimeout = 30 * time.Second

// Classifier is an external second opinion on a complaint's category.
// Implementations return domain.LLMUnavailable or an error when they cannot
// answer; the engine treats both the same way.
type Classifier interface {
	Classify(ctx context.Context, complaint domain.ComplaintRecord, notes []domain.TechnicalNote) (domain.Prediction, error)
}

type EngineConfig struct {
	// Classifier may be nil for rule-based-only analysis.
	Classifier Classifier
	LLMTimeout time.Duration
	Glossary   *Glossary
}

// Engine runs the categorization pipeline. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	classifier Classifier
	timeout    time.Duration
	customer   CustomerExtractor
}

func NewEngine(cfg EngineConfig) *Engine {
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &Engine{
		classifier: cfg.Classifier,
		timeout:    timeout,
		customer:   NewCustomerExtractor(cfg.Glossary),
	}
}

// Evaluate runs both extractors and the consistency check.
func (e *Engine) Evaluate(complaint domain.ComplaintRecord, notes []domain.TechnicalNote) Verdict {
	details := complaint.ComplaintDetails
	customer := e.customer.Extract(details.NatureOfProblem, details.DetailedDescription)
	technician, ok := ExtractTechnicianCategory(notes)
	return CheckConsistency(customer, technician, ok)
}

// Analyze produces one AnalysisResult. The only error returned wraps
// domain.ErrInvalidInput; every other failure degrades to a rule-based or
// safe-default result.
func (e *Engine) Analyze(ctx context.Context, complaint domain.ComplaintRecord, notes []domain.TechnicalNote) (res domain.AnalysisResult, err error) {
	if err := complaint.Validate(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyze complaint %d: %w", complaint.ID, err)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analysis panic complaint=%d: %v", complaint.ID, r)
			res, err = SafeDefault(), nil
		}
	}()

	pending := e.startClassify(ctx, complaint, notes)
	if pending != nil {
		defer pending.cancel()
	}

	v := e.Evaluate(complaint, notes)
	n := Synthesize(v, complaint.ProductInformation.ModelNumber)

	p := pending.wait()
	res = Assemble(v, n, p)
	log.Printf("analysis complaint=%d customer=%s technician=%s final=%s inconsistent=%t llm=%s",
		complaint.ID, v.Customer, techLabel(v), v.Final, v.Inconsistent, res.LLMCategory)
	return res, nil
}

func techLabel(v Verdict) string {
	if !v.HasTechnician {
		return "none"
	}
	return string(v.Technician)
}

type classifyCall struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan domain.Prediction
}

// startClassify launches the classifier call in the background so the rule
// evaluation runs alongside it. Returns a call whose wait yields an
// unavailable prediction immediately when no classifier is configured or ctx
// is already done.
func (e *Engine) startClassify(ctx context.Context, complaint domain.ComplaintRecord, notes []domain.TechnicalNote) *classifyCall {
	if e.classifier == nil || ctx.Err() != nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	call := &classifyCall{
		ctx:    callCtx,
		cancel: cancel,
		done:   make(chan domain.Prediction, 1),
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("llm classify panic (non-fatal) complaint=%d: %v", complaint.ID, r)
				call.done <- domain.UnavailablePrediction()
			}
		}()
		p, err := e.classifier.Classify(callCtx, complaint, notes)
		if err != nil {
			log.Printf("llm classify error (non-fatal) complaint=%d: %v", complaint.ID, err)
			call.done <- domain.UnavailablePrediction()
			return
		}
		if !p.Category.Valid() {
			p.Category = domain.LLMUnavailable
		}
		call.done <- p
	}()
	return call
}

// wait never outlives the caller's context or the engine's LLM timeout.
func (c *classifyCall) wait() domain.Prediction {
	if c == nil {
		return domain.UnavailablePrediction()
	}
	defer c.cancel()
	select {
	case p := <-c.done:
		return p
	case <-c.ctx.Done():
		log.Printf("llm classify abandoned (non-fatal): %v", c.ctx.Err())
		return domain.UnavailablePrediction()
	}
}
