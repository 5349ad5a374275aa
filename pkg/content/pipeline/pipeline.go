package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-docedit-be/pkg/content/evaluate"
	"ai-docedit-be/pkg/content/validate"
	"ai-docedit-be/pkg/editerr"
	"ai-docedit-be/pkg/llm"
)

// phase enumerates the generation state machine. Transitions are explicit so
// the control flow can be audited against phaseTransitions below.
type phase int

const (
	phaseInit phase = iota
	phaseContextAssembly
	phaseDraft
	phaseValidate
	phaseEvaluate
	phaseRetry
	phaseFinalize
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phaseContextAssembly:
		return "context_assembly"
	case phaseDraft:
		return "draft"
	case phaseValidate:
		return "validate"
	case phaseEvaluate:
		return "evaluate"
	case phaseRetry:
		return "retry"
	case phaseFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// phaseTransitions is the complete set of legal moves. Run panics on any
// transition outside this table, which turns a control-flow bug into a loud
// failure instead of a silent bad state.
var phaseTransitions = map[phase][]phase{
	phaseInit:            {phaseContextAssembly},
	phaseContextAssembly: {phaseDraft},
	phaseDraft:           {phaseValidate, phaseRetry, phaseFinalize},
	phaseValidate:        {phaseEvaluate, phaseRetry, phaseFinalize},
	phaseEvaluate:        {phaseRetry, phaseFinalize},
	phaseRetry:           {phaseDraft},
}

// Config holds the tunables of a generation run.
type Config struct {
	AcceptanceThreshold int
	MaxAttempts         int
	ExcerptCharLimit    int
	DraftPrompt         string
	Rules               string
}

// Attempt records one draft round for logging and best-result tracking.
type Attempt struct {
	Content      string
	Valid        bool
	Score        int
	Deficiencies []string
}

// Outcome is the terminal result of a run. BelowThreshold marks a best-effort
// fragment that never reached the acceptance score.
type Outcome struct {
	Content        string
	Score          int
	Attempts       int
	BelowThreshold bool
}

// Pipeline drives draft -> validate -> evaluate rounds until a fragment is
// accepted or attempts run out.
type Pipeline struct {
	provider  llm.LLMProvider
	validator *validate.Validator
	evaluator *evaluate.Evaluator
	cfg       Config
	logger    *log.Logger
}

func NewPipeline(provider llm.LLMProvider, validator *validate.Validator, evaluator *evaluate.Evaluator, cfg Config, logger *log.Logger) *Pipeline {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.AcceptanceThreshold <= 0 {
		cfg.AcceptanceThreshold = 80
	}
	return &Pipeline{
		provider:  provider,
		validator: validator,
		evaluator: evaluator,
		cfg:       cfg,
		logger:    logger,
	}
}

type runState struct {
	phase             phase
	contextBlock      string
	draft             string
	attempt           int
	best              *Attempt
	lastDeficiencies  []string
	lastUpstream      error
	validationFailure bool
	accepted          bool
}

func (s *runState) advance(to phase) {
	for _, legal := range phaseTransitions[s.phase] {
		if legal == to {
			s.phase = to
			return
		}
	}
	panic(fmt.Sprintf("illegal pipeline transition %s -> %s", s.phase, to))
}

// Run executes the full generation loop. The returned Outcome always carries
// structurally valid content; if no attempt survived validation the run ends
// in a GenerationFailure (or UpstreamFailure when the model itself was the
// problem every time).
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	st := &runState{phase: phaseInit}
	st.advance(phaseContextAssembly)

	st.contextBlock = assembleContext(req, p.cfg.ExcerptCharLimit)
	style := req.StyleGuidelines
	if style == "" {
		style = "Clean, professional styling with proper typography and spacing"
	}
	st.advance(phaseDraft)

	for {
		switch st.phase {
		case phaseDraft:
			st.attempt++
			prompt := fmt.Sprintf(p.cfg.DraftPrompt,
				p.cfg.Rules, st.contextBlock, req.DocumentStructure, req.Description, style)

			reply, err := p.provider.Generate(ctx, prompt, llm.WithTemperature(0.7))
			if err != nil {
				p.logf("draft attempt %d failed upstream: %v", st.attempt, err)
				st.lastUpstream = err
				st.lastDeficiencies = []string{fmt.Sprintf("model call failed: %v", err)}
				p.retryOrFinalize(st)
				continue
			}
			st.draft = validate.CleanFragment(reply)
			st.advance(phaseValidate)

		case phaseValidate:
			res := p.validator.Validate(st.draft)
			if !res.Valid {
				p.logf("draft attempt %d failed validation: %v", st.attempt, res.Violations)
				st.validationFailure = true
				st.lastDeficiencies = res.Violations
				p.retryOrFinalize(st)
				continue
			}
			st.advance(phaseEvaluate)

		case phaseEvaluate:
			assessment, err := p.evaluator.Evaluate(ctx, req.Description, style, st.draft)
			if err != nil {
				p.logf("evaluation of attempt %d failed upstream: %v", st.attempt, err)
				st.lastUpstream = err
				st.lastDeficiencies = []string{fmt.Sprintf("evaluation failed: %v", err)}
				p.retryOrFinalize(st)
				continue
			}

			candidate := Attempt{
				Content:      st.draft,
				Valid:        true,
				Score:        assessment.Score,
				Deficiencies: assessment.Deficiencies,
			}
			// Strict improvement only: ties keep the earliest attempt.
			if st.best == nil || candidate.Score > st.best.Score {
				st.best = &candidate
			}
			p.logf("attempt %d scored %d (threshold %d)", st.attempt, assessment.Score, p.cfg.AcceptanceThreshold)

			if assessment.Score >= p.cfg.AcceptanceThreshold {
				st.accepted = true
				st.advance(phaseFinalize)
				continue
			}
			st.lastDeficiencies = assessment.Deficiencies
			p.retryOrFinalize(st)

		case phaseRetry:
			st.contextBlock = appendDeficiencies(st.contextBlock, st.attempt, st.lastDeficiencies)
			st.advance(phaseDraft)

		case phaseFinalize:
			return p.finalize(st)
		}
	}
}

func (p *Pipeline) retryOrFinalize(st *runState) {
	if st.attempt < p.cfg.MaxAttempts {
		st.advance(phaseRetry)
		return
	}
	st.advance(phaseFinalize)
}

func (p *Pipeline) finalize(st *runState) (*Outcome, error) {
	if st.best != nil {
		out := &Outcome{
			Content:        st.best.Content,
			Score:          st.best.Score,
			Attempts:       st.attempt,
			BelowThreshold: !st.accepted && st.best.Score < p.cfg.AcceptanceThreshold,
		}
		if out.BelowThreshold {
			p.logf("exhausted %d attempts, delivering best effort with score %d", st.attempt, st.best.Score)
		}
		return out, nil
	}

	if !st.validationFailure && st.lastUpstream != nil {
		return nil, editerr.Wrap(editerr.KindUpstreamFailure, st.lastUpstream,
			"all %d generation attempts failed upstream", st.attempt)
	}
	return nil, editerr.New(editerr.KindGenerationFailure,
		"no attempt produced valid content after %d tries: %s",
		st.attempt, strings.Join(st.lastDeficiencies, "; "))
}

func appendDeficiencies(contextBlock string, attempt int, deficiencies []string) string {
	var b strings.Builder
	b.WriteString(contextBlock)
	b.WriteString(fmt.Sprintf("\n\n--- Deficiencies of Attempt %d (fix these) ---\n", attempt))
	for _, d := range deficiencies {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
