package triage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/thomas-vilte/triagemate/internal/ai"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyAI    = "ai"
	StrategyRules = "rules"
)

// Result is a verdict plus the side channel describing how it was produced.
// Nothing in the side channel changes the verdict.
type Result struct {
	Verdict        models.Verdict
	Strategy       string
	Provider       string
	Fallback       bool
	FallbackReason string
	Repairs        []models.Repair
	Usage          *models.TokenUsage
}

// Classifier is one classification strategy.
type Classifier interface {
	Classify(ctx context.Context, issue models.NormalizedIssue) Result
}

type ruleStrategy struct {
	rules *RuleClassifier
}

func (s ruleStrategy) Classify(_ context.Context, issue models.NormalizedIssue) Result {
	return Result{Verdict: s.rules.Classify(issue), Strategy: StrategyRules}
}

// Engine is the single entry point of the classification core.
type Engine struct {
	rules Classifier
	ai    Classifier
	scope string
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	guidelines *Guidelines
	completer  ai.Completer
	timeout    time.Duration
}

// WithGuidelines replaces DefaultGuidelines.
func WithGuidelines(g *Guidelines) Option {
	return func(o *engineOptions) {
		o.guidelines = g
	}
}

// WithCompleter enables the AI strategy. A nil completer leaves it disabled.
func WithCompleter(c ai.Completer) Option {
	return func(o *engineOptions) {
		o.completer = c
	}
}

// WithTimeout sets the completion timeout; it is clamped to [MinTimeout, MaxTimeout].
func WithTimeout(d time.Duration) Option {
	return func(o *engineOptions) {
		o.timeout = d
	}
}

func NewEngine(opts ...Option) *Engine {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.guidelines == nil {
		o.guidelines = DefaultGuidelines()
	}

	rules := NewRuleClassifier(o.guidelines)
	e := &Engine{rules: ruleStrategy{rules: rules}}
	if o.completer != nil {
		e.ai = NewAIClassifier(o.completer, o.guidelines, rules, o.timeout)
	}
	e.scope = cacheScope(o.completer, o.guidelines)
	return e
}

// modelNamer is implemented by completers that expose their model.
type modelNamer interface {
	GetModelName() string
}

func cacheScope(c ai.Completer, g *Guidelines) string {
	parts := []string{StrategyRules}
	if c != nil {
		parts = []string{StrategyAI, c.Name()}
		if m, ok := c.(modelNamer); ok {
			parts = append(parts, m.GetModelName())
		}
	}

	// maps marshal with sorted keys, so equal guidelines hash equally
	data, _ := json.Marshal(g)
	sum := sha256.Sum256(data)
	return strings.Join(append(parts, hex.EncodeToString(sum[:8])), ":")
}

// CacheScope identifies everything besides the issue that shapes a verdict:
// the strategy, the provider and model, and the guidelines.
func (e *Engine) CacheScope() string {
	return e.scope
}

// AIEnabled reports whether the engine was built with a completion provider.
func (e *Engine) AIEnabled() bool {
	return e.ai != nil
}

// Classify returns a valid verdict for every well-formed issue. The only error
// it returns is ErrMalformedIssue.
func (e *Engine) Classify(ctx context.Context, issue models.NormalizedIssue) (Result, error) {
	if err := validateIssue(issue); err != nil {
		return Result{}, err
	}

	strategy := e.rules
	if e.ai != nil {
		strategy = e.ai
	}

	ctx = logger.With(ctx, "issue_number", issue.Number)
	res := strategy.Classify(ctx, issue)

	if len(res.Repairs) > 0 {
		fields := make([]string, 0, len(res.Repairs))
		for _, r := range res.Repairs {
			fields = append(fields, r.Field)
			logger.Warn(ctx, "verdict repaired", "field", r.Field, "reason", r.Reason, "strategy", res.Strategy)
		}
		logger.Debug(ctx, "verdict repairs summary", "repairs", strings.Join(fields, ","))
	}

	logger.Info(ctx, "issue classified",
		"strategy", res.Strategy,
		"type", res.Verdict.Type,
		"priority", res.Verdict.PriorityScore,
		"fallback", res.Fallback)

	return res, nil
}

// ClassifyRaw normalizes a provider-shaped issue and classifies it.
func (e *Engine) ClassifyRaw(ctx context.Context, raw models.RawIssue) (models.NormalizedIssue, Result, error) {
	issue, err := Normalize(raw)
	if err != nil {
		return models.NormalizedIssue{}, Result{}, err
	}
	res, err := e.Classify(ctx, issue)
	return issue, res, err
}
