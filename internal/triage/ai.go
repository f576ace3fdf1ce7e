package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thomas-vilte/triagemate/internal/ai"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	DefaultTimeout = 20 * time.Second
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 30 * time.Second

	defaultMaxOutputTokens = 800
)

// ClampTimeout keeps a completion timeout inside [MinTimeout, MaxTimeout].
// Zero selects DefaultTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	if d == 0 {
		return DefaultTimeout
	}
	return max(MinTimeout, min(MaxTimeout, d))
}

// AIClassifier is the prompt-driven strategy. Every failure of the completion
// provider or of its output is absorbed by falling back to the rule classifier.
type AIClassifier struct {
	completer       ai.Completer
	guidelines      *Guidelines
	rules           *RuleClassifier
	timeout         time.Duration
	maxOutputTokens int
}

func NewAIClassifier(completer ai.Completer, g *Guidelines, rules *RuleClassifier, timeout time.Duration) *AIClassifier {
	if g == nil {
		g = DefaultGuidelines()
	}
	if rules == nil {
		rules = NewRuleClassifier(g)
	}
	return &AIClassifier{
		completer:       completer,
		guidelines:      g,
		rules:           rules,
		timeout:         ClampTimeout(timeout),
		maxOutputTokens: defaultMaxOutputTokens,
	}
}

// Classify never returns an error; a failed attempt yields the rule verdict with
// Fallback set and the reason recorded.
func (c *AIClassifier) Classify(ctx context.Context, issue models.NormalizedIssue) Result {
	verdict, repairs, usage, err := c.attempt(ctx, issue)
	if err == nil {
		return Result{
			Verdict:  verdict,
			Strategy: StrategyAI,
			Provider: c.completer.Name(),
			Repairs:  repairs,
			Usage:    usage,
		}
	}

	reason := fallbackReason(err)
	logger.Warn(ctx, "AI classification failed, using rules",
		"strategy", StrategyRules,
		"provider", c.completer.Name(),
		"fallback_reason", reason,
		"error", err)

	return Result{
		Verdict:        c.rules.Classify(issue),
		Strategy:       StrategyRules,
		Provider:       c.completer.Name(),
		Fallback:       true,
		FallbackReason: reason,
		Usage:          usage,
	}
}

// attempt makes the single bounded completion call. Failures are AI-typed
// AppErrors whose "reason" context becomes the fallback reason.
func (c *AIClassifier) attempt(ctx context.Context, issue models.NormalizedIssue) (models.Verdict, []models.Repair, *models.TokenUsage, error) {
	prompt, err := BuildPrompt(issue, c.guidelines)
	if err != nil {
		return models.Verdict{}, nil, nil, domainErrors.ErrAIUnavailable.WithError(err).WithContext("reason", "prompt")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.completer.Complete(callCtx, ai.CompletionRequest{
		Prompt:          prompt,
		MaxOutputTokens: c.maxOutputTokens,
		Schema:          ai.VerdictSchema(),
		SchemaName:      ai.VerdictSchemaName,
	})
	if err != nil {
		if callCtx.Err() != nil && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %v", ai.ErrTimeout, c.timeout, err)
		}
		return models.Verdict{}, nil, nil, domainErrors.ErrAIUnavailable.WithError(err).WithContext("reason", ai.FailureReason(err))
	}
	if resp == nil || resp.Text == "" {
		return models.Verdict{}, nil, nil, domainErrors.ErrAIUnavailable.WithError(ai.ErrEmptyResponse).WithContext("reason", "empty_response")
	}

	raw, err := ParseCompletion(resp.Text)
	if err != nil {
		reason := "parse_error"
		if errors.Is(err, ai.ErrEmptyResponse) {
			reason = "empty_response"
		}
		return models.Verdict{}, nil, resp.Usage, domainErrors.ErrInvalidAIOutput.WithError(err).WithContext("reason", reason)
	}
	if err := checkShape(raw); err != nil {
		return models.Verdict{}, nil, resp.Usage, domainErrors.ErrInvalidAIOutput.WithError(err).WithContext("reason", "schema_mismatch")
	}

	verdict, repairs := Finalize(raw, issue)
	return verdict, repairs, resp.Usage, nil
}

func fallbackReason(err error) string {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		if reason, ok := appErr.Context["reason"].(string); ok {
			return reason
		}
	}
	return ai.FailureReason(err)
}
