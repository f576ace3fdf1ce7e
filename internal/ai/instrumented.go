package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
)

// InstrumentedCompleter decorates a Completer with timing, usage logging, and
// normalization of failures onto the sentinel errors.
type InstrumentedCompleter struct {
	next  Completer
	model string
	now   func() time.Time
}

var _ Completer = (*InstrumentedCompleter)(nil)

// Instrument wraps next. model is only used to annotate usage and logs.
func Instrument(next Completer, model string) *InstrumentedCompleter {
	return &InstrumentedCompleter{
		next:  next,
		model: model,
		now:   time.Now,
	}
}

func (w *InstrumentedCompleter) Name() string {
	return w.next.Name()
}

// GetModelName prefers the model resolved by the wrapped completer, which
// applies the provider default when none is configured.
func (w *InstrumentedCompleter) GetModelName() string {
	if m, ok := w.next.(interface{ GetModelName() string }); ok {
		return m.GetModelName()
	}
	return w.model
}

func (w *InstrumentedCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	log := logger.FromContext(ctx)
	start := w.now()

	log.Debug("submitting completion",
		"provider", w.next.Name(),
		"model", w.model,
		"prompt_length", len(req.Prompt))

	resp, err := w.next.Complete(ctx, req)
	elapsed := w.now().Sub(start)
	if err != nil {
		sentinel := ClassifyError(err)
		log.Debug("completion failed",
			"provider", w.next.Name(),
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		if !errors.Is(err, sentinel) {
			return nil, fmt.Errorf("%w: %v", sentinel, err)
		}
		return nil, err
	}

	if resp == nil || resp.Text == "" {
		return nil, fmt.Errorf("%w: provider %s returned no text", ErrEmptyResponse, w.next.Name())
	}

	usage := resp.Usage
	if usage == nil {
		usage = &models.TokenUsage{}
	}
	if usage.Model == "" {
		usage.Model = w.model
	}
	usage.DurationMs = elapsed.Milliseconds()

	log.Debug("completion received",
		"provider", w.next.Name(),
		"model", usage.Model,
		"duration_ms", usage.DurationMs,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"response_length", len(resp.Text))

	return &Completion{Text: resp.Text, Usage: usage}, nil
}
