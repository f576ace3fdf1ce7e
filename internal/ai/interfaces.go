package ai

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/thomas-vilte/triagemate/internal/models"
)

// CompletionRequest is a single prompt submitted to a completion provider.
type CompletionRequest struct {
	Prompt string
	// MaxOutputTokens is a hint; providers may ignore it.
	MaxOutputTokens int
	// Schema optionally constrains the output to a JSON schema when the provider supports it.
	Schema any
	// SchemaName names the schema for providers that require one.
	SchemaName string
}

// Completion is the raw text returned by a provider.
type Completion struct {
	Text  string
	Usage *models.TokenUsage
}

// Completer is the text-in/text-out capability the classification engine depends on.
// Implementations make exactly one attempt per call and report failures with the
// sentinel errors below, wrapped with provider detail.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// Name returns the provider name (e.g.: "gemini", "openai").
	Name() string
}

var (
	ErrTimeout       = errors.New("completion timed out")
	ErrRateLimited   = errors.New("completion provider rate limited")
	ErrTransport     = errors.New("completion transport error")
	ErrEmptyResponse = errors.New("empty completion")
	ErrAuth          = errors.New("completion provider rejected credentials")
	ErrCanceled      = errors.New("completion canceled")
)

var sentinels = []error{ErrTimeout, ErrRateLimited, ErrEmptyResponse, ErrAuth, ErrCanceled, ErrTransport}

// ClassifyError maps any provider failure onto one of the sentinel errors.
// Errors that already wrap a sentinel keep it; deadline and cancellation are
// recognised from the context package; anything else is a transport error.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return ErrCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "resource exhausted"), strings.Contains(msg, "429"):
		return ErrRateLimited
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"), strings.Contains(msg, "permission denied"):
		return ErrAuth
	}
	return ErrTransport
}

// FailureReason returns the short reason string reported in diagnostics.
func FailureReason(err error) string {
	switch ClassifyError(err) {
	case ErrTimeout:
		return "timeout"
	case ErrRateLimited:
		return "rate_limited"
	case ErrEmptyResponse:
		return "empty_response"
	case ErrAuth:
		return "auth"
	case ErrCanceled:
		return "canceled"
	default:
		return "transport"
	}
}
