package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeInput         ErrorType = "INPUT"
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeAI            ErrorType = "AI"
	TypeVCS           ErrorType = "VCS"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if field, ok := e.Context["field"].(string); ok && field != "" {
			msg += fmt.Sprintf(" [field=%s]", field)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by type and message, so copies made through the With* helpers
// still satisfy errors.Is against the original sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Input errors. ErrMalformedIssue is the only error the classification engine lets through.
var (
	ErrMalformedIssue = NewAppError(TypeInput, "malformed issue", nil).
				WithSuggestion("The issue must have a positive number and a non-empty title")

	ErrInvalidRepoURL = NewAppError(TypeInput, "invalid repository URL", nil).
				WithSuggestion("Expected https://github.com/owner/repo, https://gitlab.com/group/project or owner/repo")

	ErrInvalidIssueNumber = NewAppError(TypeInput, "issue number must be a positive integer", nil)

	ErrInvalidIssueState = NewAppError(TypeInput, "invalid issue state", nil).
				WithSuggestion("Use one of: open, closed, all")
)

// Configuration errors
var (
	ErrAPIKeyMissing = NewAppError(TypeConfiguration, "AI API key is missing", nil).
				WithSuggestion("Set GEMINI_API_KEY or OPENAI_API_KEY, or run: triagemate config set ai.api_key <key>")

	ErrConfigMissing = NewAppError(TypeConfiguration, "Configuration is missing", nil).
				WithSuggestion("Initialize configuration: triagemate config init")

	ErrInvalidConfig = NewAppError(TypeConfiguration, "configuration is not valid", nil)

	ErrProviderNotFound = NewAppError(TypeConfiguration, "provider not registered", nil).
				WithSuggestion("Supported AI providers: gemini, openai. Supported trackers: github, gitlab")

	ErrGuidelinesFile = NewAppError(TypeConfiguration, "failed to load classification guidelines", nil).
				WithSuggestion("Check the TOML syntax of the guidelines file or remove guidelines_path from the config")
)

// VCS errors
var (
	ErrIssueNotFound = NewAppError(TypeVCS, "issue not found", nil).
				WithSuggestion("Check the repository URL and the issue number")

	ErrIssueFetch = NewAppError(TypeVCS, "failed to fetch issue", nil).
			WithSuggestion("This is likely a temporary issue, please try again")

	ErrVCSRateLimit = NewAppError(TypeVCS, "issue tracker API rate limit exceeded", nil).
			WithSuggestion("Wait a few minutes or configure a personal access token for higher limits")

	ErrVCSNotSupported = NewAppError(TypeVCS, "issue tracker not supported", nil).
				WithSuggestion("Currently GitHub and GitLab are supported")

	ErrIssueList = NewAppError(TypeVCS, "failed to list issues", nil).
			WithSuggestion("This is likely a temporary issue, please try again")

	ErrLabelWrite = NewAppError(TypeVCS, "failed to apply labels", nil).
			WithSuggestion("Labels need a token with write access to the repository issues")
)

// AI errors. These never reach callers of the classification engine; they are
// absorbed by the rule-based fallback and surface only as diagnostics.
var (
	ErrAIUnavailable = NewAppError(TypeAI, "AI classification unavailable", nil)

	ErrInvalidAIOutput = NewAppError(TypeAI, "invalid AI output format", nil)

	ErrAIClientInit = NewAppError(TypeAI, "error creating AI client", nil).
			WithSuggestion("Check the API key and base URL of the configured AI provider")
)

// Internal errors
var (
	ErrCache = NewAppError(TypeInternal, "verdict cache failure", nil)
)
