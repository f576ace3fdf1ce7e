package config

import (
	"context"
	"io"
	"os"

	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/triage"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

// CacheCheck opens the configured verdict cache and reports whether it is usable.
type CacheCheck func(ctx context.Context) error

type DoctorCommand struct {
	check CacheCheck
}

func NewDoctorCommand(check CacheCheck) *DoctorCommand {
	return &DoctorCommand{check: check}
}

func (d *DoctorCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "doctor",
		Aliases: []string{"dr"},
		Usage:   t.GetMessage("doctor.usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			d.runHealthCheck(ctx, command.Root().Writer, t, cfg)
			return nil
		},
	}
}

type checkStatus int

const (
	checkStatusOK checkStatus = iota
	checkStatusWarning
	checkStatusError
)

type checkResult struct {
	status     checkStatus
	message    string
	suggestion string
}

type healthCheck struct {
	name string
	fn   func(context.Context, *i18n.Translations, *config.Config) checkResult
}

func (d *DoctorCommand) runHealthCheck(ctx context.Context, w io.Writer, t *i18n.Translations, cfg *config.Config) (warnings, errors int) {
	ui.PrintSectionBanner(w, t.GetMessage("doctor.running_checks", 0, nil))

	checks := []healthCheck{
		{name: "doctor.check_config_file", fn: checkConfigFile},
		{name: "doctor.check_ai", fn: checkAIProvider},
		{name: "doctor.check_github_token", fn: checkGitHubToken},
		{name: "doctor.check_gitlab_token", fn: checkGitLabToken},
		{name: "doctor.check_guidelines", fn: checkGuidelines},
		{name: "doctor.check_cache", fn: d.checkCache},
	}

	for _, check := range checks {
		name := t.GetMessage(check.name, 0, nil)
		result := check.fn(ctx, t, cfg)

		switch result.status {
		case checkStatusOK:
			ui.PrintSuccess(w, name)
		case checkStatusWarning:
			ui.PrintWarning(w, name)
			warnings++
		case checkStatusError:
			ui.PrintError(w, name)
			errors++
		}
		if result.message != "" {
			_, _ = ui.Dim.Fprintf(w, "   %s\n", result.message)
		}
		if result.suggestion != "" {
			_, _ = ui.Info.Fprintf(w, "   → %s\n", result.suggestion)
		}
	}

	ui.PrintSectionBanner(w, t.GetMessage("doctor.summary", 0, nil))
	switch {
	case errors > 0:
		ui.PrintError(w, t.GetMessage("doctor.has_errors", 0, nil))
	case warnings > 0:
		ui.PrintWarning(w, t.GetMessage("doctor.has_warnings", 0, nil))
	default:
		ui.PrintSuccess(w, t.GetMessage("doctor.all_good", 0, nil))
	}
	return warnings, errors
}

func checkConfigFile(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if cfg.PathFile == "" {
		return checkResult{status: checkStatusError, message: t.GetMessage("doctor.config_not_found", 0, nil),
			suggestion: "triagemate config init"}
	}
	if _, err := os.Stat(cfg.PathFile); err != nil {
		return checkResult{status: checkStatusError, message: t.GetMessage("doctor.config_not_found", 0, nil),
			suggestion: "triagemate config init"}
	}
	return checkResult{status: checkStatusOK, message: cfg.PathFile}
}

func checkAIProvider(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if !cfg.AIEnabled() {
		return checkResult{
			status:     checkStatusWarning,
			message:    t.GetMessage("doctor.ai_disabled", 0, nil),
			suggestion: "triagemate config set ai.provider gemini",
		}
	}

	name := string(cfg.AI.ActiveProvider)
	p := cfg.AIProviders[name]
	if p.APIKey == "" {
		return checkResult{
			status:     checkStatusError,
			message:    t.GetMessage("doctor.ai_key_missing", 0, map[string]interface{}{"Provider": name}),
			suggestion: "triagemate config set ai.api_key <key>",
		}
	}

	model := p.Model
	if model == "" {
		model = string(config.DefaultModelForAI(cfg.AI.ActiveProvider))
	}
	return checkResult{status: checkStatusOK, message: name + " / " + model}
}

func checkGitHubToken(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if cfg.VCS.GitHubToken == "" {
		return checkResult{
			status:     checkStatusWarning,
			message:    t.GetMessage("doctor.github_token_missing", 0, nil),
			suggestion: "export GITHUB_TOKEN=<token>",
		}
	}
	return checkResult{status: checkStatusOK}
}

func checkGitLabToken(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if cfg.VCS.GitLabToken == "" {
		return checkResult{status: checkStatusWarning, message: t.GetMessage("doctor.gitlab_token_missing", 0, nil)}
	}
	return checkResult{status: checkStatusOK}
}

func checkGuidelines(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if cfg.GuidelinesPath == "" {
		return checkResult{status: checkStatusOK, message: t.GetMessage("doctor.guidelines_builtin", 0, nil)}
	}
	if _, err := triage.LoadGuidelines(cfg.GuidelinesPath); err != nil {
		return checkResult{status: checkStatusError, message: err.Error()}
	}
	return checkResult{status: checkStatusOK, message: cfg.GuidelinesPath}
}

func (d *DoctorCommand) checkCache(ctx context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if !cfg.Cache.Enabled {
		return checkResult{status: checkStatusOK, message: t.GetMessage("doctor.cache_disabled", 0, nil)}
	}
	if d.check == nil {
		return checkResult{status: checkStatusOK}
	}
	if err := d.check(ctx); err != nil {
		return checkResult{status: checkStatusError, message: err.Error(), suggestion: "triagemate config set cache.enabled false"}
	}
	backend := "file"
	if cfg.Cache.RedisURL != "" {
		backend = "redis"
	}
	return checkResult{status: checkStatusOK, message: backend}
}
