package analyze

import (
	"context"
	"strconv"

	"github.com/thomas-vilte/triagemate/internal/di"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/thomas-vilte/triagemate/internal/vcs"
	"github.com/urfave/cli/v3"
)

// TriageService is what the analyze, batch and classify commands need.
type TriageService interface {
	Analyze(ctx context.Context, repoURL string, number int) (*models.TriageReport, error)
	AnalyzeBatch(ctx context.Context, repoURL string, numbers []int, concurrency int) ([]models.BatchItem, error)
	AnalyzeRepo(ctx context.Context, repoURL string, opts vcs.ListOptions, concurrency int) ([]models.BatchItem, error)
	ApplyLabels(ctx context.Context, repoURL string, report *models.TriageReport) error
	Classify(ctx context.Context, raw models.RawIssue) (*models.TriageReport, error)
}

// ServiceProvider builds the service lazily, so commands that fail argument
// validation never touch the network or the cache.
type ServiceProvider func(ctx context.Context, opts di.TriageOptions) (TriageService, error)

func outputFlag(t *i18n.Translations) cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   t.GetMessage("flags.output", 0, nil),
		Value:   string(ui.FormatText),
	}
}

func strategyFlags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "rules-only",
			Usage: t.GetMessage("flags.rules_only", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: t.GetMessage("flags.no_cache", 0, nil),
		},
	}
}

func triageOptions(command *cli.Command) di.TriageOptions {
	return di.TriageOptions{
		RulesOnly: command.Bool("rules-only"),
		NoCache:   command.Bool("no-cache"),
	}
}

func parseIssueNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, domainErrors.ErrInvalidIssueNumber.WithContext("number", s)
	}
	return n, nil
}

// render writes report as a card or as structured output.
func render(command *cli.Command, format ui.Format, v any, text func()) error {
	if format == ui.FormatText {
		text()
		return nil
	}
	return ui.WriteStructured(command.Root().Writer, format, v)
}

// withProgress shows a spinner for text output only.
func withProgress(format ui.Format, message string, fn func() error) error {
	if format != ui.FormatText {
		return fn()
	}
	return ui.WithSpinner(message, fn)
}
