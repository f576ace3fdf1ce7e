package analyze

import (
	"context"

	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

type AnalyzeCommandFactory struct {
	provider ServiceProvider
}

func NewAnalyzeCommandFactory(provider ServiceProvider) *AnalyzeCommandFactory {
	return &AnalyzeCommandFactory{provider: provider}
}

func (f *AnalyzeCommandFactory) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	flags := []cli.Flag{
		outputFlag(t),
		&cli.BoolFlag{
			Name:  "apply-labels",
			Usage: t.GetMessage("analyze.apply_labels_flag", 0, nil),
		},
	}
	flags = append(flags, strategyFlags(t)...)
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     t.GetMessage("analyze.usage", 0, nil),
		ArgsUsage: t.GetMessage("analyze.args_usage", 0, nil),
		Flags:     flags,
		Action:    f.createAction(t),
	}
}

func (f *AnalyzeCommandFactory) createAction(t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		if command.Args().Len() < 1 {
			return domainErrors.ErrInvalidRepoURL.
				WithSuggestion(t.GetMessage("analyze.suggestion_args", 0, nil))
		}
		repoURL := command.Args().Get(0)

		number := 0
		if command.Args().Len() > 1 {
			n, err := parseIssueNumber(command.Args().Get(1))
			if err != nil {
				return err
			}
			number = n
		}

		format, err := ui.ParseFormat(command.String("output"))
		if err != nil {
			return err
		}

		svc, err := f.provider(ctx, triageOptions(command))
		if err != nil {
			return err
		}

		var report *models.TriageReport
		err = withProgress(format, t.GetMessage("analyze.analyzing", 0, map[string]interface{}{"Repo": repoURL}), func() error {
			var err error
			report, err = svc.Analyze(ctx, repoURL, number)
			return err
		})
		if err != nil {
			return err
		}

		if command.Bool("apply-labels") {
			if err := svc.ApplyLabels(ctx, repoURL, report); err != nil {
				return err
			}
		}

		return render(command, format, report, func() {
			ui.RenderReport(command.Root().Writer, report, t, command.Bool("verbose"))
		})
	}
}
