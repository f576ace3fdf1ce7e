package analyze

import (
	"context"

	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

type ClassifyCommandFactory struct {
	provider ServiceProvider
}

func NewClassifyCommandFactory(provider ServiceProvider) *ClassifyCommandFactory {
	return &ClassifyCommandFactory{provider: provider}
}

func (f *ClassifyCommandFactory) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: t.GetMessage("classify.usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Usage:    t.GetMessage("classify.title_flag", 0, nil),
				Required: true,
			},
			&cli.StringFlag{
				Name:  "body",
				Usage: t.GetMessage("classify.body_flag", 0, nil),
			},
			&cli.StringSliceFlag{
				Name:    "label",
				Aliases: []string{"l"},
				Usage:   t.GetMessage("classify.label_flag", 0, nil),
			},
			&cli.IntFlag{
				Name:  "comments",
				Usage: t.GetMessage("classify.comments_flag", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "rules-only",
				Usage: t.GetMessage("flags.rules_only", 0, nil),
			},
			outputFlag(t),
		},
		Action: f.createAction(t),
	}
}

func (f *ClassifyCommandFactory) createAction(t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		format, err := ui.ParseFormat(command.String("output"))
		if err != nil {
			return err
		}

		number := 1
		title := command.String("title")
		body := command.String("body")
		raw := models.RawIssue{
			Number:       &number,
			Title:        &title,
			Body:         &body,
			Labels:       command.StringSlice("label"),
			CommentCount: int(command.Int("comments")),
		}

		// inline issues have no identity, so caching them is pointless
		opts := triageOptions(command)
		opts.NoCache = true
		svc, err := f.provider(ctx, opts)
		if err != nil {
			return err
		}

		var report *models.TriageReport
		err = withProgress(format, t.GetMessage("classify.classifying", 0, nil), func() error {
			var err error
			report, err = svc.Classify(ctx, raw)
			return err
		})
		if err != nil {
			return err
		}

		return render(command, format, report, func() {
			ui.RenderReport(command.Root().Writer, report, t, command.Bool("verbose"))
		})
	}
}
