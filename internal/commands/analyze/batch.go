package analyze

import (
	"context"

	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/services"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/thomas-vilte/triagemate/internal/vcs"
	"github.com/urfave/cli/v3"
)

type BatchCommandFactory struct {
	provider ServiceProvider
}

func NewBatchCommandFactory(provider ServiceProvider) *BatchCommandFactory {
	return &BatchCommandFactory{provider: provider}
}

// BatchOutput is the structured form of a batch run.
type BatchOutput struct {
	Items      []models.BatchItem     `json:"items" yaml:"items"`
	Statistics models.BatchStatistics `json:"statistics" yaml:"statistics"`
}

func (f *BatchCommandFactory) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	flags := []cli.Flag{
		outputFlag(t),
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"c"},
			Usage:   t.GetMessage("batch.concurrency_flag", 0, map[string]interface{}{"Max": services.MaxBatchConcurrency}),
			Value:   services.DefaultBatchConcurrency,
		},
		&cli.StringFlag{
			Name:  "state",
			Usage: t.GetMessage("batch.state_flag", 0, nil),
			Value: vcs.StateOpen,
		},
		&cli.IntFlag{
			Name:  "max",
			Usage: t.GetMessage("batch.max_flag", 0, map[string]interface{}{"Max": vcs.MaxListLimit}),
			Value: vcs.DefaultListLimit,
		},
	}
	return &cli.Command{
		Name:      "batch",
		Aliases:   []string{"b"},
		Usage:     t.GetMessage("batch.usage", 0, nil),
		ArgsUsage: t.GetMessage("batch.args_usage", 0, nil),
		Flags:     append(flags, strategyFlags(t)...),
		Action:    f.createAction(t),
	}
}

func (f *BatchCommandFactory) createAction(t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		if command.Args().Len() < 1 {
			return domainErrors.ErrInvalidRepoURL.
				WithSuggestion(t.GetMessage("batch.suggestion_args", 0, nil))
		}
		args := command.Args().Slice()
		repoURL := args[0]

		numbers := make([]int, 0, len(args)-1)
		for _, a := range args[1:] {
			n, err := parseIssueNumber(a)
			if err != nil {
				return err
			}
			numbers = append(numbers, n)
		}

		format, err := ui.ParseFormat(command.String("output"))
		if err != nil {
			return err
		}

		// without explicit numbers the issues are listed from the tracker
		var listOpts vcs.ListOptions
		if len(numbers) == 0 {
			listOpts, err = vcs.ListOptions{State: command.String("state"), Limit: int(command.Int("max"))}.Normalize()
			if err != nil {
				return err
			}
		}

		svc, err := f.provider(ctx, triageOptions(command))
		if err != nil {
			return err
		}

		concurrency := int(command.Int("concurrency"))
		var items []models.BatchItem
		msg := t.GetMessage("batch.analyzing", len(numbers), map[string]interface{}{"Count": len(numbers), "Repo": repoURL})
		if len(numbers) == 0 {
			msg = t.GetMessage("batch.listing", 0, map[string]interface{}{"State": listOpts.State, "Max": listOpts.Limit, "Repo": repoURL})
		}
		err = withProgress(format, msg, func() error {
			var err error
			if len(numbers) == 0 {
				items, err = svc.AnalyzeRepo(ctx, repoURL, listOpts, concurrency)
				return err
			}
			items, err = svc.AnalyzeBatch(ctx, repoURL, numbers, concurrency)
			return err
		})
		if err != nil {
			return err
		}

		stats := services.GenerateStatistics(items)
		out := BatchOutput{Items: items, Statistics: stats}
		return render(command, format, out, func() {
			ui.RenderBatch(command.Root().Writer, items, stats, t)
		})
	}
}
