package config

import (
	"context"
	"strings"

	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("config.set_usage", 0, map[string]interface{}{"Keys": strings.Join(config.SettableKeys(), ", ")}),
		ArgsUsage: t.GetMessage("config.set_args_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() < 2 {
				return domainErrors.ErrInvalidConfig.
					WithSuggestion(t.GetMessage("config.set_suggestion", 0, nil))
			}

			key := strings.ToLower(command.Args().Get(0))
			value := command.Args().Get(1)

			if err := config.Set(cfg, key, value); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			ui.PrintSuccess(command.Root().Writer, t.GetMessage("config.set_success", 0, map[string]interface{}{"Key": key}))
			return nil
		},
	}
}
