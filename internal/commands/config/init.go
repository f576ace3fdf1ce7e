package config

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newInitCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: t.GetMessage("config.init_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quick",
				Aliases: []string{"q"},
				Usage:   t.GetMessage("config.init_quick_flag", 0, nil),
			},
		},
		Action: initConfigAction(cfg, t),
	}
}

// initConfigAction resets the file to defaults and, unless --quick is set,
// asks for language, provider, API key and GitHub token.
func initConfigAction(cfg *config.Config, t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		next := config.DefaultConfig()
		next.PathFile = cfg.PathFile
		w := command.Root().Writer

		if !command.Bool("quick") {
			reader := bufio.NewReader(command.Root().Reader)
			if err := runSetup(reader, w, next, t); err != nil {
				return err
			}
		}

		if err := config.SaveConfig(next); err != nil {
			return err
		}
		*cfg = *next

		ui.PrintSuccess(w, t.GetMessage("config.init_success", 0, map[string]interface{}{"Path": cfg.PathFile}))
		return nil
	}
}

func runSetup(reader *bufio.Reader, w io.Writer, cfg *config.Config, t *i18n.Translations) error {
	ui.PrintSectionBanner(w, t.GetMessage("config.init_title", 0, nil))

	lang, err := ask(reader, w, t.GetMessage("config.init_language", 0, nil), cfg.Language)
	if err != nil {
		return err
	}
	if err := config.Set(cfg, "language", strings.ToLower(lang)); err != nil {
		return err
	}

	provider, err := ask(reader, w, t.GetMessage("config.init_provider", 0, nil), string(cfg.AI.ActiveProvider))
	if err != nil {
		return err
	}
	if err := config.Set(cfg, "ai.provider", provider); err != nil {
		return err
	}

	if cfg.AIEnabled() {
		key, err := ask(reader, w, t.GetMessage("config.init_api_key", 0, map[string]interface{}{"Provider": provider}), "")
		if err != nil {
			return err
		}
		if key != "" {
			if err := config.Set(cfg, "ai.api_key", key); err != nil {
				return err
			}
		} else {
			ui.PrintWarning(w, t.GetMessage("config.init_no_key", 0, nil))
		}
	}

	token, err := ask(reader, w, t.GetMessage("config.init_github_token", 0, nil), "")
	if err != nil {
		return err
	}
	cfg.VCS.GitHubToken = token
	return nil
}

// ask prints a prompt and returns the trimmed answer, or def on an empty line.
func ask(reader *bufio.Reader, w io.Writer, prompt, def string) (string, error) {
	if def != "" {
		_, _ = fmt.Fprintf(w, "%s [%s]: ", ui.Info.Sprint(prompt), def)
	} else {
		_, _ = fmt.Fprintf(w, "%s: ", ui.Info.Sprint(prompt))
	}

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}
