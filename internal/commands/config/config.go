package config

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

type ConfigCommandFactory struct{}

func NewConfigCommandFactory() *ConfigCommandFactory {
	return &ConfigCommandFactory{}
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"cfg"},
		Usage:   t.GetMessage("config.usage", 0, nil),
		Commands: []*cli.Command{
			c.newShowCommand(t, cfg),
			c.newInitCommand(t, cfg),
			c.newSetCommand(t, cfg),
		},
	}
}

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config.show_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   t.GetMessage("flags.output", 0, nil),
				Value:   string(ui.FormatText),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			format, err := ui.ParseFormat(command.String("output"))
			if err != nil {
				return err
			}

			red := cfg.Redacted()
			w := command.Root().Writer
			if format != ui.FormatText {
				return ui.WriteStructured(w, format, red)
			}

			ui.PrintSectionBanner(w, t.GetMessage("config.current", 0, nil))
			ui.PrintKeyValue(w, t.GetMessage("config.file", 0, nil), red.PathFile)
			ui.PrintKeyValue(w, "language", red.Language)
			ui.PrintKeyValue(w, "ai.provider", valueOrDash(string(red.AI.ActiveProvider)))
			ui.PrintKeyValue(w, "ai.timeout_seconds", strconv.Itoa(red.AI.TimeoutSeconds))

			names := make([]string, 0, len(red.AIProviders))
			for name := range red.AIProviders {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				p := red.AIProviders[name]
				ui.PrintKeyValue(w, name+".api_key", valueOrDash(p.APIKey))
				ui.PrintKeyValue(w, name+".model", valueOrDash(p.Model))
				if p.BaseURL != "" {
					ui.PrintKeyValue(w, name+".base_url", p.BaseURL)
				}
			}

			ui.PrintKeyValue(w, "vcs.github_token", valueOrDash(red.VCS.GitHubToken))
			ui.PrintKeyValue(w, "vcs.gitlab_token", valueOrDash(red.VCS.GitLabToken))
			if red.VCS.GitLabBaseURL != "" {
				ui.PrintKeyValue(w, "vcs.gitlab_base_url", red.VCS.GitLabBaseURL)
			}
			ui.PrintKeyValue(w, "guidelines_path", valueOrDash(red.GuidelinesPath))
			ui.PrintKeyValue(w, "cache.enabled", strconv.FormatBool(red.Cache.Enabled))
			ui.PrintKeyValue(w, "cache.ttl_hours", strconv.Itoa(red.Cache.TTLHours))
			if red.Cache.RedisURL != "" {
				ui.PrintKeyValue(w, "cache.redis_url", red.Cache.RedisURL)
			}
			ui.PrintKeyValue(w, "server.port", strconv.Itoa(red.Server.Port))

			if !cfg.AIEnabled() {
				_, _ = fmt.Fprintln(w)
				ui.PrintInfo(w, t.GetMessage("config.rules_only_hint", 0, nil))
			}
			return nil
		},
	}
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
