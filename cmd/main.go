package main

import (
	"context"
	"fmt"
	"log"
	"maps"
	"os"

	"github.com/thomas-vilte/triagemate/internal/commands/analyze"
	"github.com/thomas-vilte/triagemate/internal/commands/cache"
	"github.com/thomas-vilte/triagemate/internal/commands/config"
	"github.com/thomas-vilte/triagemate/internal/commands/registry"
	"github.com/thomas-vilte/triagemate/internal/commands/serve"
	cfg "github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/di"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/server"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/thomas-vilte/triagemate/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	app, container, translations, err := initializeApp()
	if err != nil {
		log.Fatalf("error starting triagemate: %v", err)
	}

	runErr := app.Run(context.Background(), os.Args)
	if err := container.Close(); err != nil {
		logger.Warn(context.Background(), "error closing resources", "error", err)
	}
	if runErr != nil {
		ui.HandleAppError(os.Stderr, runErr, translations)
		os.Exit(1)
	}
}

func initializeApp() (*cli.Command, *di.Container, *i18n.Translations, error) {
	if err := cfg.LoadDotEnv(".env"); err != nil {
		return nil, nil, nil, fmt.Errorf("could not load .env: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not get user home directory: %w", err)
	}

	fileCfg, err := cfg.LoadConfig(homeDir)
	if err != nil {
		return nil, nil, nil, err
	}

	// Environment overrides apply to a copy so that config set/init never
	// write secrets taken from the environment.
	runtimeCfg := *fileCfg
	runtimeCfg.AIProviders = maps.Clone(fileCfg.AIProviders)
	if err := cfg.ApplyEnv(&runtimeCfg); err != nil {
		return nil, nil, nil, err
	}

	translations, err := i18n.NewTranslations(cfg.GetLocaleConfig(fileCfg.Language))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading translations: %w", err)
	}

	container := di.NewContainer(&runtimeCfg, translations)

	analyzeProvider := func(ctx context.Context, opts di.TriageOptions) (analyze.TriageService, error) {
		svc, err := container.GetTriageService(ctx, opts)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
	serveProvider := func(ctx context.Context, opts di.TriageOptions) (server.TriageService, error) {
		svc, err := container.GetTriageService(ctx, opts)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
	cacheCheck := func(ctx context.Context) error {
		_, err := container.GetCache(ctx)
		return err
	}

	registerCommand := registry.NewRegistry(&runtimeCfg, translations)
	registrations := []struct {
		name    string
		factory registry.CommandFactory
	}{
		{"analyze", analyze.NewAnalyzeCommandFactory(analyzeProvider)},
		{"batch", analyze.NewBatchCommandFactory(analyzeProvider)},
		{"classify", analyze.NewClassifyCommandFactory(analyzeProvider)},
		{"serve", serve.NewServeCommandFactory(serveProvider)},
		{"doctor", config.NewDoctorCommand(cacheCheck)},
		{"cache", cache.NewCacheCommand(container.GetCache)},
	}
	for _, r := range registrations {
		if err := registerCommand.Register(r.name, r.factory); err != nil {
			return nil, nil, nil, err
		}
	}
	if err := registerCommand.RegisterWithConfig("config", config.NewConfigCommandFactory(), fileCfg); err != nil {
		return nil, nil, nil, err
	}

	app := &cli.Command{
		Name:                  "triagemate",
		Usage:                 translations.GetMessage("app.usage", 0, nil),
		Description:           translations.GetMessage("app.about", 0, nil),
		Version:               version.Version,
		Commands:              registerCommand.CreateCommands(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: translations.GetMessage("flags.debug", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: translations.GetMessage("flags.verbose", 0, nil),
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: translations.GetMessage("flags.lang", 0, nil),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: translations.GetMessage("flags.log_format", 0, nil),
				Value: string(logger.FormatPretty),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			logger.Initialize(command.Bool("debug"), command.Bool("verbose"), logger.Format(command.String("log-format")))
			if lang := command.String("lang"); lang != "" {
				if err := translations.SetLanguage(lang); err != nil {
					return ctx, err
				}
			}
			return ctx, nil
		},
	}
	return app, container, translations, nil
}
