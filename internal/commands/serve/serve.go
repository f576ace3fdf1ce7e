package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/di"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/server"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

// ServiceProvider builds the triage service behind the HTTP API.
type ServiceProvider func(ctx context.Context, opts di.TriageOptions) (server.TriageService, error)

type ServeCommandFactory struct {
	provider ServiceProvider
}

func NewServeCommandFactory(provider ServiceProvider) *ServeCommandFactory {
	return &ServeCommandFactory{provider: provider}
}

func (f *ServeCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: t.GetMessage("serve.usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: t.GetMessage("serve.host_flag", 0, nil),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   t.GetMessage("serve.port_flag", 0, nil),
				Value:   cfg.Server.Port,
			},
			&cli.BoolFlag{
				Name:  "rules-only",
				Usage: t.GetMessage("flags.rules_only", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: t.GetMessage("flags.no_cache", 0, nil),
			},
		},
		Action: f.serveAction(t),
	}
}

func (f *ServeCommandFactory) serveAction(t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		port := int(command.Int("port"))
		if port < 0 || port > 65535 {
			return domainErrors.ErrInvalidConfig.
				WithContext("field", "server.port").
				WithError(fmt.Errorf("port out of range: %d", port))
		}

		svc, err := f.provider(ctx, di.TriageOptions{
			RulesOnly: command.Bool("rules-only"),
			NoCache:   command.Bool("no-cache"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := net.JoinHostPort(command.String("host"), strconv.Itoa(port))
		ui.PrintInfo(command.Root().Writer, t.GetMessage("serve.listening", 0, map[string]interface{}{"Addr": addr}))

		srv := server.New(svc, server.WithLogger(slog.Default()))
		return srv.Run(ctx, addr)
	}
}
