package cache

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/triagemate/internal/cache"
	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/ui"
	"github.com/urfave/cli/v3"
)

// StoreProvider opens the configured verdict cache.
type StoreProvider func(ctx context.Context) (cache.Store, error)

type CacheCommand struct {
	store StoreProvider
}

func NewCacheCommand(store StoreProvider) *CacheCommand {
	return &CacheCommand{store: store}
}

func (c *CacheCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: t.GetMessage("cache.usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:    "clear",
				Aliases: []string{"clean"},
				Usage:   t.GetMessage("cache.clear_usage", 0, nil),
				Action: func(ctx context.Context, command *cli.Command) error {
					w := command.Root().Writer
					if !cfg.Cache.Enabled {
						ui.PrintInfo(w, t.GetMessage("cache.disabled", 0, nil))
						return nil
					}

					store, err := c.store(ctx)
					if err != nil {
						return fmt.Errorf("%s: %w", t.GetMessage("cache.error_init", 0, nil), err)
					}
					if err := store.Clear(ctx); err != nil {
						return fmt.Errorf("%s: %w", t.GetMessage("cache.error_clear", 0, nil), err)
					}

					ui.PrintSuccess(w, t.GetMessage("cache.cleared", 0, nil))
					return nil
				},
			},
		},
	}
}
