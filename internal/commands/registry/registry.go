package registry

import (
	"fmt"
	"sort"

	cfg "github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/urfave/cli/v3"
)

type CommandFactory interface {
	CreateCommand(t *i18n.Translations, cfg *cfg.Config) *cli.Command
}

type entry struct {
	factory CommandFactory
	config  *cfg.Config
}

type Registry struct {
	factories map[string]entry
	config    *cfg.Config
	t         *i18n.Translations
}

func NewRegistry(cfg *cfg.Config, t *i18n.Translations) *Registry {
	return &Registry{
		factories: make(map[string]entry),
		config:    cfg,
		t:         t,
	}
}

// Register adds a factory built with the registry's runtime config.
func (r *Registry) Register(name string, factory CommandFactory) error {
	return r.RegisterWithConfig(name, factory, r.config)
}

// RegisterWithConfig adds a factory that receives its own config. The config
// commands use it to edit the file as stored, without environment overrides.
func (r *Registry) RegisterWithConfig(name string, factory CommandFactory, config *cfg.Config) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%s", r.t.GetMessage("factory_already_registered", 0, map[string]interface{}{
			"FactoryName": name,
		}))
	}
	r.factories[name] = entry{factory: factory, config: config}
	return nil
}

// CreateCommands builds every registered command, ordered by registration name.
func (r *Registry) CreateCommands() []*cli.Command {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	commands := make([]*cli.Command, 0, len(names))
	for _, name := range names {
		e := r.factories[name]
		commands = append(commands, e.factory.CreateCommand(r.t, e.config))
	}
	return commands
}
