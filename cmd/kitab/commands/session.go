// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/catalog"
	"github.com/nolash/kitab/lib/config"
	"github.com/nolash/kitab/lib/store"
)

// globalParams are the flags every command accepts. Embedding it in a
// command's params makes the command's logger follow --log-level and
// --log-format.
type globalParams struct {
	ConfigPath string `flag:"config,c" desc:"configuration file (default $KITAB_CONFIG)"`
	StoreDir   string `flag:"store,s" desc:"store directory, overriding the configuration"`
	LogLevel   string `flag:"log-level" desc:"log level: debug, info, warn, or error"`
	LogFormat  string `flag:"log-format" desc:"log format: text, json, or auto"`

	env *Env
}

// load reads the configuration and applies the flag overrides.
func (g *globalParams) load() (*config.Config, error) {
	var (
		loaded *config.Config
		err    error
	)
	if g.ConfigPath != "" {
		loaded, err = config.LoadFile(g.ConfigPath)
	} else {
		loaded, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if g.StoreDir != "" {
		loaded.Store.Directory = g.StoreDir
	}
	if g.LogLevel != "" {
		loaded.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		loaded.Log.Format = g.LogFormat
	}
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return loaded, nil
}

// CommandLogger builds the logger passed to Run.
func (g *globalParams) CommandLogger() (*slog.Logger, error) {
	loaded, err := g.load()
	if err != nil {
		return nil, err
	}
	level, err := config.ParseLevel(loaded.Log.Level)
	if err != nil {
		return nil, err
	}
	return cli.NewCommandLogger(g.env.Stderr, level, loaded.Log.Format), nil
}

// session is the state a command works with once flags are parsed.
type session struct {
	env    *Env
	config *config.Config
	logger *slog.Logger
	store  *store.Store
}

func (g *globalParams) open(logger *slog.Logger) (*session, error) {
	loaded, err := g.load()
	if err != nil {
		return nil, cli.Validation("%v", err)
	}
	opened, err := store.New(store.Config{
		Root:   loaded.Store.Directory,
		Clock:  g.env.Clock,
		Logger: logger,
	})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	logger.Debug("opened store", "directory", opened.Root())
	return &session{env: g.env, config: loaded, logger: logger, store: opened}, nil
}

func (s *session) openCatalog() (*catalog.Catalog, error) {
	if err := s.config.EnsurePaths(); err != nil {
		return nil, cli.Internal("%w", err)
	}
	opened, err := catalog.Open(catalog.Config{
		Path:   s.config.Catalog.Path,
		Clock:  s.env.Clock,
		Logger: s.logger,
	})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return opened, nil
}
