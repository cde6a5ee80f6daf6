package main

import (
	"context"
	"strings"
	"sync"

	"parallax/internal/config"
	"parallax/internal/queue"
)

// commandContext shares lazily resolved configuration between commands so a
// bare `parallax` or `parallax --help` never demands a working environment.
type commandContext struct {
	envFileFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(envFileFlag *string) *commandContext {
	return &commandContext{envFileFlag: envFileFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var envFile string
		if c.envFileFlag != nil {
			envFile = strings.TrimSpace(*c.envFileFlag)
		}
		cfg, err := config.Load(envFile)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the queue store for the duration of fn.
func (c *commandContext) withStore(ctx context.Context, fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}
