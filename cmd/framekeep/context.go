package main

import (
	"log/slog"
	"strings"
	"sync"

	"framekeep/internal/config"
	"framekeep/internal/imaging"
	"framekeep/internal/logging"
	"framekeep/internal/media"
	"framekeep/internal/project"
	"framekeep/internal/promote"
	"framekeep/internal/store"
)

type commandContext struct {
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	storeOnce sync.Once
	store     *store.Store
	storeErr  error
}

func newCommandContext(configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
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

// openStore opens the catalog once per process; Execute's exit path lets the
// OS reclaim it, same as every other short-lived CLI resource.
func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.storeOnce.Do(func() {
		c.store, c.storeErr = store.Open(cfg)
	})
	return c.store, c.storeErr
}

// acquireWriteLock blocks until this process holds the project's exclusive
// write lock, creating the layout first so the lock file has a home. The
// caller releases it when the command finishes.
func (c *commandContext) acquireWriteLock() (*project.Lock, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	root, err := project.ResolveRoot(cfg.Paths.Root)
	if err != nil {
		return nil, err
	}
	layout, err := project.EnsureLayout(root, cfg.Paths.DBFilename)
	if err != nil {
		return nil, err
	}
	lock := project.NewLock(layout)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	return lock, nil
}

// logger returns a nop logger unless --verbose is set, so structured
// warnings never interleave with table or JSON output by default. Verbose
// logs go to stderr in the configured format and level.
func (c *commandContext) logger() (*slog.Logger, error) {
	if c.verboseFlag == nil || !*c.verboseFlag {
		return logging.NewNop(), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
}

func (c *commandContext) mediaManager() (*media.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	return media.NewManager(cfg, st, imaging.New(), logger), nil
}

func (c *commandContext) promoter() (*promote.Promoter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	return promote.NewPromoter(cfg, st, imaging.New(), logger), nil
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}
