package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"apd/internal/acquire"
	"apd/internal/artifacts"
	"apd/internal/config"
	"apd/internal/generate"
	"apd/internal/ledger"
	"apd/internal/logging"
	"apd/internal/period"
	"apd/internal/pipeline"
	"apd/internal/services/arxiv"
	"apd/internal/services/hfpapers"
	"apd/internal/services/notebooklm"
	"apd/internal/stage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg)
}

// buildDriver wires the full executor chain. Commands that only read the
// ledger should use openStore directly.
func (c *commandContext) buildDriver(store *ledger.Store) (*pipeline.Driver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	artifactStore := artifacts.NewStore(cfg.Paths.ArtifactDir)
	generator := notebooklm.NewCommandService(cfg, logger)

	executors := []stage.Executor{
		acquire.NewExecutor(arxiv.New(cfg), artifactStore, logger),
		generate.NewSubmitter(generator, logger),
		generate.NewResultFetcher(generator, logger),
	}

	itemTimeout := time.Duration(cfg.ArtifactSource.TimeoutSeconds) * time.Second
	opts := []pipeline.Option{
		pipeline.WithDiscoverer(hfpapers.New(cfg, logger)),
	}
	if itemTimeout > 0 {
		opts = append(opts, pipeline.WithItemTimeout(itemTimeout))
	}
	return pipeline.NewDriver(cfg, store, executors, logger, opts...), nil
}

// resolvePeriod parses an explicit week argument or defaults to the current
// week.
func resolvePeriod(arg string) (period.ID, error) {
	if strings.TrimSpace(arg) == "" {
		return period.Current(time.Now()), nil
	}
	id, err := period.Parse(arg)
	if err != nil {
		return period.ID{}, fmt.Errorf("invalid week %q: %w", arg, err)
	}
	return id, nil
}
