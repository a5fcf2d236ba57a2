package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetdoc-go/internal/config"
	"github.com/ukaji3/sheetdoc-go/internal/ingest"
	"github.com/ukaji3/sheetdoc-go/internal/logging"
	"github.com/ukaji3/sheetdoc-go/internal/store"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

// ensureConfig loads configuration once and installs the logger. Log flags
// take precedence over the configuration file.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(*c.logLevelFlag); v != "" {
			if !logging.ValidLevel(v) {
				c.configErr = fmt.Errorf("invalid --log-level %q", v)
				return
			}
			cfg.Logging.Level = v
		}
		if v := strings.TrimSpace(*c.logFormatFlag); v != "" {
			if !logging.ValidFormat(v) {
				c.configErr = fmt.Errorf("invalid --log-format %q", v)
				return
			}
			cfg.Logging.Format = v
		}
		c.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) decodeOptions(nullTokens, strategies []string) sheetdoc.Options {
	opts := sheetdoc.Options{
		NullTokens: append(append([]string(nil), c.config.Decode.NullTokens...), nullTokens...),
		Strategies: c.config.Decode.Strategies,
		MaxSize:    c.config.Storage.MaxFileSize,
		Logger:     c.logger,
	}
	if len(strategies) > 0 {
		opts.Strategies = strategies
	}
	return opts
}

// openService opens the upload store and wraps it in an ingest service.
// The returned close function releases the store.
func (c *commandContext) openService() (*ingest.Service, func(), error) {
	if err := c.config.EnsureDirectories(); err != nil {
		return nil, nil, err
	}
	st, err := store.Open(c.config.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			c.logger.Warn("close store", slog.Any("error", err))
		}
	}
	return ingest.New(st, c.config, c.logger), closeFn, nil
}
