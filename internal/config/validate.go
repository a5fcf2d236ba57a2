package config

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetdoc-go/internal/logging"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/parser"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDecode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.MaxFileSize <= 0 {
		return errors.New("storage.max_file_size must be positive")
	}
	if len(c.Storage.AllowedExtensions) == 0 {
		return errors.New("storage.allowed_extensions must not be empty")
	}
	return nil
}

func (c *Config) validateDecode() error {
	if _, err := parser.SelectStrategies(c.Decode.Strategies); err != nil {
		return fmt.Errorf("decode.strategies: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}
	return nil
}
