package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeDecode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeStorage() error {
	var err error
	if strings.TrimSpace(c.Storage.UploadDir) == "" {
		c.Storage.UploadDir = defaultUploadDir
	}
	if c.Storage.UploadDir, err = expandPath(c.Storage.UploadDir); err != nil {
		return fmt.Errorf("storage.upload_dir: %w", err)
	}
	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		c.Storage.DatabasePath = defaultDatabasePath
	}
	if c.Storage.DatabasePath, err = expandPath(c.Storage.DatabasePath); err != nil {
		return fmt.Errorf("storage.database_path: %w", err)
	}

	exts := make([]string, 0, len(c.Storage.AllowedExtensions))
	seen := make(map[string]bool)
	for _, ext := range c.Storage.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultAllowedExtensions...)
	}
	c.Storage.AllowedExtensions = exts
	return nil
}

func (c *Config) normalizeDecode() {
	tokens := make([]string, 0, len(c.Decode.NullTokens))
	for _, tok := range c.Decode.NullTokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	c.Decode.NullTokens = tokens

	strategies := make([]string, 0, len(c.Decode.Strategies))
	for _, s := range c.Decode.Strategies {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			strategies = append(strategies, s)
		}
	}
	c.Decode.Strategies = strategies
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
