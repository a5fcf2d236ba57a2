package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables that override the configuration file.
const (
	EnvUploadDir         = "SHEETDOC_UPLOAD_DIR"
	EnvDatabasePath      = "SHEETDOC_DATABASE_PATH"
	EnvMaxFileSize       = "SHEETDOC_MAX_FILE_SIZE"
	EnvAllowedExtensions = "SHEETDOC_ALLOWED_EXTENSIONS"
	EnvNullTokens        = "SHEETDOC_NULL_TOKENS"
	EnvStrategies        = "SHEETDOC_STRATEGIES"
	EnvLogLevel          = "SHEETDOC_LOG_LEVEL"
	EnvLogFormat         = "SHEETDOC_LOG_FORMAT"
)

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv(EnvUploadDir); ok {
		c.Storage.UploadDir = v
	}
	if v, ok := lookupEnv(EnvDatabasePath); ok {
		c.Storage.DatabasePath = v
	}
	if v, ok := lookupEnv(EnvMaxFileSize); ok {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxFileSize, err)
		}
		c.Storage.MaxFileSize = size
	}
	if v, ok := lookupEnv(EnvAllowedExtensions); ok {
		c.Storage.AllowedExtensions = splitList(v)
	}
	if v, ok := lookupEnv(EnvNullTokens); ok {
		c.Decode.NullTokens = splitList(v)
	}
	if v, ok := lookupEnv(EnvStrategies); ok {
		c.Decode.Strategies = splitList(v)
	}
	if v, ok := lookupEnv(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv(EnvLogFormat); ok {
		c.Logging.Format = v
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
