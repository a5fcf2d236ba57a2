// Package config loads sheetdoc configuration from TOML, an optional .env
// file and SHEETDOC_* environment variables, in that order of precedence
// (later wins), then normalizes and validates the result.
package config
