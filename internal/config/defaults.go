package config

const (
	defaultUploadDir    = "uploads"
	defaultDatabasePath = "sheetdoc.db"
	defaultMaxFileSize  = 16 * 1024 * 1024
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

var defaultAllowedExtensions = []string{".xlsx", ".xls"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Storage: Storage{
			UploadDir:         defaultUploadDir,
			DatabasePath:      defaultDatabasePath,
			MaxFileSize:       defaultMaxFileSize,
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
		},
		Decode: Decode{
			NullTokens: []string{},
			Strategies: []string{},
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
