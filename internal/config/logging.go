package config

import (
	"github.com/rshade/planetzero/internal/logging"
)

// ToLoggingConfig converts LoggingConfig to logging.Config.
//
// The conversion applies these rules:
//   - Level and Format are copied; "text" is treated as "console"
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = outputTypeFile
	}
	format := lc.Format
	if format == "text" {
		format = logging.FormatConsole
	}

	return logging.Config{
		Level:  lc.Level,
		Format: format,
		Output: output,
		File:   lc.File,
	}
}

// ToAuditConfig converts the audit section, defaulting the file to
// DefaultAuditLogPath.
func (lc *LoggingConfig) ToAuditConfig() logging.AuditLoggerConfig {
	file := lc.Audit.File
	if lc.Audit.Enabled && file == "" {
		if p, err := DefaultAuditLogPath(); err == nil {
			file = p
		}
	}
	return logging.AuditLoggerConfig{Enabled: lc.Audit.Enabled, File: file}
}

// GetLoggingConfig returns the Logging section of the global configuration.
// Flag overrides such as --debug are applied by the caller.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
