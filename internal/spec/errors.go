package spec

import "fmt"

// ConfigError reports an invalid or unusable configuration value. Path is a
// dotted field path ("jobs[2].unique.unit") so the message points at the
// offending input rather than at code.
type ConfigError struct {
	Path string
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: %s: %s", e.Path, e.Msg)
}

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(path, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
