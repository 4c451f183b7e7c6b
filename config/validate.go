package config

import (
	"errors"
	"fmt"
)

// Validate 检查配置，返回合并后的全部错误
func (c *Config) Validate() error {
	var errs []error
	check := func(bad bool, format string, args ...any) {
		if bad {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	s := c.Server
	check(s.HTTPPort <= 0 || s.HTTPPort > 65535, "invalid HTTP port %d", s.HTTPPort)
	check(s.MaxConnections < 0, "max_connections must not be negative")
	check(s.RateLimitRPS < 0 || s.RateLimitBurst < 0, "rate limit must not be negative")

	switch c.Voice.Backend {
	case BackendRemote, BackendLine:
	case BackendDeepgram:
		check(c.Deepgram.APIKey == "", "deepgram backend requires deepgram.api_key")
	default:
		check(true, "unknown voice backend %q", c.Voice.Backend)
	}

	check(c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1,
		"telemetry sample_rate must be between 0 and 1")
	check(c.Telemetry.ExportInterval < 0, "telemetry export_interval must not be negative")

	return errors.Join(errs...)
}
