// Package config loads atosl's runtime configuration from the environment:
// logging, and symbolication defaults. Only OffsetTextSegment and
// IncludeDisassembly have a matching CLI flag; the other fields are set
// from the environment alone.
package config

import "github.com/coral-mesh/atosl/internal/symbolicate"

// Config holds the values that seed a run's logging setup and default
// symbolication Options. CLI flags take precedence over these when both
// are present; see cmd/atosl for the merge order.
type Config struct {
	LogLevel  string `env:"ATOSL_LOG_LEVEL"`
	LogPretty bool   `env:"ATOSL_LOG_PRETTY"`

	OffsetTextSegment           bool   `env:"ATOSL_OFFSET_TEXT_SEGMENT"`
	IncludeDisassembly          bool   `env:"ATOSL_INCLUDE_DISASSEMBLY"`
	DisassemblyContextBytes     int    `env:"ATOSL_DISASM_BYTES"`
	LargeOffsetWarningThreshold uint64 `env:"ATOSL_LARGE_OFFSET_THRESHOLD"`
}

// Default returns the Config used when neither a flag nor an environment
// variable overrides a field.
func Default() Config {
	opts := symbolicate.DefaultOptions()
	return Config{
		LogLevel:                    "info",
		LogPretty:                   false,
		OffsetTextSegment:           false,
		IncludeDisassembly:          false,
		DisassemblyContextBytes:     opts.DisassemblyContextBytes,
		LargeOffsetWarningThreshold: opts.LargeOffsetWarningThreshold,
	}
}

// Load starts from Default, then overlays environment variables.
func Load() (Config, error) {
	cfg := Default()
	if err := LoadFromEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SymbolicateOptions projects Config onto symbolicate.Options.
func (c Config) SymbolicateOptions() symbolicate.Options {
	return symbolicate.Options{
		OffsetTextSegment:           c.OffsetTextSegment,
		IncludeDisassembly:          c.IncludeDisassembly,
		DisassemblyContextBytes:     c.DisassemblyContextBytes,
		LargeOffsetWarningThreshold: c.LargeOffsetWarningThreshold,
	}
}
