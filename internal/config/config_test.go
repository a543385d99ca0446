package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 64, cfg.DisassemblyContextBytes)
	assert.Equal(t, uint64(0x10000), cfg.LargeOffsetWarningThreshold)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("ATOSL_LOG_LEVEL", "debug")
	t.Setenv("ATOSL_OFFSET_TEXT_SEGMENT", "true")
	t.Setenv("ATOSL_DISASM_BYTES", "128")
	t.Setenv("ATOSL_LARGE_OFFSET_THRESHOLD", "4096")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.OffsetTextSegment)
	assert.Equal(t, 128, cfg.DisassemblyContextBytes)
	assert.Equal(t, uint64(4096), cfg.LargeOffsetWarningThreshold)
}

func TestLoadFromEnv_LeavesDefaultsWhenUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("ATOSL_OFFSET_TEXT_SEGMENT", "not-a-bool")
	_, err := Load()
	assert.Error(t, err)
}

func TestSymbolicateOptions(t *testing.T) {
	cfg := Default()
	cfg.IncludeDisassembly = true
	opts := cfg.SymbolicateOptions()
	assert.True(t, opts.IncludeDisassembly)
	assert.Equal(t, cfg.DisassemblyContextBytes, opts.DisassemblyContextBytes)
}
