package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 1e-4, s.AbsTolerance)
	assert.Equal(t, 1e-3, s.RelTolerance)
	assert.Equal(t, "flowcheck-work", s.WorkDir)
	assert.Empty(t, s.DatabasePath)
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	path := writeFile(t, "flowcheck.yaml", "log_level: debug\nabs_tolerance: 0.001\nprogram: jpsreport {config}\n")
	t.Setenv("FLOWCHECK_DATABASE", "/tmp/reports.db")
	t.Setenv("FLOWCHECK_LOG_LEVEL", "warn")

	s, err := LoadSettings(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, 0.001, s.AbsTolerance)
	assert.Equal(t, "jpsreport {config}", s.Program)
	assert.Equal(t, "/tmp/reports.db", s.DatabasePath)
}

func TestLoadSettingsErrors(t *testing.T) {
	_, err := LoadSettings(NewViper(), "/nonexistent/flowcheck.yaml")
	assert.Error(t, err)

	t.Setenv("FLOWCHECK_REL_TOLERANCE", "-1")
	_, err = LoadSettings(NewViper(), "")
	assert.Error(t, err)
}
