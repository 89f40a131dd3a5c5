package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the oracle-wide options. They come from defaults, an
// optional settings file and FLOWCHECK_* environment variables, in
// increasing priority.
type Settings struct {
	LogLevel     string
	AbsTolerance float64
	RelTolerance float64
	DatabasePath string
	WorkDir      string
	// Program is the measurement program command line. It may contain
	// {trajectory}, {config} and {output} placeholders.
	Program string
}

// Setting keys.
const (
	KeyLogLevel     = "log_level"
	KeyAbsTolerance = "abs_tolerance"
	KeyRelTolerance = "rel_tolerance"
	KeyDatabase     = "database"
	KeyWorkDir      = "work_dir"
	KeyProgram      = "program"
)

// NewViper returns a viper instance with flowcheck defaults and environment
// binding. Callers may bind command-line flags to it before LoadSettings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAbsTolerance, 1e-4)
	v.SetDefault(KeyRelTolerance, 1e-3)
	v.SetDefault(KeyDatabase, "")
	v.SetDefault(KeyWorkDir, "flowcheck-work")
	v.SetDefault(KeyProgram, "")
	v.SetEnvPrefix("FLOWCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings reads the optional settings file into v and returns the
// resolved settings.
func LoadSettings(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}
	s := &Settings{
		LogLevel:     v.GetString(KeyLogLevel),
		AbsTolerance: v.GetFloat64(KeyAbsTolerance),
		RelTolerance: v.GetFloat64(KeyRelTolerance),
		DatabasePath: v.GetString(KeyDatabase),
		WorkDir:      v.GetString(KeyWorkDir),
		Program:      v.GetString(KeyProgram),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the tolerances.
func (s *Settings) Validate() error {
	if !(s.AbsTolerance >= 0) {
		return fmt.Errorf("abs_tolerance must not be negative, got %v", s.AbsTolerance)
	}
	if !(s.RelTolerance >= 0) {
		return fmt.Errorf("rel_tolerance must not be negative, got %v", s.RelTolerance)
	}
	return nil
}
