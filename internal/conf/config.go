// Package conf holds the runtime configuration for audiopipe, backed by viper.
package conf

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/audiopipe/internal/errors"
)

// Log rotation types
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// Overrun policies for the capture path when a queue write fails.
// See CaptureSettings.OverrunPolicy.
const (
	OverrunDrop  = "drop"  // log and drop, the default
	OverrunCount = "count" // drop silently, surface through metrics only
)

// Capture thread priority selectors
const (
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
)

// LogConfig defines the configuration for file logging
type LogConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	Rotation string `yaml:"rotation"`
	MaxSize  int64  `yaml:"maxsize"` // in bytes
}

// MainSettings contains general application settings
type MainSettings struct {
	Name string    `yaml:"name"`
	Log  LogConfig `yaml:"log"`
}

// AudioSettings contains the capture format defaults used by the CLI and
// the malgo device adapter.
type AudioSettings struct {
	Source     string `yaml:"source"`     // device name, ID or "sysdefault"
	SampleRate int    `yaml:"samplerate"` // in Hz
	Channels   int    `yaml:"channels"`
	BitDepth   int    `yaml:"bitdepth"`
}

// CaptureSettings tunes the capture task hot path.
type CaptureSettings struct {
	// WaitTimeout bounds each event-flag wait so the stop flag is
	// re-checked even when no wake arrives.
	WaitTimeout time.Duration `yaml:"waittimeout"`
	// OverrunPolicy selects what happens when a data or status queue
	// write fails under backpressure: OverrunDrop or OverrunCount.
	OverrunPolicy string `yaml:"overrunpolicy"`
	// Priority is the default thread priority selector for new sessions.
	Priority string `yaml:"priority"`
}

// Settings is the root configuration struct
type Settings struct {
	Debug   bool            `yaml:"debug"`
	Main    MainSettings    `yaml:"main"`
	Audio   AudioSettings   `yaml:"audio"`
	Capture CaptureSettings `yaml:"capture"`
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and stores it as the package-level instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/audiopipe")
	viper.AddConfigPath("/etc/audiopipe")

	viper.SetEnvPrefix("audiopipe")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file is optional, defaults apply.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// ValidateSettings checks the loaded settings for values the capture path
// cannot work with.
func ValidateSettings(s *Settings) error {
	if s.Capture.WaitTimeout <= 0 {
		return errors.Newf("capture wait timeout must be positive, got %v", s.Capture.WaitTimeout).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	switch s.Capture.OverrunPolicy {
	case OverrunDrop, OverrunCount:
	default:
		return errors.Newf("unknown overrun policy %q", s.Capture.OverrunPolicy).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	switch s.Capture.Priority {
	case PriorityNormal, PriorityUrgent:
	default:
		return errors.Newf("unknown capture priority %q", s.Capture.Priority).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if s.Audio.SampleRate <= 0 || s.Audio.Channels <= 0 {
		return errors.Newf("invalid audio format: %d Hz, %d channels", s.Audio.SampleRate, s.Audio.Channels).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
