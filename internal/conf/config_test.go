package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Main: MainSettings{Name: "audiopipe"},
		Audio: AudioSettings{
			Source:     "sysdefault",
			SampleRate: 48000,
			Channels:   1,
			BitDepth:   16,
		},
		Capture: CaptureSettings{
			WaitTimeout:   time.Second,
			OverrunPolicy: OverrunDrop,
			Priority:      PriorityNormal,
		},
	}
}

func TestValidateSettings(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero wait timeout", func(s *Settings) { s.Capture.WaitTimeout = 0 }},
		{"negative wait timeout", func(s *Settings) { s.Capture.WaitTimeout = -time.Second }},
		{"unknown overrun policy", func(s *Settings) { s.Capture.OverrunPolicy = "panic" }},
		{"unknown priority", func(s *Settings) { s.Capture.Priority = "turbo" }},
		{"zero sample rate", func(s *Settings) { s.Audio.SampleRate = 0 }},
		{"zero channels", func(s *Settings) { s.Audio.Channels = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			assert.Error(t, ValidateSettings(s))
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "audiopipe", settings.Main.Name)
	assert.Equal(t, 48000, settings.Audio.SampleRate)
	assert.Equal(t, 1, settings.Audio.Channels)
	assert.Equal(t, 16, settings.Audio.BitDepth)
	assert.Equal(t, time.Second, settings.Capture.WaitTimeout)
	assert.Equal(t, OverrunDrop, settings.Capture.OverrunPolicy)
	assert.Equal(t, PriorityNormal, settings.Capture.Priority)

	assert.Same(t, settings, GetSettings())
}
