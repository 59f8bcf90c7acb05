package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{"normal", PriorityNormal, false},
		{"", PriorityNormal, false},
		{"urgent", PriorityUrgentAudio, false},
		{"turbo", PriorityNormal, true},
		{"URGENT", PriorityNormal, true},
	}
	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParsePriority(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "normal", PriorityNormal.String())
	assert.Equal(t, "urgent-audio", PriorityUrgentAudio.String())
	assert.Equal(t, "unknown", Priority(9).String())
}

func TestNoopElevator(t *testing.T) {
	assert.NoError(t, NoopElevator{}.Elevate(PriorityUrgentAudio))
}
