package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		written, current string
		ok               bool
	}{
		{"0.1.0", "0.1.0", true},
		{"0.9.3", "0.1.0", true},
		{"1.0.0", "1.4.2", true},
		{"v1.2.0", "2.0.0", true},
		{"2.0.0", "1.9.9", false},
	}

	for _, tt := range tests {
		t.Run(tt.written+"_"+tt.current, func(t *testing.T) {
			err := CheckCompatible(tt.written, tt.current)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIncompatible)
			}
		})
	}
}

func TestCheckCompatible_InvalidVersion(t *testing.T) {
	err := CheckCompatible("not-a-version", "0.1.0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIncompatible)
}

func TestInfo(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Contains(t, info.String(), "schema-engine version "+Version)
	assert.Contains(t, info.FullString(), "Git Commit: "+GitCommit)
}
