package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./artifacts", s.ArtifactRoot)
	assert.Equal(t, 45000, s.CaptureTimeoutMS)
	assert.Equal(t, int64(52428800), s.MaxCaptureBytes)
	assert.Equal(t, []string{"http://localhost:3000"}, s.CORSOrigins)
	assert.InDelta(t, 0.6, s.ClusterThreshold, 1e-9)
	require.NoError(t, s.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CAPTURE_TIMEOUT_MS", "10000")
	t.Setenv("MAX_CAPTURE_BYTES", "1024")
	t.Setenv("CLUSTER_THRESHOLD", "0.75")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, s.CaptureTimeoutMS)
	assert.Equal(t, int64(1024), s.MaxCaptureBytes)
	assert.InDelta(t, 0.75, s.ClusterThreshold, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORSOrigins)
}

func TestLoadRejectsUnparseable(t *testing.T) {
	t.Setenv("CAPTURE_TIMEOUT_MS", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRanges(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	s.ClusterThreshold = 1.5
	assert.Error(t, s.Validate())

	s.ClusterThreshold = 0.6
	s.MaxCaptureBytes = 0
	assert.Error(t, s.Validate())
}
