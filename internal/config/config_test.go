package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Default()
	assert.Equal(t, 15*time.Minute, s.AccountingBuffer.Std())
	assert.Equal(t, 15*time.Second, s.CommandTimeout.Std())
	assert.Equal(t, 10*time.Second, s.ConnectTimeout.Std())
	assert.Equal(t, "20.11", s.MinSlurmVersion)
	assert.Empty(t, s.QOS)
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
qos: [normal_qos, large_qos]
operators: [hpcadmin]
accounting_buffer: 30m
command_timeout: 20s
rates:
  normal: 0.2
  large: 0.2
ssh:
  port: 2222
`)
	s, err := Parse(data, "test.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"normal_qos", "large_qos"}, s.QOS)
	assert.Equal(t, []string{"hpcadmin"}, s.Operators)
	assert.Equal(t, 30*time.Minute, s.AccountingBuffer.Std())
	assert.Equal(t, 20*time.Second, s.CommandTimeout.Std())
	assert.Equal(t, 0.2, s.Rates["normal"])
	assert.Equal(t, 2222, s.SSH.Port)

	// Untouched values keep their defaults.
	assert.Equal(t, 10*time.Second, s.ConnectTimeout.Std())
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("command_timeout: soon"), "test.yaml")
	require.Error(t, err)
}

func TestParseRejectsNegativeRate(t *testing.T) {
	_, err := Parse([]byte("rates:\n  normal: -1.0"), "test.yaml")
	require.Error(t, err)
}

func TestParseRejectsInvalidPort(t *testing.T) {
	_, err := Parse([]byte("ssh:\n  port: 70000"), "test.yaml")
	require.Error(t, err)
}

func TestLoadMissingDefaultFileFallsBack(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load("/nonexistent/slurm-usage.yaml")
	require.Error(t, err)
}
