package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: otpgate
  debug: true
  port: 8080
otp:
  ttl_minutes: 5
lock:
  wait_seconds: 3
instrument:
  trace_sample_ratio: 0.25
  log_mask_fields: "password, otp ,,code"
  list:
    - a
    - " b "
session:
  secret: c2VjcmV0
`

func TestNewViperFromBytes(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	// Assert
	assert.Equal(t, "otpgate", cfg.GetString("app.name"))
	assert.True(t, cfg.GetBool("app.debug"))
	assert.Equal(t, 8080, cfg.GetInt("app.port"))
	assert.Equal(t, 5*time.Minute, cfg.GetMinute("otp.ttl_minutes"))
	assert.Equal(t, 3*time.Second, cfg.GetSecond("lock.wait_seconds"))
	assert.InDelta(t, 0.25, cfg.GetFloat64("instrument.trace_sample_ratio"), 1e-9)
	assert.Equal(t, []string{"password", "otp", "code"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Equal(t, []string{"a", "b"}, cfg.GetArray("instrument.list"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("session.secret"))
	assert.Empty(t, cfg.GetArray("missing"))
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sample))
	require.Error(t, err)
}

func TestNewViper_EnvOverride(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))
	t.Setenv("OTPGATE_APP_NAME", "from-env")

	// Act
	cfg, err := NewViper(file)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GetString("app.name"))
	assert.Equal(t, 8080, cfg.GetInt("app.port"))
}
