package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/payroll",
		JWTSecret:          "dev-secret",
		MaxBodyBytes:       1048576,
		PayrollWorkers:     4,
		JobQueueSize:       16,
		RateLimitPerMinute: 60,
		TokenTTL:           time.Hour,
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAYROLL_WORKERS", "8")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("RUN_SEED", "not-a-bool")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 8, cfg.PayrollWorkers)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.RunSeed)
	assert.Equal(t, "storage/payslips", cfg.PayslipDir)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAYSLIP_DIR=/tmp/slips\nAPP_ADDR=:9090\n"), 0o600))
	chdir(t, dir)
	t.Setenv("APP_ADDR", ":7070")
	// godotenv sets variables into the process; clear the one this test owns.
	t.Cleanup(func() { os.Unsetenv("PAYSLIP_DIR") })

	cfg := Load()
	assert.Equal(t, "/tmp/slips", cfg.PayslipDir)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.DatabaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.PayrollWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimitPerMinute = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.DataEncryptionKey = "key"
	assert.NoError(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
