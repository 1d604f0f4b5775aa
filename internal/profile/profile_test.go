package profile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"ERPDESK_REDIS_ADDR", "ERPDESK_REDIS_DB", "ERPDESK_POLICY_FILE",
		"ERPDESK_RATE_LIMIT_RPS", "ERPDESK_RATE_LIMIT_BURST", "ERPDESK_REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	p := &Profile{}
	p.FromEnv()

	assert.False(t, p.IsRedisEnabled())
	assert.Equal(t, 0, p.RedisDB)
	assert.Equal(t, "", p.PolicyFile)
	assert.Equal(t, 5.0, p.RateLimitPerSecond)
	assert.Equal(t, 10, p.RateLimitBurst)
	assert.Equal(t, 30*time.Second, p.RequestTimeout)
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		verify func(t *testing.T, p *Profile)
	}{
		{
			name: "redis",
			env:  map[string]string{"ERPDESK_REDIS_ADDR": "localhost:6379", "ERPDESK_REDIS_DB": "2"},
			verify: func(t *testing.T, p *Profile) {
				assert.True(t, p.IsRedisEnabled())
				assert.Equal(t, 2, p.RedisDB)
			},
		},
		{
			name: "rate limit",
			env:  map[string]string{"ERPDESK_RATE_LIMIT_RPS": "0.5", "ERPDESK_RATE_LIMIT_BURST": "3"},
			verify: func(t *testing.T, p *Profile) {
				assert.Equal(t, 0.5, p.RateLimitPerSecond)
				assert.Equal(t, 3, p.RateLimitBurst)
			},
		},
		{
			name: "invalid values fall back",
			env:  map[string]string{"ERPDESK_RATE_LIMIT_RPS": "fast", "ERPDESK_REQUEST_TIMEOUT": "soon"},
			verify: func(t *testing.T, p *Profile) {
				assert.Equal(t, 5.0, p.RateLimitPerSecond)
				assert.Equal(t, 30*time.Second, p.RequestTimeout)
			},
		},
		{
			name: "timeout",
			env:  map[string]string{"ERPDESK_REQUEST_TIMEOUT": "5s"},
			verify: func(t *testing.T, p *Profile) {
				assert.Equal(t, 5*time.Second, p.RequestTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			p := &Profile{}
			p.FromEnv()
			tt.verify(t, p)
		})
	}
}

func TestProfileValidate(t *testing.T) {
	t.Run("sqlite dsn derived from data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Data: dir}
		require.NoError(t, p.Validate())
		assert.Equal(t, "sqlite", p.Driver)
		assert.Equal(t, filepath.Join(dir, "erpdesk_dev.db"), p.DSN)
	})

	t.Run("unknown mode becomes demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Data: t.TempDir()}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "postgres", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})

	t.Run("unsupported driver", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "mysql", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: filepath.Join(t.TempDir(), "nope")}
		assert.Error(t, p.Validate())
	})
}
