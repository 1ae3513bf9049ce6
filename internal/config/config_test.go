package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, cfg.Database.DSN, cfg.Database.ReaderDSN)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, "BR", cfg.Shop.PhoneRegion)
	assert.Equal(t, 100, cfg.Shop.OrderListLimit)
	assert.Equal(t, 500, cfg.Shop.OrderMaxLimit)
	assert.Equal(t, 3, cfg.Shop.IntakeMaxAttempts)
	assert.Equal(t, 720*time.Hour, cfg.Shop.TurnaroundWindow)
	assert.Equal(t, "mock", cfg.Payments.Gateway)
	assert.Equal(t, "/metrics", cfg.Observability.PrometheusPath)
}

func TestNew_CacheDisabledTurnsOffLocks(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("LOCKS_ENABLED", "true")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.False(t, cfg.Locks.Enabled)
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad http port", env: map[string]string{"HTTP_PORT": "0"}},
		{name: "unknown cache driver", env: map[string]string{"CACHE_DRIVER": "memcached"}},
		{name: "unknown messaging driver", env: map[string]string{"MESSAGING_DRIVER": "nats"}},
		{name: "mercadopago without token", env: map[string]string{"PAYMENT_GATEWAY": "mercadopago"}},
		{name: "unknown gateway", env: map[string]string{"PAYMENT_GATEWAY": "stripe"}},
		{name: "max limit below default", env: map[string]string{"SERVICE_ORDER_MAX_LIMIT": "10"}},
		{name: "empty dsn", env: map[string]string{"DB_DSN": "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestNew_PrometheusPathGetsLeadingSlash(t *testing.T) {
	t.Setenv("OBS_PROMETHEUS_PATH", "metrics")
	t.Setenv("OBS_LOG_LEVEL", " DEBUG ")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/metrics", cfg.Observability.PrometheusPath)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestEnvReader_List(t *testing.T) {
	var env envReader

	t.Setenv("TEST_BROKERS", " a:1, ,b:2 ")
	assert.Equal(t, []string{"a:1", "b:2"}, env.list("TEST_BROKERS", nil))

	t.Setenv("TEST_BROKERS", " , ")
	assert.Equal(t, []string{"x"}, env.list("TEST_BROKERS", []string{"x"}))
	assert.NoError(t, env.err())
}

func TestEnvReader_CollectsMalformedValues(t *testing.T) {
	var env envReader

	t.Setenv("TEST_PORT", "80a")
	t.Setenv("TEST_FLAG", "sim")
	t.Setenv("TEST_TTL", "30")
	t.Setenv("TEST_BLANK", "  ")

	assert.Equal(t, 8080, env.integer("TEST_PORT", 8080))
	assert.True(t, env.boolean("TEST_FLAG", true))
	assert.Equal(t, time.Minute, env.duration("TEST_TTL", time.Minute))
	assert.Equal(t, 7, env.integer("TEST_BLANK", 7))

	err := env.err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_PORT")
	assert.Contains(t, err.Error(), "TEST_FLAG")
	assert.Contains(t, err.Error(), "TEST_TTL")
	assert.NotContains(t, err.Error(), "TEST_BLANK")
}

func TestNew_RejectsMalformedNumber(t *testing.T) {
	t.Setenv("HTTP_PORT", "80a")

	_, err := New()
	assert.ErrorContains(t, err, "HTTP_PORT")
}
