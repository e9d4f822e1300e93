package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"API_URL", "GO_ENV", "HTTP_TIMEOUT", "HTTP_GET_RETRIES", "DELETE_METHOD", "LOGOUT_PATH", "OTEL_ENABLED"} {
		// Setenv registers the restore, Unsetenv makes the key absent.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "http://0.0.0.0:5000", cfg.App.APIURL)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.Duration(0), cfg.HTTP.Timeout)
	assert.Equal(t, 0, cfg.HTTP.GetRetries)
	assert.Equal(t, "POST", cfg.HTTP.DeleteMethod)
	assert.Equal(t, "", cfg.HTTP.LogoutPath)
	assert.False(t, cfg.Tracer.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_URL", "http://rag.internal:8000")
	t.Setenv("GO_ENV", "production")
	t.Setenv("HTTP_TIMEOUT", "15s")
	t.Setenv("HTTP_GET_RETRIES", "2")
	t.Setenv("DELETE_METHOD", "delete")
	t.Setenv("LOGOUT_PATH", "/logout/")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "http://rag.internal:8000", cfg.App.APIURL)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.HTTP.GetRetries)
	assert.Equal(t, "DELETE", cfg.HTTP.DeleteMethod)
	assert.Equal(t, "/logout/", cfg.HTTP.LogoutPath)
	assert.True(t, cfg.Tracer.Enabled)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "go duration", value: "250ms", want: 250 * time.Millisecond},
		{name: "plain seconds", value: "30", want: 30 * time.Second},
		{name: "garbage falls back", value: "soon", want: time.Minute},
		{name: "empty falls back", value: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
}
