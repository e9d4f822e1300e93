package bootstrap

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ai-ragchat-client/internal/config"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			APIURL:      "http://127.0.0.1:1",
			LogFilePath: filepath.Join(t.TempDir(), "ragchat.log"),
		},
		HTTP: config.HTTPConfig{DeleteMethod: "POST"},
	}
}

func TestNewContainer(t *testing.T) {
	c, err := NewContainer(testConfig(t), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:1", c.API.BaseURL())
	assert.False(t, c.Store.Current().IsAuthenticated())
	assert.NotNil(t, c.AuthService)
	assert.NotNil(t, c.DocumentService)
	assert.NotNil(t, c.ChatService)
	assert.NoError(t, c.Close(context.Background()))
}

func TestNewContainerRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.DeleteMethod = "PATCH"

	_, err := NewContainer(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestContainerREPLRendersThroughBus(t *testing.T) {
	color.NoColor = true
	out := &bytes.Buffer{}
	c, err := NewContainer(testConfig(t), out)
	require.NoError(t, err)
	defer c.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repl, err := c.REPL(ctx, strings.NewReader("/logout\n"), out)
	require.NoError(t, err)
	require.NoError(t, repl.Run(ctx))

	assert.Equal(t, 1, c.Renderer.Frames())
	assert.Contains(t, out.String(), "not logged in")
}
