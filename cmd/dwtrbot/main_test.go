package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/config"
	"github.com/zhaopengme/dwtrbot/pkg/tokens"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "dwtrbot dev")
}

func TestNewTokenStore(t *testing.T) {
	s, err := newTokenStore(config.TokensConfig{})
	require.NoError(t, err)
	assert.IsType(t, &tokens.MemoryStore{}, s)

	s, err = newTokenStore(config.TokensConfig{StorePath: filepath.Join(t.TempDir(), "tokens.json")})
	require.NoError(t, err)
	assert.IsType(t, &tokens.FileStore{}, s)
}

func TestNewChannelsConsoleOnly(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()

	chans, err := newChannels(config.ChannelsConfig{Console: config.ConsoleConfig{Enabled: true}}, mb)
	require.NoError(t, err)
	require.Len(t, chans, 1)
	assert.Equal(t, "console", chans[0].Name())
}

func TestNewAPIClientRejectsBadBase(t *testing.T) {
	_, err := newAPIClient(context.Background(), config.APIConfig{Base: "not a url"})
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging(config.LogConfig{Level: "debug", Format: "json"}))
	assert.Error(t, setupLogging(config.LogConfig{Level: "loud"}))
	assert.Error(t, setupLogging(config.LogConfig{Level: "info", Format: "xml"}))
	assert.NoError(t, setupLogging(config.LogConfig{}))
}
