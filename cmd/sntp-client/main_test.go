package main

import (
	"context"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximewewer/sntp-client/internal/client"
	"github.com/maximewewer/sntp-client/internal/config"
	"github.com/maximewewer/sntp-client/pkg/metrics"
)

func TestLoadConfig_FromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configFile := tmpDir + "/test-config.yaml"

	configContent := `
client:
  server: time.example.org
  request_interval: 30m
logging:
  level: info
`
	err := os.WriteFile(configFile, []byte(configContent), 0644)
	assert.NoError(t, err)

	cfg, err := loadConfig(configFile)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "time.example.org", cfg.Client.Server)
	assert.Equal(t, 30*time.Minute, cfg.Client.RequestInterval)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	// Test with empty file (loads from env)
	cfg, err := loadConfig("")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestResolveServer_Literal(t *testing.T) {
	addr, err := resolveServer(context.Background(), "192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), addr)
}

func TestResolveServer_Localhost(t *testing.T) {
	addr, err := resolveServer(context.Background(), "localhost")
	require.NoError(t, err)
	assert.True(t, addr.IsLoopback())
}

func TestBuildPoller_PlainClient(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Client.CircuitBreaker.Enabled = false

	poller := buildPoller(cfg, nil, netip.MustParseAddr("192.0.2.1"), metrics.NewClientMetrics())

	_, isClient := poller.(*client.Client)
	assert.True(t, isClient)
}

func TestBuildPoller_WithBreaker(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Client.CircuitBreaker.Enabled = true

	poller := buildPoller(cfg, nil, netip.MustParseAddr("192.0.2.1"), metrics.NewClientMetrics())

	_, isBreaker := poller.(*client.BreakerPoller)
	assert.True(t, isBreaker)
}

func TestRunPollLoop_ContextCancellation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Client.PollTick = 10 * time.Millisecond

	poller := client.New(client.NewMockTransport(), netip.MustParseAddr("192.0.2.1"), time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := runPollLoop(ctx, cfg, poller, metrics.NewClientMetrics())

	assert.NoError(t, err, "Poll loop should stop gracefully on context cancellation")
}

func TestFetchOnce_Timeout(t *testing.T) {
	mock := client.NewMockTransport()
	mock.SetSendable(false)
	poller := client.New(mock, netip.MustParseAddr("192.0.2.1"), time.Now())

	_, err := fetchOnce(poller, time.Millisecond, 20*time.Millisecond)
	assert.Error(t, err)
}
