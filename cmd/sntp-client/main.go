package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"golang.org/x/time/rate"

	"github.com/maximewewer/sntp-client/internal/client"
	"github.com/maximewewer/sntp-client/internal/config"
	"github.com/maximewewer/sntp-client/internal/server"
	"github.com/maximewewer/sntp-client/internal/transport"
	"github.com/maximewewer/sntp-client/pkg/logger"
	"github.com/maximewewer/sntp-client/pkg/mathutil"
	"github.com/maximewewer/sntp-client/pkg/metrics"
)

var (
	// Build information
	version = "dev"
)

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	compare := flag.Bool("compare", false, "Fetch one timestamp and cross-check it against a full NTP query")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		// Use println for version output (user-facing, not logging)
		println("sntp-client version", version)
		os.Exit(0)
	}

	// Load configuration (before logger is initialized)
	cfg, err := loadConfig(*configFile)
	if err != nil {
		// Cannot use logger yet, write to stderr
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.InitLogger(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		Component:  "sntp-client",
		EnableFile: cfg.Logging.EnableFile,
	}); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Log startup information
	logger.Startup(version, "", map[string]interface{}{
		"go_version": runtime.Version(),
		"config":     cfg,
	})

	// Resolve the server once at startup
	serverAddr, err := resolveServer(context.Background(), cfg.Client.Server)
	if err != nil {
		logger.Fatal("main", "Failed to resolve SNTP server", err)
	}

	// Create metrics registry with custom namespace and subsystem from config
	registry := metrics.NewRegistryWithConfig(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	if err := registry.Register(); err != nil {
		logger.Fatal("main", "Failed to register metrics", err)
	}

	// Build the transport and poller stack
	udp := transport.NewUDP()
	defer udp.Close()

	poller := buildPoller(cfg, udp, serverAddr, registry.GetMetrics())

	if *compare {
		os.Exit(runCompare(cfg, poller))
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server if enabled
	serverErrChan := make(chan error, 1)
	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(cfg, registry.GetRegistry())
		go func() {
			serverErrChan <- srv.Start(ctx)
		}()
	}

	// Start the poll loop
	pollErrChan := make(chan error, 1)
	go func() {
		pollErrChan <- runPollLoop(ctx, cfg, poller, registry.GetMetrics())
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("main", "Received shutdown signal: %s", sig.String())
		cancel()
	case err := <-serverErrChan:
		if err != nil {
			logger.Error("main", "Server error", err)
		}
		cancel()
	case err := <-pollErrChan:
		if err != nil {
			logger.Error("main", "Poll loop error", err)
		}
		cancel()
	}

	// Graceful shutdown
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("main", "Server shutdown error", err)
		}
	}

	logger.Shutdown("graceful")
}

// loadConfig loads configuration based on whether a config file is specified
func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		// Load from YAML file with environment variable overrides
		// Priority: Environment Variables > YAML File > Defaults
		return config.LoadFromYamlWithEnvOverrides(configFile)
	}
	// No config file specified, use environment variables only
	// Priority: Environment Variables > Defaults
	return config.LoadFromEnvVarsOnly()
}

// resolveServer resolves the configured host to a single IP address. The
// address is pinned for the lifetime of the process.
func resolveServer(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("lookup %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, fmt.Errorf("lookup %s: no addresses", host)
	}
	return addrs[0].Unmap(), nil
}

// buildPoller assembles the client with the configured options and wraps it
// with the circuit breaker when enabled
func buildPoller(
	cfg *config.Config,
	udp *transport.UDP,
	serverAddr netip.Addr,
	m *metrics.ClientMetrics,
) client.Poller {
	opts := []client.Option{
		client.WithInterval(cfg.Client.RequestInterval),
		client.WithLogger(logger.WithFields("client", map[string]interface{}{
			"server": cfg.Client.Server,
		})),
		client.WithMetrics(m),
	}

	if cfg.Client.RateLimit.Enabled {
		limit := rate.Limit(float64(cfg.Client.RateLimit.RequestsPerMinute) / 60.0)
		opts = append(opts, client.WithRateLimiter(
			rate.NewLimiter(limit, cfg.Client.RateLimit.BurstSize),
		))
	}

	var poller client.Poller = client.New(udp, serverAddr, time.Now(), opts...)

	if cfg.Client.CircuitBreaker.Enabled {
		poller = client.NewBreakerPoller(poller, client.BreakerConfig{
			MaxRequests:      cfg.Client.CircuitBreaker.MaxRequests,
			Interval:         cfg.Client.CircuitBreaker.Interval,
			Timeout:          cfg.Client.CircuitBreaker.Timeout,
			FailureThreshold: cfg.Client.CircuitBreaker.FailureThreshold,
		})
	}

	return poller
}

// runPollLoop drives the poller at the configured tick until ctx is cancelled
func runPollLoop(
	ctx context.Context,
	cfg *config.Config,
	poller client.Poller,
	m *metrics.ClientMetrics,
) error {
	ticker := time.NewTicker(cfg.Client.PollTick)
	defer ticker.Stop()

	logger.Infof("main", "Poll loop started, server=%s interval=%s tick=%s",
		cfg.Client.Server, cfg.Client.RequestInterval, cfg.Client.PollTick)

	for {
		select {
		case <-ctx.Done():
			logger.Info("main", "Poll loop stopped")
			return nil
		case <-ticker.C:
			now := time.Now()
			unixSeconds, ok, err := poller.Poll(now)
			if err != nil {
				m.TransportErrorsTotal.Inc()
				logger.Error("main", "Poll failed", err)
			}
			if ok {
				serverTime := time.Unix(int64(unixSeconds), 0).UTC()
				logger.Timestamp(cfg.Client.Server, unixSeconds, serverTime)
				m.LastTimestampSeconds.Set(float64(unixSeconds))
			}
			m.NextRequestSeconds.Set(poller.NextPoll(now).Seconds())
		}
	}
}

// runCompare fetches one timestamp via the polling client, then runs a full
// NTP query against the same server and reports both readings side by side.
// Returns the process exit code.
func runCompare(cfg *config.Config, poller client.Poller) int {
	const timeout = 10 * time.Second

	unixSeconds, err := fetchOnce(poller, cfg.Client.PollTick, timeout)
	if err != nil {
		logger.Error("main", "SNTP exchange failed", err)
		return 1
	}
	sntpTime := time.Unix(int64(unixSeconds), 0).UTC()

	resp, err := ntp.Query(cfg.Client.Server)
	if err != nil {
		logger.Error("main", "NTP reference query failed", err)
		return 1
	}
	refTime := time.Now().Add(resp.ClockOffset).UTC()

	diff := mathutil.AbsDuration(sntpTime.Sub(refTime))
	logger.Infof("main", "SNTP %s vs NTP %s (difference %s, reference offset %s)",
		sntpTime.Format(time.RFC3339), refTime.Format(time.RFC3339), diff, resp.ClockOffset)
	return 0
}

// fetchOnce polls until one timestamp arrives or the timeout expires
func fetchOnce(poller client.Poller, tick, timeout time.Duration) (uint32, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		unixSeconds, ok, err := poller.Poll(time.Now())
		if err != nil {
			return 0, err
		}
		if ok {
			return unixSeconds, nil
		}
		time.Sleep(mathutil.MinDuration(tick, mathutil.MaxDuration(time.Until(deadline), 0)))
	}
	return 0, fmt.Errorf("no response within %s", timeout)
}
