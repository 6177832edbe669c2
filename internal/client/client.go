// Package client implements the SNTPv4 request/response state machine.
//
// A Client owns one logical session against one server: it decides when to
// send a time request, interprets responses, and applies the server's
// kiss-of-death backoff. It is a reactive poller with no internal timers or
// goroutines; the caller drives it by calling Poll at its own cadence and may
// use NextPoll to size the sleep in between.
package client

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/maximewewer/sntp-client/internal/wire"
	"github.com/maximewewer/sntp-client/pkg/metrics"
)

const (
	// SNTPPort is the IANA-assigned port for SNTP, used both as the
	// server destination port and as the local bind port.
	SNTPPort = 123

	// DefaultRequestInterval is the pause between requests. Kiss-of-death
	// reuses the same interval rather than escalating; server-mandated
	// backoff values are not consulted.
	DefaultRequestInterval = time.Hour
)

// Client is an SNTPv4 client bound to one transport and one server address.
//
// Not safe for concurrent use: all mutation happens inside Poll, and the
// design assumes a single cooperative caller.
type Client struct {
	transport Transport
	server    netip.Addr

	// nextRequest is the absolute instant the next request becomes due.
	nextRequest time.Time
	interval    time.Duration

	limiter *rate.Limiter
	metrics *metrics.ClientMetrics
	log     zerolog.Logger

	// Fixed storage for the codec path; the receive buffer leaves room for
	// extension fields past the 48-byte header.
	rx [128]byte
	tx [wire.PacketSize]byte
}

// Option configures a Client.
type Option func(*Client)

// WithInterval overrides the request interval.
func WithInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimiter caps outgoing requests independently of the protocol
// cadence. A request blocked by the limiter is skipped without advancing the
// request timer, exactly like a transport that cannot send.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics attaches Prometheus client metrics.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client performing requests to the given server. The first
// request fires on the first Poll at or after now; the caller keeps ownership
// of the transport's socket.
func New(t Transport, server netip.Addr, now time.Time, opts ...Option) *Client {
	c := &Client{
		transport:   t,
		server:      server,
		nextRequest: now,
		interval:    DefaultRequestInterval,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextPoll returns the duration until the next request is due. It may be
// negative or zero when a request is overdue. Callers may sleep up to this
// long between polls, though a shorter cadence is needed to pick up the
// response to an in-flight request.
func (c *Client) NextPoll(now time.Time) time.Duration {
	return c.nextRequest.Sub(now)
}

// Poll processes at most one incoming datagram and sends at most one request,
// then returns immediately.
//
// A valid server response yields (unixSeconds, true, nil) and suppresses any
// send this cycle. Transport faults (bind, send, receive errors other than
// ErrExhausted) propagate; protocol errors in received data never do.
func (c *Client) Poll(now time.Time) (uint32, bool, error) {
	if !c.transport.IsOpen() {
		if err := c.transport.Bind(SNTPPort); err != nil {
			return 0, false, fmt.Errorf("bind to port %d: %w", SNTPPort, err)
		}
	}

	var (
		timestamp uint32
		ok        bool
	)
	n, from, err := c.transport.Recv(c.rx[:])
	switch {
	case err == nil:
		timestamp, ok = c.receive(c.rx[:n], from, now)
	case errors.Is(err, ErrExhausted):
		// Nothing queued this cycle.
	default:
		return 0, false, fmt.Errorf("recv: %w", err)
	}

	if ok {
		if c.metrics != nil {
			c.metrics.TimestampsTotal.Inc()
		}
		return timestamp, true, nil
	}

	// Send a request once the timeout has expired. The limiter sits with
	// CanSend on the near side of request() so a skipped send never
	// advances the timer.
	if c.transport.CanSend() && !now.Before(c.nextRequest) && c.allowSend() {
		if err := c.request(now); err != nil {
			return 0, false, err
		}
	}
	return 0, false, nil
}

// receive interprets one datagram. Untrusted network input must not abort the
// client, so every protocol error is logged at debug level and swallowed.
func (c *Client) receive(payload []byte, from netip.AddrPort, now time.Time) (uint32, bool) {
	pkt, err := wire.Parse(payload)
	if err != nil {
		c.log.Debug().
			Err(err).
			Int("length", len(payload)).
			Stringer("from", from).
			Msg("Discarding invalid SNTP packet")
		if c.metrics != nil {
			c.metrics.MalformedTotal.Inc()
		}
		return 0, false
	}

	if pkt.Mode != wire.ModeServer {
		c.log.Debug().
			Uint8("mode", uint8(pkt.Mode)).
			Stringer("from", from).
			Msg("Discarding SNTP packet with non-server mode")
		if c.metrics != nil {
			c.metrics.RejectedModeTotal.Inc()
		}
		return 0, false
	}

	if pkt.Stratum.IsKissOfDeath() {
		c.log.Debug().
			Stringer("from", from).
			Dur("backoff", c.interval).
			Msg("SNTP kiss of death received, delaying next request")
		if c.metrics != nil {
			c.metrics.KissOfDeathTotal.Inc()
		}
		c.nextRequest = now.Add(c.interval)
		return 0, false
	}

	// Era-1 conversion of the transmit timestamp; sub-second precision is
	// not reported.
	return pkt.TransmitTime.Unix(), true
}

// request sends one client-mode packet with all timestamp and metadata
// fields zeroed. The request timer advances before the send attempt so a
// failing send cannot retrigger a request on every subsequent poll.
func (c *Client) request(now time.Time) error {
	pkt := wire.Packet{
		Leap:    wire.LeapNoWarning,
		Version: 4,
		Mode:    wire.ModeClient,
	}

	c.nextRequest = now.Add(c.interval)

	if err := pkt.Emit(c.tx[:]); err != nil {
		return fmt.Errorf("emit request: %w", err)
	}

	endpoint := netip.AddrPortFrom(c.server, SNTPPort)
	c.log.Debug().
		Stringer("server", endpoint).
		Time("next_request", c.nextRequest).
		Msg("Sending SNTP request")

	if err := c.transport.Send(c.tx[:], endpoint); err != nil {
		return fmt.Errorf("send to %s: %w", endpoint, err)
	}
	if c.metrics != nil {
		c.metrics.RequestsTotal.Inc()
	}
	return nil
}

func (c *Client) allowSend() bool {
	return c.limiter == nil || c.limiter.Allow()
}
