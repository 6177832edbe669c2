package client

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/maximewewer/sntp-client/internal/wire"
	testutil "github.com/maximewewer/sntp-client/pkg/testing"
)

var (
	serverAddr = netip.AddrFrom4([4]byte{192, 0, 2, 1})
	t0         = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
)

// serverResponse builds a well-formed server-mode datagram.
func serverResponse(t *testing.T, stratum wire.Stratum, xmit wire.Timestamp) []byte {
	t.Helper()
	return testutil.BuildServerResponse(t, stratum, xmit)
}

func TestPoll_NormalExchange(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	// First poll: nothing queued, request due immediately.
	ts, ok, err := c.Poll(t0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, ts)

	require.Len(t, transport.Sent, 1)
	assert.Equal(t, netip.AddrPortFrom(serverAddr, SNTPPort), transport.SentTo[0])
	assert.Equal(t, DefaultRequestInterval, c.NextPoll(t0))

	// Response arrives shortly after.
	transport.QueueDatagram(serverResponse(t, 2, wire.Timestamp{Seconds: 100}))

	ts, ok, err = c.Poll(t0.Add(50 * time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2085978596), ts)

	// The response did not trigger another request.
	assert.Len(t, transport.Sent, 1)
}

func TestPoll_RequestPacketShape(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	_, _, err := c.Poll(t0)
	require.NoError(t, err)
	require.Len(t, transport.Sent, 1)

	sent := transport.Sent[0]
	require.Len(t, sent, wire.PacketSize)

	pkt, err := wire.Parse(sent)
	require.NoError(t, err)
	assert.Equal(t, wire.LeapNoWarning, pkt.Leap)
	assert.Equal(t, uint8(4), pkt.Version)
	assert.Equal(t, wire.ModeClient, pkt.Mode)

	// Everything past the first octet is zeroed: no originate timestamp is
	// recorded or echoed.
	for i, b := range sent[1:] {
		assert.Zerof(t, b, "octet %d not zero", i+1)
	}
}

func TestPoll_NoDataBeforeTimeout(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	_, _, err := c.Poll(t0)
	require.NoError(t, err)
	require.Len(t, transport.Sent, 1)

	// Polls before the next timeout neither produce nor send anything.
	for _, dt := range []time.Duration{time.Second, time.Minute, 59 * time.Minute} {
		ts, ok, err := c.Poll(t0.Add(dt))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, ts)
		assert.Len(t, transport.Sent, 1)
	}

	// At the timeout a fresh request goes out.
	_, _, err = c.Poll(t0.Add(DefaultRequestInterval))
	require.NoError(t, err)
	assert.Len(t, transport.Sent, 2)
}

func TestPoll_BindOnFirstUse(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	require.False(t, transport.IsOpen())

	_, _, err := c.Poll(t0)
	require.NoError(t, err)
	assert.True(t, transport.IsOpen())
	assert.Equal(t, uint16(SNTPPort), transport.BoundPort)

	// Subsequent polls do not rebind.
	_, _, err = c.Poll(t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, transport.BindCalls)
}

func TestPoll_BindFailurePropagates(t *testing.T) {
	transport := NewMockTransport()
	bindErr := errors.New("address in use")
	transport.SetBindError(bindErr)

	c := New(transport, serverAddr, t0)

	_, _, err := c.Poll(t0)
	require.ErrorIs(t, err, bindErr)
	assert.Empty(t, transport.Sent)
}

func TestPoll_RecvFaultPropagates(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	recvErr := errors.New("connection reset")
	transport.SetRecvError(recvErr)

	_, _, err := c.Poll(t0)
	require.ErrorIs(t, err, recvErr)

	// The aborted cycle sent nothing; the next clean poll does.
	assert.Empty(t, transport.Sent)
	_, _, err = c.Poll(t0)
	require.NoError(t, err)
	assert.Len(t, transport.Sent, 1)
}

func TestPoll_SendFailureDoesNotStorm(t *testing.T) {
	transport := NewMockTransport()
	sendErr := errors.New("network unreachable")
	transport.SetSendError(sendErr)

	c := New(transport, serverAddr, t0)

	_, _, err := c.Poll(t0)
	require.ErrorIs(t, err, sendErr)

	// The timer advanced before the failed send, so the immediate retry
	// does not fire another request.
	transport.SetSendError(nil)
	_, _, err = c.Poll(t0.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, transport.Sent)

	// The next interval boundary does.
	_, _, err = c.Poll(t0.Add(DefaultRequestInterval))
	require.NoError(t, err)
	assert.Len(t, transport.Sent, 1)
}

func TestPoll_CannotSendSkipsQuietly(t *testing.T) {
	transport := NewMockTransport()
	transport.SetSendable(false)

	c := New(transport, serverAddr, t0)

	ts, ok, err := c.Poll(t0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, ts)
	assert.Empty(t, transport.Sent)

	// The timer did not advance, so the request fires as soon as the
	// transport can send again.
	assert.Equal(t, time.Duration(0), c.NextPoll(t0))
	transport.SetSendable(true)

	_, _, err = c.Poll(t0.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, transport.Sent, 1)
}

func TestReceive_ModeFiltering(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0, WithInterval(time.Hour))

	// An echoed client-mode request must not produce a timestamp.
	pkt := wire.Packet{
		Leap:         wire.LeapNoWarning,
		Version:      4,
		Mode:         wire.ModeClient,
		Stratum:      2,
		TransmitTime: wire.Timestamp{Seconds: 100},
	}
	buf := make([]byte, wire.PacketSize)
	require.NoError(t, pkt.Emit(buf))
	transport.QueueDatagram(buf)

	ts, ok, err := c.Poll(t0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, ts)
}

func TestReceive_MalformedDiscarded(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	for _, payload := range [][]byte{{}, {0x23}, make([]byte, 47)} {
		transport.QueueDatagram(payload)
	}

	for i := 0; i < 3; i++ {
		ts, ok, err := c.Poll(t0.Add(time.Duration(i) * time.Millisecond))
		require.NoError(t, err, "malformed input must never abort the client")
		assert.False(t, ok)
		assert.Zero(t, ts)
	}

	// The discards did not suppress request scheduling: the first poll had
	// an expired timeout and sent a request.
	assert.Len(t, transport.Sent, 1)
}

func TestReceive_KissOfDeath(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	// Carries a transmit timestamp, which must be ignored.
	transport.QueueDatagram(testutil.BuildKissOfDeath(t))

	now := t0.Add(time.Minute)
	ts, ok, err := c.Poll(now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, ts)

	// Backoff rescheduled from the kiss-of-death instant, so nothing was
	// sent this cycle and nothing is due until now+interval.
	assert.Empty(t, transport.Sent)
	assert.Equal(t, DefaultRequestInterval, c.NextPoll(now))

	_, _, err = c.Poll(now.Add(DefaultRequestInterval - time.Second))
	require.NoError(t, err)
	assert.Empty(t, transport.Sent)

	_, _, err = c.Poll(now.Add(DefaultRequestInterval))
	require.NoError(t, err)
	assert.Len(t, transport.Sent, 1)
}

func TestPoll_ResponseWinsOverPendingTimeout(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	// Request overdue and a response queued in the same cycle: the
	// response wins and no request is sent.
	transport.QueueDatagram(serverResponse(t, 2, wire.Timestamp{Seconds: 7}))

	ts, ok, err := c.Poll(t0.Add(2 * DefaultRequestInterval))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wire.Timestamp{Seconds: 7}.Unix(), ts)
	assert.Empty(t, transport.Sent)
}

func TestPoll_TimestampWrapAround(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0)

	transport.QueueDatagram(serverResponse(t, 1, wire.Timestamp{Seconds: 0xffffffff}))

	ts, ok, err := c.Poll(t0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2085978495), ts)
}

func TestNextPoll(t *testing.T) {
	c := New(NewMockTransport(), serverAddr, t0)

	assert.Equal(t, time.Duration(0), c.NextPoll(t0))
	assert.Equal(t, time.Minute, c.NextPoll(t0.Add(-time.Minute)))
	assert.Equal(t, -time.Minute, c.NextPoll(t0.Add(time.Minute)))

	// Pure: no mutation across calls.
	assert.Equal(t, time.Duration(0), c.NextPoll(t0))
}

func TestWithInterval(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0, WithInterval(10*time.Second))

	_, _, err := c.Poll(t0)
	require.NoError(t, err)
	require.Len(t, transport.Sent, 1)
	assert.Equal(t, 10*time.Second, c.NextPoll(t0))
}

func TestWithRateLimiter_SkipsWithoutAdvancingTimer(t *testing.T) {
	transport := NewMockTransport()
	// Zero rate, zero burst: the limiter denies everything.
	c := New(transport, serverAddr, t0, WithRateLimiter(rate.NewLimiter(0, 0)))

	_, _, err := c.Poll(t0)
	require.NoError(t, err)
	assert.Empty(t, transport.Sent)
	assert.Equal(t, time.Duration(0), c.NextPoll(t0))
}

func TestWithRateLimiter_AllowsWithinBurst(t *testing.T) {
	transport := NewMockTransport()
	c := New(transport, serverAddr, t0, WithRateLimiter(rate.NewLimiter(1, 1)))

	_, _, err := c.Poll(t0)
	require.NoError(t, err)
	assert.Len(t, transport.Sent, 1)
}
