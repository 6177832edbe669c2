// Package transport provides the UDP implementation of the client's
// transport capability on top of the kernel socket API.
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/maximewewer/sntp-client/internal/client"
)

// UDP is a non-blocking datagram transport over a kernel UDP socket.
// Receives use an already-expired read deadline so they only drain what the
// kernel has buffered; sends rely on the kernel's own buffering and never
// block for UDP.
type UDP struct {
	conn *net.UDPConn
}

// NewUDP creates an unbound UDP transport. The client binds it on first use.
func NewUDP() *UDP {
	return &UDP{}
}

// IsOpen reports whether the socket is bound.
func (u *UDP) IsOpen() bool {
	return u.conn != nil
}

// Bind binds the socket to the wildcard address on the given port.
func (u *UDP) Bind(port uint16) error {
	if u.conn != nil {
		return errors.New("transport: socket already bound")
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return fmt.Errorf("listen udp on port %d: %w", port, err)
	}
	u.conn = conn
	return nil
}

// Recv copies one buffered datagram into buf. When the kernel queue is
// empty, the expired deadline surfaces as a timeout, which maps to
// client.ErrExhausted.
func (u *UDP) Recv(buf []byte) (int, netip.AddrPort, error) {
	if u.conn == nil {
		return 0, netip.AddrPort{}, errors.New("transport: socket not bound")
	}

	if err := u.conn.SetReadDeadline(time.Now()); err != nil {
		return 0, netip.AddrPort{}, fmt.Errorf("set read deadline: %w", err)
	}

	n, from, err := u.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, netip.AddrPort{}, client.ErrExhausted
		}
		return 0, netip.AddrPort{}, fmt.Errorf("read udp: %w", err)
	}
	return n, from, nil
}

// CanSend reports whether the socket can accept an outgoing datagram. For a
// bound kernel UDP socket this is always the case.
func (u *UDP) CanSend() bool {
	return u.conn != nil
}

// Send transmits one datagram to the given endpoint.
func (u *UDP) Send(payload []byte, to netip.AddrPort) error {
	if u.conn == nil {
		return errors.New("transport: socket not bound")
	}

	if _, err := u.conn.WriteToUDPAddrPort(payload, to); err != nil {
		return fmt.Errorf("write udp to %s: %w", to, err)
	}
	return nil
}

// LocalAddrPort returns the bound local endpoint, or the zero value when the
// socket is not bound.
func (u *UDP) LocalAddrPort() netip.AddrPort {
	if u.conn == nil {
		return netip.AddrPort{}
	}
	if addr, ok := u.conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.AddrPort()
	}
	return netip.AddrPort{}
}

// Close releases the socket. The owning caller decides when; dropping a
// Client never closes its transport.
func (u *UDP) Close() error {
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
