package client

import (
	"errors"
	"net/netip"
)

// ErrExhausted is the non-fault receive outcome: no datagram is queued right
// now. Every other error a Transport returns is treated as a transport fault
// and aborts the poll cycle.
var ErrExhausted = errors.New("transport: no datagram available")

// Transport is the narrow UDP capability the client consumes. The caller
// owns the underlying socket; the client only touches it inside Poll.
//
// All methods must be non-blocking.
type Transport interface {
	// IsOpen reports whether the socket is bound.
	IsOpen() bool

	// Bind binds the socket to the wildcard address on the given port.
	Bind(port uint16) error

	// Recv copies one queued datagram into buf and returns its length and
	// sender. Returns ErrExhausted when nothing is queued.
	Recv(buf []byte) (int, netip.AddrPort, error)

	// CanSend reports whether an outgoing datagram can be accepted now.
	CanSend() bool

	// Send transmits one datagram to the given endpoint.
	Send(payload []byte, to netip.AddrPort) error
}
