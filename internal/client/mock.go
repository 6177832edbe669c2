package client

import (
	"net/netip"
)

// MockTransport is an in-memory Transport for testing the client without a
// network stack. Incoming datagrams are scripted with QueueDatagram; outgoing
// datagrams are captured in Sent.
type MockTransport struct {
	open     bool
	sendable bool

	// Scripted behaviour
	inbox    [][]byte
	from     netip.AddrPort
	bindErr  error
	recvErr  error
	sendErr  error

	// Captured activity
	BindCalls int
	BoundPort uint16
	Sent      [][]byte
	SentTo    []netip.AddrPort
}

// NewMockTransport creates a closed, sendable mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		sendable: true,
		from:     netip.AddrPortFrom(netip.AddrFrom4([4]byte{192, 0, 2, 1}), SNTPPort),
	}
}

// IsOpen reports whether Bind has succeeded.
func (m *MockTransport) IsOpen() bool { return m.open }

// Bind marks the transport open, or fails with the configured error.
func (m *MockTransport) Bind(port uint16) error {
	m.BindCalls++
	if m.bindErr != nil {
		return m.bindErr
	}
	m.open = true
	m.BoundPort = port
	return nil
}

// Recv pops the next scripted datagram, or returns ErrExhausted.
func (m *MockTransport) Recv(buf []byte) (int, netip.AddrPort, error) {
	if m.recvErr != nil {
		err := m.recvErr
		m.recvErr = nil
		return 0, netip.AddrPort{}, err
	}
	if len(m.inbox) == 0 {
		return 0, netip.AddrPort{}, ErrExhausted
	}
	payload := m.inbox[0]
	m.inbox = m.inbox[1:]
	n := copy(buf, payload)
	return n, m.from, nil
}

// CanSend reports the configured sendability.
func (m *MockTransport) CanSend() bool { return m.sendable }

// Send captures the outgoing datagram, or fails with the configured error.
func (m *MockTransport) Send(payload []byte, to netip.AddrPort) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	sent := make([]byte, len(payload))
	copy(sent, payload)
	m.Sent = append(m.Sent, sent)
	m.SentTo = append(m.SentTo, to)
	return nil
}

// QueueDatagram scripts one incoming datagram.
func (m *MockTransport) QueueDatagram(payload []byte) {
	m.inbox = append(m.inbox, payload)
}

// SetBindError makes every Bind fail.
func (m *MockTransport) SetBindError(err error) { m.bindErr = err }

// SetRecvError makes the next Recv fail with a transport fault.
func (m *MockTransport) SetRecvError(err error) { m.recvErr = err }

// SetSendError makes every Send fail.
func (m *MockTransport) SetSendError(err error) { m.sendErr = err }

// SetSendable toggles CanSend.
func (m *MockTransport) SetSendable(ok bool) { m.sendable = ok }

// SetSender overrides the scripted sender endpoint.
func (m *MockTransport) SetSender(from netip.AddrPort) { m.from = from }
