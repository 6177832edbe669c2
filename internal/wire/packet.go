// Package wire implements the fixed 48-byte SNTPv4 message layout.
//
// It provides a stateless codec between raw datagrams and the Packet
// structure. All multi-byte fields are big-endian, per RFC 4330. The codec
// path performs no allocation: Parse reads directly from the input slice and
// Emit writes into a caller-provided buffer of exactly PacketSize bytes.
package wire

import (
	"encoding/binary"
	"errors"
)

// PacketSize is the length of every SNTPv4 message, in bytes.
const PacketSize = 48

var (
	// ErrShortPacket is returned by Parse when the input holds fewer than
	// PacketSize bytes.
	ErrShortPacket = errors.New("wire: packet shorter than 48 bytes")

	// ErrBufferSize is returned by Emit when the output buffer is not
	// exactly PacketSize bytes.
	ErrBufferSize = errors.New("wire: buffer must be exactly 48 bytes")
)

// LeapIndicator is the 2-bit warning of an impending leap second.
type LeapIndicator uint8

const (
	LeapNoWarning LeapIndicator = iota
	LeapInsertSecond
	LeapDeleteSecond
	// LeapUnknown means the clock is unsynchronized (alarm condition).
	LeapUnknown
)

// Mode is the 3-bit protocol mode field.
type Mode uint8

const (
	ModeReserved Mode = iota
	ModeSymmetricActive
	ModeSymmetricPassive
	ModeClient
	ModeServer
	ModeBroadcast
	ModeControl
	ModePrivate
)

// Stratum is the server's distance from a reference clock. The raw octet is
// kept as-is so unknown values survive a Parse/Emit round trip; the methods
// below classify it.
type Stratum uint8

const (
	// StratumKissOfDeath marks a kiss-of-death packet: the server is
	// telling the client to back off.
	StratumKissOfDeath Stratum = 0

	// StratumPrimary is a server with a directly attached reference clock.
	StratumPrimary Stratum = 1

	// StratumUnsynchronized and above mean the server clock is not usable.
	StratumUnsynchronized Stratum = 16
)

// IsKissOfDeath reports whether the stratum signals server rate limiting.
func (s Stratum) IsKissOfDeath() bool { return s == StratumKissOfDeath }

// IsSecondary reports whether the server syncs via NTP to a lower stratum.
func (s Stratum) IsSecondary() bool { return s >= 2 && s <= 15 }

// IsSynchronized reports whether the stratum denotes a usable time source.
func (s Stratum) IsSynchronized() bool { return s >= StratumPrimary && s < StratumUnsynchronized }

// Byte offsets of the fixed layout.
const (
	liVnModePos       = 0
	stratumPos        = 1
	pollPos           = 2
	precisionPos      = 3
	rootDelayPos      = 4
	rootDispersionPos = 8
	referenceIDPos    = 12
	referenceTimePos  = 16
	originTimePos     = 24
	receiveTimePos    = 32
	transmitTimePos   = 40
)

// Packet is the decoded form of one SNTP message.
//
// RootDelay and RootDispersion are 16.16 fixed-point seconds (see Short).
// Poll and Precision are signed log2-seconds exponents.
type Packet struct {
	Leap           LeapIndicator
	Version        uint8
	Mode           Mode
	Stratum        Stratum
	Poll           int8
	Precision      int8
	RootDelay      uint32
	RootDispersion uint32
	ReferenceID    [4]byte
	ReferenceTime  Timestamp
	OriginTime     Timestamp
	ReceiveTime    Timestamp
	TransmitTime   Timestamp
}

// Parse decodes a raw SNTP datagram. It fails only on insufficient length;
// the leap, mode and stratum fields are advisory, and every value of their
// bit widths maps to a defined variant, so field contents never fail a parse.
// Trailing bytes beyond PacketSize (extensions, MACs) are ignored.
func Parse(data []byte) (Packet, error) {
	if len(data) < PacketSize {
		return Packet{}, ErrShortPacket
	}

	p := Packet{
		Leap:           LeapIndicator(data[liVnModePos] >> 6),
		Version:        data[liVnModePos] >> 3 & 0x07,
		Mode:           Mode(data[liVnModePos] & 0x07),
		Stratum:        Stratum(data[stratumPos]),
		Poll:           int8(data[pollPos]),
		Precision:      int8(data[precisionPos]),
		RootDelay:      binary.BigEndian.Uint32(data[rootDelayPos:]),
		RootDispersion: binary.BigEndian.Uint32(data[rootDispersionPos:]),
		ReferenceTime:  parseTimestamp(data[referenceTimePos:]),
		OriginTime:     parseTimestamp(data[originTimePos:]),
		ReceiveTime:    parseTimestamp(data[receiveTimePos:]),
		TransmitTime:   parseTimestamp(data[transmitTimePos:]),
	}
	copy(p.ReferenceID[:], data[referenceIDPos:referenceIDPos+4])

	return p, nil
}

// Emit serializes the packet into buf, which must be exactly PacketSize
// bytes. Emit followed by Parse loses no information as long as Version fits
// in 3 bits and Leap and Mode hold their defined variants.
func (p Packet) Emit(buf []byte) error {
	if len(buf) != PacketSize {
		return ErrBufferSize
	}

	buf[liVnModePos] = byte(p.Leap&0x03)<<6 | (p.Version&0x07)<<3 | byte(p.Mode&0x07)
	buf[stratumPos] = byte(p.Stratum)
	buf[pollPos] = byte(p.Poll)
	buf[precisionPos] = byte(p.Precision)
	binary.BigEndian.PutUint32(buf[rootDelayPos:], p.RootDelay)
	binary.BigEndian.PutUint32(buf[rootDispersionPos:], p.RootDispersion)
	copy(buf[referenceIDPos:referenceIDPos+4], p.ReferenceID[:])
	emitTimestamp(buf[referenceTimePos:], p.ReferenceTime)
	emitTimestamp(buf[originTimePos:], p.OriginTime)
	emitTimestamp(buf[receiveTimePos:], p.ReceiveTime)
	emitTimestamp(buf[transmitTimePos:], p.TransmitTime)

	return nil
}

func parseTimestamp(data []byte) Timestamp {
	return Timestamp{
		Seconds:  binary.BigEndian.Uint32(data),
		Fraction: binary.BigEndian.Uint32(data[4:]),
	}
}

func emitTimestamp(buf []byte, t Timestamp) {
	binary.BigEndian.PutUint32(buf, t.Seconds)
	binary.BigEndian.PutUint32(buf[4:], t.Fraction)
}
