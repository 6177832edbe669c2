package wire

import "time"

const (
	// DiffSec19702036 is the number of seconds between the Unix epoch and
	// the start of NTP era 1 (2036-02-07 06:28:16 UTC).
	DiffSec19702036 uint32 = 2085978496

	// diffSec19001970 is the number of seconds between the NTP era-0 epoch
	// (1900-01-01) and the Unix epoch.
	diffSec19001970 = 2208988800

	nanoPerSec = 1e9
)

// Timestamp is a 64-bit NTP time value: whole seconds since the start of an
// NTP era plus a 32-bit binary fraction of a second.
type Timestamp struct {
	Seconds  uint32
	Fraction uint32
}

// IsZero reports whether the timestamp is the all-zero placeholder, which
// means "unknown" on the wire and must never be converted to wall time.
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Fraction == 0
}

// Unix converts the seconds field to Unix seconds assuming era-1 semantics:
// the 32-bit value is treated as already past the 2036 rollover, so the
// addition wraps. The fractional part is not consulted.
func (t Timestamp) Unix() uint32 {
	return t.Seconds + DiffSec19702036
}

// Time renders the timestamp as wall time under the same era-1 convention.
// Intended for display; Unix is what the client reports.
func (t Timestamp) Time() time.Time {
	nanos := int64(t.Fraction) * nanoPerSec >> 32
	return time.Unix(int64(t.Unix()), nanos).UTC()
}

// TimestampAt builds the era-0 NTP timestamp for a wall-clock instant.
// Used by servers and by test fixtures; the client's own requests carry
// zeroed timestamps.
func TimestampAt(t time.Time) Timestamp {
	nsec := uint64(t.UnixNano() + diffSec19001970*nanoPerSec)
	sec := nsec / nanoPerSec
	return Timestamp{
		Seconds:  uint32(sec),
		Fraction: uint32((nsec - sec*nanoPerSec) << 32 / nanoPerSec),
	}
}

// Short converts a 16.16 fixed-point field (root delay, root dispersion)
// to a duration.
func Short(v uint32) time.Duration {
	sec := v >> 16
	frac := v & 0xffff
	return time.Duration(sec)*time.Second +
		time.Duration(uint64(frac)*nanoPerSec>>16)
}

// ToShort converts a duration to the 16.16 fixed-point wire form.
// Negative durations encode as zero.
func ToShort(d time.Duration) uint32 {
	if d < 0 {
		return 0
	}
	sec := d / time.Second
	frac := (d - sec*time.Second) << 16 / time.Second
	return uint32(sec<<16 | frac)
}
