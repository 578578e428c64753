// Package compare provides fixed-width unsigned integer comparators for
// keys and duplicate values.
//
// A comparator reads its buffers as unsigned integers of a declared width
// stored in a declared byte order, and compares them from the most
// significant end in 16-bit steps, returning the difference of the first
// differing pair. Buffers must be at least as long as the declared width;
// that is a precondition of installing the comparator, not a runtime check.
package compare

import "golang.org/x/sys/cpu"

// Order is the byte order integers are stored in.
type Order int

const (
	LittleEndian Order = iota
	BigEndian
)

// Native is the byte order of the running machine.
var Native = func() Order {
	if cpu.IsBigEndian {
		return BigEndian
	}
	return LittleEndian
}()

func (o Order) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// word reads the 16-bit unit at offset i of b in order o.
func word(b []byte, i int, o Order) uint16 {
	if o == LittleEndian {
		return loadLE16(b[i:])
	}
	return loadBE16(b[i:])
}

// wide reads the 64-bit unit at the start of b in order o.
func wide(b []byte, o Order) uint64 {
	if o == LittleEndian {
		return loadLE64(b)
	}
	return loadBE64(b)
}
