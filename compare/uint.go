package compare

import (
	"errors"
	"fmt"
)

// Func compares two buffers and returns a negative, zero or positive value.
type Func = func(a, b []byte) int

// ErrWidth is returned for widths without a comparator.
var ErrWidth = errors.New("compare: unsupported width")

// Widths lists the supported integer widths in bits.
var Widths = []int{16, 32, 48, 64, 80, 96, 128}

// pairs compares the first n bytes of a and b as one unsigned integer in
// order o, two bytes at a time from the most significant end.
func pairs(a, b []byte, n int, o Order) int {
	if o == LittleEndian {
		for i := n - 2; i >= 0; i -= 2 {
			if x := int(word(a, i, o)) - int(word(b, i, o)); x != 0 {
				return x
			}
		}
		return 0
	}
	for i := 0; i < n; i += 2 {
		if x := int(word(a, i, o)) - int(word(b, i, o)); x != 0 {
			return x
		}
	}
	return 0
}

// u64 compares the first 8 bytes of a and b as one machine word.
func u64(a, b []byte, o Order) int {
	x, y := wide(a, o), wide(b, o)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// UintOrder returns the comparator for unsigned integers of the given bit
// width stored in order o.
func UintOrder(bits int, o Order) (Func, error) {
	switch bits {
	case 64:
		return func(a, b []byte) int { return u64(a, b, o) }, nil
	case 16, 32, 48, 80, 96, 128:
		n := bits / 8
		return func(a, b []byte) int { return pairs(a, b, n, o) }, nil
	}
	return nil, fmt.Errorf("%w: %d bits", ErrWidth, bits)
}

// ByWidth returns the native-order comparator for the given bit width.
// 0 is not a width; use the store default instead.
func ByWidth(bits int) (Func, error) {
	return UintOrder(bits, Native)
}

// Uint16 compares 2-byte unsigned integers in native order.
func Uint16(a, b []byte) int { return pairs(a, b, 2, Native) }

// Uint32 compares 4-byte unsigned integers in native order.
func Uint32(a, b []byte) int { return pairs(a, b, 4, Native) }

// Uint48 compares 6-byte unsigned integers in native order.
func Uint48(a, b []byte) int { return pairs(a, b, 6, Native) }

// Uint64 compares 8-byte unsigned integers in native order.
func Uint64(a, b []byte) int { return u64(a, b, Native) }

// Uint80 compares 10-byte unsigned integers in native order.
func Uint80(a, b []byte) int { return pairs(a, b, 10, Native) }

// Uint96 compares 12-byte unsigned integers in native order.
func Uint96(a, b []byte) int { return pairs(a, b, 12, Native) }

// Uint128 compares 16-byte unsigned integers in native order.
func Uint128(a, b []byte) int { return pairs(a, b, 16, Native) }
