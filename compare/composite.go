package compare

// Uint64x64 compares 16-byte buffers made of a high field (bytes 0-7) and
// a low field (bytes 8-15), both in native order.
//
// When the high fields of both a and b are nonzero only the high fields
// are compared. Otherwise only the low fields are compared, even when one
// side has a nonzero high field. Stored data may already be ordered under
// this rule, so it must not change.
func Uint64x64(a, b []byte) int { return uint64x64(a, b, Native) }

// Uint64x64Order is Uint64x64 for fields stored in order o.
func Uint64x64Order(o Order) Func {
	return func(a, b []byte) int { return uint64x64(a, b, o) }
}

func uint64x64(a, b []byte, o Order) int {
	if nonzero(a[:8]) && nonzero(b[:8]) {
		return u64(a, b, o)
	}
	return pairs(a[8:16], b[8:16], 8, o)
}

// nonzero does not depend on byte order.
func nonzero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return true
		}
	}
	return false
}
