// Package flatkv implements the dupsort cursor contract on top of flat
// ordered key-value stores.
//
// A DupSort entry (k, v) is stored as the flat key
//
//	esc(k) 0x00 0x01 v
//
// with an empty value, where esc replaces each 0x00 of k by 0x00 0xFF.
// esc(k) 0x00 0x02 sorts after every value of k. Under plain byte order
// this sorts by key then by value; stores with pluggable comparators use
// Collation to apply installed key and value comparators instead.
package flatkv

const (
	tagValue = 0x01
	tagEnd   = 0x02
	escByte  = 0xFF
)

func escape(dst, key []byte) []byte {
	for _, c := range key {
		dst = append(dst, c)
		if c == 0 {
			dst = append(dst, escByte)
		}
	}
	return dst
}

func unescape(key []byte) []byte {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		out = append(out, key[i])
		if key[i] == 0 && i+1 < len(key) && key[i+1] == escByte {
			i++
		}
	}
	return out
}

// DupKey encodes the DupSort entry (key, val).
func DupKey(key, val []byte) []byte {
	dst := make([]byte, 0, len(key)+len(val)+4)
	dst = escape(dst, key)
	dst = append(dst, 0, tagValue)
	return append(dst, val...)
}

// KeyStart sorts at or before the first duplicate of key.
func KeyStart(key []byte) []byte {
	return DupKey(key, nil)
}

// KeyEnd sorts after the last duplicate of key and before the next key.
func KeyEnd(key []byte) []byte {
	dst := escape(make([]byte, 0, len(key)+3), key)
	return append(dst, 0, tagEnd)
}

// Split decodes an encoded DupSort key. key is unescaped; it aliases enc
// when no escaping was present.
func Split(enc []byte) (key []byte, tag byte, val []byte, ok bool) {
	escaped := false
	for i := 0; i+1 < len(enc); i++ {
		if enc[i] != 0 {
			continue
		}
		if enc[i+1] == escByte {
			escaped = true
			i++
			continue
		}
		key = enc[:i]
		if escaped {
			key = unescape(key)
		}
		return key, enc[i+1], enc[i+2:], true
	}
	return nil, 0, nil, false
}

// compareEmpty orders an empty buffer before any other. ok is false when
// both buffers are non-empty.
func compareEmpty(a, b []byte) (int, bool) {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0, true
	case len(a) == 0:
		return -1, true
	case len(b) == 0:
		return 1, true
	}
	return 0, false
}
