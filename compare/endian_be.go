//go:build !amd64 && !386 && !arm64 && !arm && !riscv64 && !mips64le && !mipsle && !ppc64le && !wasm

package compare

import "encoding/binary"

// On big-endian architectures, use encoding/binary for correctness

//go:nosplit
func loadLE16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

//go:nosplit
func loadLE64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

//go:nosplit
func loadBE16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

//go:nosplit
func loadBE64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
