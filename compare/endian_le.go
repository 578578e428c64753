//go:build amd64 || 386 || arm64 || arm || riscv64 || mips64le || mipsle || ppc64le || wasm

package compare

import (
	"math/bits"
	"unsafe"
)

// On little-endian architectures, use direct pointer casts (zero overhead)

//go:nosplit
func loadLE16(b []byte) uint16 {
	_ = b[1]
	return *(*uint16)(unsafe.Pointer(&b[0]))
}

//go:nosplit
func loadLE64(b []byte) uint64 {
	_ = b[7]
	return *(*uint64)(unsafe.Pointer(&b[0]))
}

//go:nosplit
func loadBE16(b []byte) uint16 {
	_ = b[1]
	return bits.ReverseBytes16(*(*uint16)(unsafe.Pointer(&b[0])))
}

//go:nosplit
func loadBE64(b []byte) uint64 {
	_ = b[7]
	return bits.ReverseBytes64(*(*uint64)(unsafe.Pointer(&b[0])))
}
