package wbfs

import "encoding/binary"

// beUint16 decodes a big-endian 16-bit field. It is the only place the
// package touches endianness for 2-byte fields; every WBFS indirection-table
// entry flows through it.
func beUint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// beUint32 decodes a big-endian 32-bit field.
func beUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// beUint64 decodes a big-endian 64-bit field.
func beUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// putBEUint16 is the inverse of beUint16, kept for round-trip tests.
func putBEUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

// putBEUint32 is the inverse of beUint32, kept for round-trip tests.
func putBEUint32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// putBEUint64 is the inverse of beUint64, kept for round-trip tests.
func putBEUint64(b []byte, v uint64) {
	binary.BigEndian.PutUint64(b, v)
}
