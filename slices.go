// slices.go -- zero-copy reinterpretation between byte slices and fixed
// width integer slices, used when marshaling tables to/from disk and when
// reading them back out of a memory-mapped file.
//
// (c) Sudhi Herle 2018, 2024
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package mph

import "unsafe"

func u16sToByteSlice(s []uint16) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*2)
}

func u32sToByteSlice(s []uint32) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
}

func u64sToByteSlice(s []uint64) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
}

func bsToUint16Slice(b []byte) []uint16 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
}

func bsToUint32Slice(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func bsToUint64Slice(b []byte) []uint64 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), len(b)/8)
}

// toLittleEndianUintNN converts a native-endian value read out of a
// memory-mapped table (which is always written little-endian on disk)
// into the host's native order. On little-endian hosts this is a no-op;
// on big-endian hosts it byte-swaps.
func toLittleEndianUint16(v uint16) uint16 { return toLEUint16(v) }
func toLittleEndianUint32(v uint32) uint32 { return toLEUint32(v) }
func toLittleEndianUint64(v uint64) uint64 { return toLEUint64(v) }
