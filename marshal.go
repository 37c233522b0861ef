// marshal.go -- marshal/unmarshal a BDZ Mphf instance
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

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Mphf marshalled header - 3 x 64-bit words:
//
//	version byte
//	resv    [3]byte
//	m       uint32
//	n       uint64
//	salt    uint64
const _bdzHeaderSize = 24

// MarshalBinary encodes the Mphf into a binary form suitable for durable
// storage. A subsequent call to unmarshalMphf() reconstructs it.
func (m *Mphf) MarshalBinary(w io.Writer) (int, error) {
	var x [_bdzHeaderSize]byte

	x[0] = 1
	binary.LittleEndian.PutUint32(x[4:8], m.M)
	binary.LittleEndian.PutUint64(x[8:16], m.N)
	binary.LittleEndian.PutUint64(x[16:24], m.salt)

	nw, err := writeAll(w, x[:])
	if err != nil {
		return 0, err
	}

	bs := u32sToByteSlice(m.g)
	nb, err := writeAll(w, bs)
	return nw + nb, err
}

// unmarshalMphf reads a previously marshalled Mphf and returns a read-only
// lookup table. It assumes 'buf' is memory-mapped and aligned at the right
// boundaries, mirroring newChd().
func unmarshalMphf(buf []byte) (*Mphf, error) {
	if len(buf) < _bdzHeaderSize {
		return nil, ErrTooSmall
	}

	hdr := buf[:_bdzHeaderSize]
	buf = buf[_bdzHeaderSize:]
	if hdr[0] != 1 {
		return nil, fmt.Errorf("mphf: no support to un-marshal version %d: %w", hdr[0], ErrSerde)
	}

	m := binary.LittleEndian.Uint32(hdr[4:8])
	n := binary.LittleEndian.Uint64(hdr[8:16])
	salt := binary.LittleEndian.Uint64(hdr[16:24])

	glen := uint64(m) * 4
	if uint64(len(buf)) < glen {
		return nil, ErrTooSmall
	}

	g := bsToUint32Slice(buf[:glen])
	if uint64(len(g)) != uint64(m) {
		return nil, fmt.Errorf("mphf: mismatch in displacement table: exp %d, saw %d: %w", m, len(g), ErrSerde)
	}

	return &Mphf{
		N:    n,
		M:    m,
		salt: salt,
		g:    g,
	}, nil
}
