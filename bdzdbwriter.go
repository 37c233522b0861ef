// bdzdbwriter.go -- Constant DB built on top of a BDZ or CHD MPH
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
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dchest/siphash"
)

// The on-disk DB has the following general structure:
//   - 64 byte file header: big-endian encoding of all multibyte ints
//      * magic    [4]byte
//      * flags    uint32 (reserved)
//      * salt     [16]byte random salt for siphash record integrity
//      * nkeys    uint64  Number of offset-table entries (the MPH's Len():
//                         the key count for BDZ, the table size for CHD)
//      * offtbl   uint64  File offset of the offset table (page-aligned)
//
//   - Contiguous series of records; each record holds the original key
//     (so lookups can verify membership - neither BDZ nor CHD carry that
//     information on their own) plus its value:
//      * cksum    uint64  Siphash checksum of offset, key and value
//      * klen     uint32  length of the key
//      * key      []byte  the original key bytes
//      * val      []byte  value bytes
//
//   - Possibly a gap until the next PageSize boundary (4096 bytes)
//   - Two memory-mapped, little-endian tables, one entry per key, indexed
//     by the MPH's assigned index:
//      * offset ([]uint64)  byte offset of the key's record
//      * vlen   ([]uint32)  length of the key's value
//   - Marshaled MPH table
//   - 32 bytes of strong checksum (SHA512_256); this checksum is done over
//     the file header, offset/vlen tables and marshaled MPH.
//
// Most data is serialized as big-endian integers. The exceptions are the
// offset and vlen tables: these are mmap'd into the process and written
// little-endian, since most systems we run on are little-endian. On
// big-endian systems, DBReader converts on the fly to native order.

const (
	_Magic_BDZ = "MPHZ"
	_Magic_CHD = "MPHC"
)

// writer state
type wstate int

const (
	_Aborted = -1
	_Open    = 0
	_Frozen  = 1
)

// DBWriter represents an abstraction to construct a read-only MPH database.
// The underlying MPHF is either BDZ or CHD. Keys and values are arbitrary
// byte sequences ([]byte). Both the key and the value are stored in the DB
// record, along with a checksum protecting the integrity of the record via
// siphash-2-4. We don't use SHA512-256 over the entire file, because that
// would mean reading a potentially large file on every open; instead each
// record carries its own checksum and DBReader verifies records
// opportunistically, on lookup.
//
// The DB meta-data and MPH table are protected by a strong checksum
// (SHA512-256) written as a trailer.
type DBWriter struct {
	fd *os.File
	bb MPHBuilder

	// to detect duplicates and remember each record's placement
	keymap map[string]*value

	// siphash key: just binary encoded salt
	salt []byte

	// running count of current offset within fd where we are writing
	// records
	off uint64

	valSize uint64

	fntmp string // tmp file name
	fn    string // final file holding the PHF
	state wstate
	magic string
}

// things associated with each key/value pair
type value struct {
	off  uint64
	vlen uint32
}

// NewBDZDBWriter prepares file 'fn' to hold a constant DB built using the
// BDZ minimal perfect hash function. Once written, the DB is "frozen" and
// readers will open it using NewDBReader() to do constant time lookups of
// key to value.
func NewBDZDBWriter(fn string, cfg Config) (*DBWriter, error) {
	bb := newBDZMPHBuilder(cfg)
	return newDBWriter(bb, fn, _Magic_BDZ)
}

// NewChdDBWriter prepares file 'fn' to hold a constant DB built using the
// CHD minimal perfect hash function.
func NewChdDBWriter(fn string, load float64) (*DBWriter, error) {
	bb, err := NewChdBuilder(load)
	if err != nil {
		return nil, err
	}

	return newDBWriter(bb, fn, _Magic_CHD)
}

func newDBWriter(bb MPHBuilder, fn string, magic string) (*DBWriter, error) {
	tmp := fmt.Sprintf("%s.tmp.%d", fn, rand32())
	fd, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}

	w := &DBWriter{
		fd:     fd,
		bb:     bb,
		keymap: make(map[string]*value),
		salt:   randbytes(16),
		off:    64, // starting offset past the header
		fn:     fn,
		fntmp:  tmp,
		magic:  magic,
	}

	// Leave some space for a header; we will fill this in when we
	// are done Freezing.
	var z [64]byte
	if _, err := writeAll(fd, z[:]); err != nil {
		return nil, err
	}

	return w, nil
}

// Len returns the total number of distinct keys in the DB
func (w *DBWriter) Len() int {
	return len(w.keymap)
}

// Filename returns the filename of the underlying db
func (w *DBWriter) Filename() string {
	return w.fn
}

// AddKeyVals adds a series of key-value matched pairs to the db. If they are of
// unequal length, only the smaller of the lengths are used. Records with duplicate
// keys are discarded.
// Returns number of records added.
func (w *DBWriter) AddKeyVals(keys [][]byte, vals [][]byte) (int, error) {
	if w.state != _Open {
		return 0, ErrFrozen
	}

	n := len(keys)
	if len(vals) < n {
		n = len(vals)
	}

	var z int
	for i := 0; i < n; i++ {
		if ok, err := w.addRecord(keys[i], vals[i]); err != nil {
			if err == ErrExists {
				continue
			}
			return z, err
		} else if ok {
			z++
		}
	}

	return z, nil
}

// Add adds a single key,value pair.
func (w *DBWriter) Add(key []byte, val []byte) error {
	if w.state != _Open {
		return ErrFrozen
	}

	if _, err := w.addRecord(key, val); err != nil {
		return err
	}
	return nil
}

// Abort a construction
func (w *DBWriter) Abort() error {
	if w.state != _Open {
		return ErrFrozen
	}

	return w.abort()
}

func (w *DBWriter) abort() error {
	if err := os.Remove(w.fd.Name()); err != nil {
		return err
	}

	if err := w.fd.Close(); err != nil {
		return err
	}
	w.state = _Aborted
	return nil
}

// Freeze builds the minimal perfect hash, writes the DB and closes it.
func (w *DBWriter) Freeze() (err error) {
	defer func(e *error) {
		// undo the tmpfile
		if *e != nil {
			w.abort()
		}
	}(&err)

	if w.state != _Open {
		return ErrFrozen
	}

	var mp MPH

	mp, err = w.bb.Freeze()
	if err != nil {
		return err
	}

	// calculate strong checksum for all data from this point on.
	h := sha512.New512_256()

	tee := io.MultiWriter(w.fd, h)

	// We align the offset table to pagesize - so we can mmap it when we read it back.
	pgsz := uint64(os.Getpagesize())
	pgsz_m1 := pgsz - 1
	offtbl := w.off + pgsz_m1
	offtbl &= ^pgsz_m1

	if offtbl > w.off {
		zeroes := make([]byte, offtbl-w.off)
		if _, err = writeAll(w.fd, zeroes); err != nil {
			return err
		}
		w.off = offtbl
	}

	// Now offset is at a page boundary.

	var ehdr [64]byte

	// header is encoded in big-endian format
	// 4 byte magic
	// 4 byte flags (reserved)
	// 16 byte salt
	// 8 byte nkeys
	// 8 byte offtbl
	be := binary.BigEndian
	copy(ehdr[:4], w.magic)

	i := 8
	i += copy(ehdr[i:], w.salt)
	be.PutUint64(ehdr[i:i+8], uint64(mp.Len()))
	i += 8
	be.PutUint64(ehdr[i:i+8], offtbl)

	// add header to checksum
	h.Write(ehdr[:])

	// write to file and checksum together
	if err := w.marshalOffsets(tee, mp); err != nil {
		return err
	}

	// align the offset to next 64 bit boundary
	offtbl = w.off + 7
	offtbl &= ^uint64(7)
	if offtbl > w.off {
		zeroes := make([]byte, offtbl-w.off)
		if _, err = writeAll(tee, zeroes); err != nil {
			return err
		}
		w.off = offtbl
	}

	// Next, we now encode the mph and write to disk.
	var nw int
	nw, err = mp.MarshalBinary(tee)
	if err != nil {
		return err
	}
	w.off += uint64(nw)

	// Trailer is the checksum of everything
	cksum := h.Sum(nil)
	if _, err = writeAll(w.fd, cksum[:]); err != nil {
		return err
	}

	// Finally, write the header at start of file
	w.fd.Seek(0, 0)
	if _, err = writeAll(w.fd, ehdr[:]); err != nil {
		return err
	}

	if err = w.fd.Sync(); err != nil {
		return err
	}

	if err = w.fd.Close(); err != nil {
		return err
	}

	if err = os.Rename(w.fntmp, w.fn); err != nil {
		return err
	}
	w.state = _Frozen
	return nil
}

// marshalOffsets writes the per-key record-offset table and value-length
// table, each indexed by the MPH's assigned index for that key.
func (w *DBWriter) marshalOffsets(tee io.Writer, mp MPH) error {
	n := uint64(mp.Len())
	offset := make([]uint64, n)
	vlen := make([]uint32, n)

	for k, r := range w.keymap {
		i, ok := mp.Find([]byte(k))
		if !ok {
			return fmt.Errorf("dbwriter: panic: can't find key %q", k)
		}

		offset[i] = toLittleEndianUint64(r.off)
		vlen[i] = toLittleEndianUint32(r.vlen)
	}

	bs := u64sToByteSlice(offset)
	if _, err := writeAll(tee, bs); err != nil {
		return err
	}

	bs = u32sToByteSlice(vlen)
	if _, err := writeAll(tee, bs); err != nil {
		return err
	}

	w.off += n * (8 + 4)
	return nil
}

// compute checksums and add a record to the file at the current offset.
func (w *DBWriter) addRecord(key []byte, val []byte) (bool, error) {
	if uint64(len(val)) > uint64(1<<32)-1 {
		return false, ErrValueTooLarge
	}
	if uint64(len(key)) > uint64(1<<32)-1 {
		return false, ErrValueTooLarge
	}

	ks := string(key)
	if _, ok := w.keymap[ks]; ok {
		return false, ErrExists
	}

	// first add to the underlying PHF constructor
	if err := w.bb.Add(key); err != nil {
		return false, err
	}

	v := &value{
		off:  w.off,
		vlen: uint32(len(val)),
	}
	w.keymap[ks] = v

	if err := w.writeRecord(key, val, v.off); err != nil {
		return false, err
	}
	w.valSize += uint64(len(val))

	return true, nil
}

// writeRecord writes a checksum, the key and the value at the given
// offset, updating w.off as it goes.
func (w *DBWriter) writeRecord(key, val []byte, off uint64) error {
	var o [8]byte
	var klen [4]byte
	var c [8]byte

	be := binary.BigEndian
	be.PutUint64(o[:], off)
	be.PutUint32(klen[:], uint32(len(key)))

	h := siphash.New(w.salt)
	h.Write(o[:])
	h.Write(klen[:])
	h.Write(key)
	h.Write(val)
	be.PutUint64(c[:], h.Sum64())

	if _, err := writeAll(w.fd, c[:]); err != nil {
		return err
	}
	if _, err := writeAll(w.fd, klen[:]); err != nil {
		return err
	}
	if _, err := writeAll(w.fd, key); err != nil {
		return err
	}
	if _, err := writeAll(w.fd, val); err != nil {
		return err
	}

	w.off += uint64(8 + 4 + len(key) + len(val))
	return nil
}

// write all bytes
func writeAll(w io.Writer, buf []byte) (int, error) {
	n, err := w.Write(buf)
	if err != nil {
		return 0, err
	}
	if n != len(buf) {
		return n, errShortWrite("db", n)
	}
	return n, nil
}
