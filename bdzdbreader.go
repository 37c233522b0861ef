// bdzdbreader.go -- Constant DB built on top of the MPHF
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
	"os"
	"strings"

	"crypto/sha512"
	"crypto/subtle"

	"github.com/dchest/siphash"
	"github.com/hashicorp/golang-lru/arc/v2"
	"github.com/opencoff/go-mmap"
)

// DBReader represents the query interface for a previously constructed
// constant database (built using NewBDZDBWriter or NewChdDBWriter). The
// only meaningful operation on such a database is Find()/Lookup().
type DBReader struct {
	mph MPH

	cache *arc.ARCCache[string, []byte]

	flags uint32

	// memory mapped record-offset table
	offset []uint64

	// memory mapped vlen table
	vlen []uint32

	nkeys  uint64
	salt   []byte
	offtbl uint64

	// original mmap slice
	mm *mmap.Mapping
	fd *os.File
	fn string
}

// NewDBReader reads a previously constructed database in file 'fn'
// and prepares it for querying. Value records are opportunistically
// cached after reading from disk.  We retain upto 'cache' number
// of records in memory (default 128).
func NewDBReader(fn string, cache int) (rd *DBReader, err error) {
	fd, err := os.Open(fn)
	if err != nil {
		return nil, err
	}

	// Number of records to cache
	if cache <= 0 {
		cache = 128
	}

	rd = &DBReader{
		salt: make([]byte, 16),
		fd:   fd,
		fn:   fn,
	}

	var st os.FileInfo

	st, err = fd.Stat()
	if err != nil {
		return nil, fmt.Errorf("%s: can't stat: %w", fn, err)
	}

	if st.Size() < (64 + 32) {
		return nil, fmt.Errorf("%s: file too small or corrupted", fn)
	}

	var hdrb [64]byte

	_, err = io.ReadFull(fd, hdrb[:])
	if err != nil {
		return nil, fmt.Errorf("%s: can't read header: %w", fn, err)
	}

	offtbl, magic, err := rd.decodeHeader(hdrb[:], st.Size())
	if err != nil {
		return nil, err
	}

	err = rd.verifyChecksum(hdrb[:], offtbl, st.Size())
	if err != nil {
		return nil, err
	}

	// 8 + 4: record offset, value length
	tblsz := rd.nkeys * (8 + 4)

	// All metadata is now verified.
	// sanity check - even though we have verified the strong checksum
	// 64 + 32: 64 bytes of header, 32 bytes of sha trailer
	if uint64(st.Size()) < (64 + 32 + tblsz) {
		return nil, fmt.Errorf("%s: corrupt header1", fn)
	}

	rd.cache, err = arc.NewARC[string, []byte](cache)
	if err != nil {
		return nil, err
	}

	// Now, we are certain that the header, the offset-table and MPH bits are
	// all valid and uncorrupted.

	// mmap the offset table
	mmapsz := st.Size() - int64(offtbl) - 32
	mm := mmap.New(fd)

	mapping, err := mm.Map(mmapsz, int64(offtbl), mmap.PROT_READ, mmap.F_READAHEAD)
	if err != nil {
		return nil, fmt.Errorf("%s: can't mmap %d bytes at off %d: %w",
			fn, mmapsz, offtbl, err)
	}

	offsz := rd.nkeys * 8
	vlensz := rd.nkeys * 4

	bs := mapping.Bytes()
	rd.mm = mapping
	rd.offset = bsToUint64Slice(bs[:offsz])
	rd.vlen = bsToUint32Slice(bs[offsz : offsz+vlensz])

	// The MPH table starts at the next 64-bit boundary after the vlen
	// table; DBWriter pads up to that boundary before marshaling the MPH.
	mphoff := (offsz + vlensz + 7) &^ 7
	var mph MPH
	switch magic {
	case _Magic_CHD:
		mph, err = newChd(bs[mphoff:])

	case _Magic_BDZ:
		mph, err = unmarshalMphf(bs[mphoff:])

	default:
		return nil, fmt.Errorf("unknown MPH DB type '%s'", magic)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: can't unmarshal MPH index: %w", fn, err)
	}

	rd.mph = mph
	return rd, nil
}

// Len returns the size of the MPH key space: for BDZ this is exactly the
// number of keys stored; for CHD it is the size of the CHD table, which
// can exceed the number of keys.
func (rd *DBReader) Len() int {
	return int(rd.nkeys)
}

// Close closes the db
func (rd *DBReader) Close() {
	rd.mm.Unmap()
	rd.fd.Close()
	rd.cache.Purge()
	rd.salt = nil
	rd.mph = nil
	rd.fd = nil
	rd.fn = ""
}

// Lookup looks up 'key' in the table and returns the corresponding value.
// If the key is not found, value is nil and returns false.
func (rd *DBReader) Lookup(key []byte) ([]byte, bool) {
	v, err := rd.Find(key)
	if err != nil {
		return nil, false
	}

	return v, true
}

// DumpMeta dumps the metadata to io.Writer 'w'
func (rd *DBReader) DumpMeta(w io.Writer) {
	fmt.Fprintf(w, "%s", rd.Desc())

	for i := uint64(0); i < rd.nkeys; i++ {
		off := toLittleEndianUint64(rd.offset[i])
		vl := toLittleEndianUint32(rd.vlen[i])
		fmt.Fprintf(w, "  %3d: %d bytes at %#x\n", i, vl, off)
	}
}

// Desc provides a human description of the MPH db
func (rd *DBReader) Desc() string {
	var w strings.Builder

	fmt.Fprintf(&w, "MPH: %d keys, hash-salt %#x, offtbl at %#x\n",
		rd.nkeys, rd.salt, rd.offtbl)
	rd.mph.DumpMeta(&w)
	return w.String()
}

// Find looks up 'key' in the table and returns the corresponding value.
// It returns an error if the key is not found, the disk i/o failed, or
// the record checksum failed. Since neither BDZ nor CHD carry membership
// information, Find always reads the candidate record and compares its
// stored key against 'key' byte for byte before trusting the value.
func (rd *DBReader) Find(key []byte) ([]byte, error) {
	ks := string(key)
	if v, ok := rd.cache.Get(ks); ok {
		return v, nil
	}

	// We are guaranteed that: 0 <= i < rd.nkeys
	i, ok := rd.mph.Find(key)
	if !ok {
		return nil, ErrNoKey
	}

	off := toLittleEndianUint64(rd.offset[i])
	vlen := toLittleEndianUint32(rd.vlen[i])

	val, match, err := rd.decodeRecord(off, vlen, key)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrNoKey
	}

	rd.cache.Add(ks, val)
	return val, nil
}

// IterFunc iterates through every record of the MPH db and calls 'fp' on
// each. If the called function returns non-nil, iteration stops and the
// error is propagated to the caller.
func (rd *DBReader) IterFunc(fp func(k []byte, v []byte) error) error {
	for i := uint64(0); i < rd.nkeys; i++ {
		off := toLittleEndianUint64(rd.offset[i])
		vl := toLittleEndianUint32(rd.vlen[i])

		// offset 0 is the file header: an MPH slot with no record (CHD)
		if off == 0 {
			continue
		}

		key, val, err := rd.decodeRecordKV(off, vl)
		if err != nil {
			return fmt.Errorf("iter: record %d at off %#x: %w", i, off, err)
		}
		if err := fp(key, val); err != nil {
			return err
		}
	}
	return nil
}

// decodeRecord reads the full record at offset 'off' (checksum, key
// length, key and value), verifies its checksum and reports whether the
// stored key matches 'want'.
func (rd *DBReader) decodeRecord(off uint64, vlen uint32, want []byte) ([]byte, bool, error) {
	key, val, err := rd.decodeRecordKV(off, vlen)
	if err != nil {
		return nil, false, err
	}

	match := subtle.ConstantTimeCompare(key, want) == 1
	return val, match, nil
}

// decodeRecordKV reads and verifies the full record at offset 'off',
// returning the stored key and value independently of any expectation.
func (rd *DBReader) decodeRecordKV(off uint64, vlen uint32) ([]byte, []byte, error) {
	_, err := rd.fd.Seek(int64(off), 0)
	if err != nil {
		return nil, nil, err
	}

	var hdr [12]byte
	if _, err = io.ReadFull(rd.fd, hdr[:]); err != nil {
		return nil, nil, err
	}

	be := binary.BigEndian
	csum := be.Uint64(hdr[:8])
	klen := be.Uint32(hdr[8:12])

	body := make([]byte, uint64(klen)+uint64(vlen))
	if _, err = io.ReadFull(rd.fd, body); err != nil {
		return nil, nil, err
	}

	var o [8]byte
	be.PutUint64(o[:], off)

	h := siphash.New(rd.salt)
	h.Write(o[:])
	h.Write(hdr[8:12])
	h.Write(body)
	exp := h.Sum64()

	if csum != exp {
		return nil, nil, fmt.Errorf("%s: corrupted record at off %d (exp %#x, saw %#x)", rd.fn, off, exp, csum)
	}

	return body[:klen], body[klen:], nil
}

// Verify checksum of all metadata: offset table, MPH bits and the file header.
// We know that offtbl is within the size bounds of the file - see decodeHeader() below.
// sz is the actual file size (includes the header we already read)
func (rd *DBReader) verifyChecksum(hdrb []byte, offtbl uint64, sz int64) error {
	h := sha512.New512_256()
	h.Write(hdrb[:])

	// remsz is the size of the remaining metadata (which begins at offset 'offtbl')
	// 32 bytes of SHA512_256 and the values already recorded.
	remsz := sz - int64(offtbl) - 32

	rd.fd.Seek(int64(offtbl), 0)

	nw, err := io.CopyN(h, rd.fd, remsz)
	if err != nil {
		return fmt.Errorf("%s: metadata i/o error: %w", rd.fn, err)
	}
	if nw != remsz {
		return fmt.Errorf("%s: partial read while verifying checksum, exp %d, saw %d", rd.fn, remsz, nw)
	}

	var expsum [32]byte

	// Read the trailer -- which is the expected checksum
	rd.fd.Seek(sz-32, 0)
	_, err = io.ReadFull(rd.fd, expsum[:])
	if err != nil {
		return fmt.Errorf("%s: checksum i/o error: %w", rd.fn, err)
	}

	csum := h.Sum(nil)
	if subtle.ConstantTimeCompare(csum[:], expsum[:]) != 1 {
		return fmt.Errorf("%s: checksum failure; exp %#x, saw %#x", rd.fn, expsum[:], csum[:])
	}

	rd.fd.Seek(int64(offtbl), 0)
	return nil
}

// entry condition: b is 64 bytes long.
func (rd *DBReader) decodeHeader(b []byte, sz int64) (uint64, string, error) {
	magic := string(b[:4])
	switch magic {
	case _Magic_CHD, _Magic_BDZ:

	default:
		return 0, "", fmt.Errorf("%s: bad file magic <%s>", rd.fn, magic)
	}

	be := binary.BigEndian
	i := 4

	rd.flags = be.Uint32(b[i : i+4])
	i += 4

	rd.salt = b[i : i+16]
	i += 16
	rd.nkeys = be.Uint64(b[i : i+8])
	i += 8
	rd.offtbl = be.Uint64(b[i : i+8])

	if rd.offtbl < 64 || rd.offtbl >= uint64(sz-32) {
		return 0, "", fmt.Errorf("%s: corrupt header0", rd.fn)
	}

	return rd.offtbl, magic, nil
}
