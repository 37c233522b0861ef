// mph.go - Minimal perfect hash function interfaces
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
	"io"
)

// MPHBuilder is the common interface for constructing a MPH incrementally,
// one key at a time, from an arbitrary byte-string key space. This is the
// shape the on-disk DB layer (DBWriter) needs, since it discovers keys
// one record at a time rather than all at once.
//
// The BDZ algorithm itself is better served by Builder.Build, which takes
// the whole key set at once - BDZ must see every key before it can choose
// a vertex count and attempt peeling. bdzMPHBuilder (in builder.go) adapts
// that batch API to this incremental interface.
type MPHBuilder interface {
	// Add a new key
	Add(key []byte) error

	// Freeze the DB
	Freeze() (MPH, error)
}

// MPH is the read-side interface common to every minimal perfect hash this
// package builds.
type MPH interface {
	// Marshal the MPH into io.Writer 'w'; the writer is
	// guaranteed to start at a uint64 aligned boundary
	MarshalBinary(w io.Writer) (int, error)

	// Find the key and return a 0 based index - a perfect hash index.
	// BDZ and CHD lookups are both total: every byte string maps to some
	// index in [0, N), so Find always reports ok == true. Neither table
	// carries membership information - the DB layer verifies the key
	// itself on lookup.
	Find(key []byte) (uint64, bool)

	// Dump metadata about the constructed MPH to io.writer 'w'
	DumpMeta(w io.Writer)

	// Return number of entries in the MPH
	Len() int
}

// bdz and chd both must satisfy these two interfaces
var _ MPHBuilder = &chdBuilder{}
var _ MPH = &chd{}

var _ MPHBuilder = &bdzMPHBuilder{}
var _ MPH = &Mphf{}
