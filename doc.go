// doc.go - top level documentation
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

// Package mph implements minimal perfect hash functions for large,
// static key sets:
//  1. BDZ: 3-hypergraph peeling. This is the primary algorithm here - it
//     scales past a million keys and retries automatically with a fresh
//     salt when a given hypergraph fails to peel.
//  2. CHD: Compress Hash Displace: http://cmph.sourceforge.net/papers/esa09.pdf.
//     Kept as a secondary, explicitly weaker-at-scale alternative: it
//     retries individual buckets rather than the whole build, so a
//     pathological input can force far more probe attempts than BDZ needs.
//
// A minimal perfect hash maps a known set of N distinct keys onto the
// integers [0, N) bijectively, in O(1) time, with a small dense table.
// Looking up a key that was never part of the build set returns an
// arbitrary index in [0, N) - the table carries no membership information,
// so callers that need to reject unknown keys must verify the returned
// index against their own copy of the key (the DB layer below does this
// for you).
//
// mph also exposes a convenient way to serialize keys and values into an
// on-disk single-file constant database. This is useful in situations
// where reads from such a database are far more frequent than writes.
//
// The primary user interface for the database feature is DBWriter and
// DBReader, constructed via NewBDZDBWriter or NewChdDBWriter. Each record
// added is a <key, value> pair where the key is an arbitrary byte string.
// DBWriter builds the chosen MPH and writes out a page-aligned, checksummed
// file; DBReader memory-maps that file for O(1) lookups, verifying the
// stored key on every Find() since neither MPH carries membership
// information on its own.
package mph
