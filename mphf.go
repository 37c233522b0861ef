// mphf.go -- the BDZ minimal perfect hash artifact and its query path.
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
	"fmt"
	"io"
)

// Mphf is an immutable minimal perfect hash built by Builder.Build. It maps
// every key in its build set to a unique index in [0, N) and is safe to
// query concurrently from any number of goroutines - Index is a pure,
// side-effect-free function of (key, salt, m, g).
type Mphf struct {
	N    uint64   // number of keys
	M    uint32   // number of hypergraph vertices == len(g)
	salt uint64   // effective salt used for this build
	g    []uint32 // displacement table, len == M, values in [0, N)
}

// Len returns the number of keys this Mphf was built over.
func (m *Mphf) Len() int {
	return int(m.N)
}

// Salt returns the effective salt used to derive this Mphf's vertices -
// needed by callers that want to reproduce vertices() independently (e.g.
// for diagnostics), and by MarshalBinary.
func (m *Mphf) Salt() uint64 {
	return m.salt
}

// Index returns the unique index in [0, N) for 'key'. For a key that was
// in the original build set, this is its assigned position. For any other
// key, the result is an arbitrary value in [0, N) - the Mphf carries no
// membership information, so distinguishing member from non-member keys
// is the caller's responsibility.
func (m *Mphf) Index(key []byte) uint64 {
	a, b, c := vertices(key, m.salt, m.M)

	// Each g[v] < N <= 2^32, so the three-way sum can reach ~3*(2^32-1)
	// and must accumulate in a wider-than-32-bit register before the
	// final reduction.
	sum := uint64(m.g[a]) + uint64(m.g[b]) + uint64(m.g[c])
	return sum % m.N
}

// IndexString is a convenience wrapper around Index for text keys.
func (m *Mphf) IndexString(s string) uint64 {
	return m.Index([]byte(s))
}

// Find implements the MPH interface for the DB layer. It is total: it
// always returns ok == true, because BDZ lookups never fail - they just
// may not mean anything for a key outside the original set.
func (m *Mphf) Find(key []byte) (uint64, bool) {
	return m.Index(key), true
}

// DumpMeta writes a human-readable summary of this Mphf to 'w'.
func (m *Mphf) DumpMeta(w io.Writer) {
	fmt.Fprintf(w, "BDZ: salt %#x; %d keys, %d vertices (gamma %.3f)\n",
		m.salt, m.N, m.M, float64(m.M)/float64(m.N))
}
