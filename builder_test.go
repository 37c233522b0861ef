// builder_test.go -- test suite for the BDZ builder and its Mphf artifact
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
	"bytes"
	"crypto/rand"
	"fmt"
	"math"
	"testing"
)

func bkeys(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

// scenario 1: tiny alphabetic set
func TestBDZTinyAlphabetic(t *testing.T) {
	assert := newAsserter(t)

	keys := bkeys("apple", "banana", "cherry", "date", "elderberry")
	mp, err := NewBuilder().Build(keys)
	assert(err == nil, "build failed: %s", err)
	assert(mp.Len() == len(keys), "len mismatch; exp %d, saw %d", len(keys), mp.Len())

	seen := make(map[uint64]bool)
	for _, k := range keys {
		i := mp.Index(k)
		assert(i < uint64(len(keys)), "index %d out of range", i)
		assert(!seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
	assert(len(seen) == len(keys), "did not cover every index")
}

// scenario 2: duplicate rejection
func TestBDZDuplicateRejection(t *testing.T) {
	assert := newAsserter(t)

	_, err := NewBuilder().Build(bkeys("x", "y", "x"))
	assert(err == ErrDuplicateKey, "expected ErrDuplicateKey, saw %v", err)
}

// scenario 3: single key
func TestBDZSingleKey(t *testing.T) {
	assert := newAsserter(t)

	mp, err := NewBuilder().Build(bkeys("only"))
	assert(err == nil, "build failed: %s", err)
	assert(mp.Index([]byte("only")) == 0, "expected index 0, saw %d", mp.Index([]byte("only")))
}

// scenario 4: byte identity vs text identity
func TestBDZByteVsTextIdentity(t *testing.T) {
	assert := newAsserter(t)

	a := []byte("a")
	accent := []byte("á") // 2-byte UTF-8 "a" with acute accent

	mp, err := NewBuilder().Build([][]byte{a, accent})
	assert(err == nil, "build failed: %s", err)
	assert(mp.Len() == 2, "expected N=2, saw %d", mp.Len())
	assert(mp.IndexString("a") != mp.IndexString("á"),
		"distinct keys mapped to the same index")
}

// Perfect hashing + algebraic identity + range, over a moderately large
// random key set.
func TestBDZPerfectHashing(t *testing.T) {
	assert := newAsserter(t)

	const n = 5000
	keys := make([][]byte, n)
	seen := make(map[string]bool, n)
	for i := range keys {
		var b [16]byte
		for {
			_, err := rand.Read(b[:])
			assert(err == nil, "rand: %s", err)
			s := string(b[:])
			if !seen[s] {
				seen[s] = true
				break
			}
		}
		keys[i] = append([]byte(nil), b[:]...)
	}

	mp, err := NewBuilder().Build(keys)
	assert(err == nil, "build failed: %s", err)

	idx := make(map[uint64]bool, n)
	for _, k := range keys {
		i := mp.Index(k)
		assert(i < uint64(n), "range violation: %d >= %d", i, n)
		assert(!idx[i], "duplicate index %d", i)
		idx[i] = true

		a, b, c := vertices(k, mp.Salt(), mp.M)
		sum := (uint64(mp.g[a]) + uint64(mp.g[b]) + uint64(mp.g[c])) % mp.N
		assert(sum == i, "algebraic identity violated: sum %d != index %d", sum, i)
	}
	assert(len(idx) == n, "did not cover every index: saw %d of %d", len(idx), n)
}

// Determinism: building twice from the same inputs and config produces
// byte-identical artifacts.
func TestBDZDeterminism(t *testing.T) {
	assert := newAsserter(t)

	keys := bkeys("alfa", "bravo", "charlie", "delta", "echo", "foxtrot", "golf")
	cfg := DefaultConfig()

	mp1, err := NewBuilder().WithConfig(cfg).Build(keys)
	assert(err == nil, "build 1 failed: %s", err)

	mp2, err := NewBuilder().WithConfig(cfg).Build(keys)
	assert(err == nil, "build 2 failed: %s", err)

	assert(mp1.N == mp2.N, "N mismatch")
	assert(mp1.M == mp2.M, "M mismatch")
	assert(mp1.salt == mp2.salt, "salt mismatch")
	assert(len(mp1.g) == len(mp2.g), "g length mismatch")
	for i := range mp1.g {
		assert(mp1.g[i] == mp2.g[i], "g[%d] differs: %d vs %d", i, mp1.g[i], mp2.g[i])
	}

	for _, k := range keys {
		assert(mp1.Index(k) == mp2.Index(k), "index mismatch for %s", k)
	}
}

// Round-trip: serialize then deserialize and confirm identical indices.
func TestBDZRoundTrip(t *testing.T) {
	assert := newAsserter(t)

	keys := make([][]byte, 2000)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("roundtrip-key-%d", i))
	}

	mp, err := NewBuilder().Build(keys)
	assert(err == nil, "build failed: %s", err)

	var buf bytes.Buffer
	_, err = mp.MarshalBinary(&buf)
	assert(err == nil, "marshal failed: %s", err)

	mp2, err := unmarshalMphf(buf.Bytes())
	assert(err == nil, "unmarshal failed: %s", err)

	for _, k := range keys {
		assert(mp.Index(k) == mp2.Index(k), "index mismatch for %s after round-trip", k)
	}
}

// Self-loop: search for a salt where some key's three derived vertices are
// not all distinct, and confirm peeling/assignment still holds the
// algebraic identity for every key.
func TestBDZSelfLoop(t *testing.T) {
	assert := newAsserter(t)

	keys := bkeys("zulu", "yankee", "xray", "whiskey", "victor", "uniform", "tango")

	var found bool
	m := uint32(math.Ceil(1.27 * float64(len(keys))))
	for base := uint64(0); base < 1<<20 && !found; base++ {
		// Build only ever tries round 0 for a RehashLimit of 0, so the
		// effective salt it uses is exactly mixSalt(base, 0) - matching
		// what we probe here means a successful build is guaranteed to
		// have peeled the very hypergraph we verified self-loops.
		effSalt := mixSalt(base, 0)
		for _, k := range keys {
			a, b, c := vertices(k, effSalt, m)
			if a == b || b == c || a == c {
				found = true
				break
			}
		}
		if !found {
			continue
		}

		cfg := Config{Gamma: 1.27, RehashLimit: 0, Salt: base}
		mp, err := NewBuilder().WithConfig(cfg).Build(keys)
		if err != nil {
			// this particular salt failed to peel; look for another
			// one that both self-loops and peels
			found = false
			continue
		}

		for _, k := range keys {
			av, bv, cv := vertices(k, mp.Salt(), mp.M)
			sum := (uint64(mp.g[av]) + uint64(mp.g[bv]) + uint64(mp.g[cv])) % mp.N
			i := mp.Index(k)
			assert(sum == i, "self-loop salt %#x: algebraic identity violated for %s", effSalt, k)
		}
	}
	assert(found, "could not synthesize a self-loop within search bound")
}
