// hash.go -- keyed hash and vertex derivation shared by the BDZ and CHD
// minimal perfect hash builders.
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
	"github.com/dchest/siphash"
)

// Fixed odd mixing constants used to derive three independent vertex
// indices from a single keyed hash. These must never change without also
// bumping the on-disk format version: every previously built Mphf would
// otherwise silently start returning wrong indices.
const (
	vertexC1 uint64 = 0x9E3779B97F4A7C15
	vertexC2 uint64 = 0xA24B1F6F
	vertexC3 uint64 = 0x853C49E60A6C9D39
)

// keyedHash computes a 64-bit keyed, non-cryptographic hash of 'key' under
// 'salt'. We reuse siphash (already a dependency for DB record checksums)
// rather than add a second hash library: its 128-bit key is derived from
// the 64-bit salt by pairing it with its own avalanche-mixed value, so two
// different salts can never collide on the same siphash key.
func keyedHash(key []byte, salt uint64) uint64 {
	k0 := salt
	k1 := mix(salt)
	return siphash.Hash(k0, k1, key)
}

// vertices derives the three hyperedge endpoints for 'key' under 'salt' in
// a graph of 'm' vertices. The builder and the query path call this exact
// function so that they remain bit-for-bit compatible.
func vertices(key []byte, salt uint64, m uint32) (uint32, uint32, uint32) {
	base := keyedHash(key, salt)

	x1 := mix(base ^ vertexC1)
	x2 := mix(base + vertexC2)
	x3 := mix(base ^ vertexC3)

	mm := uint64(m)
	return uint32(x1 % mm), uint32(x2 % mm), uint32(x3 % mm)
}

// mixSalt deterministically derives the effective salt for rehash round
// 'round' from a base salt. Round 0 always yields a value distinct from
// 'base' so the very first attempt already uses a fresh hash distribution.
func mixSalt(base uint64, round uint32) uint64 {
	const (
		fnvOffset uint64 = 0xcbf29ce484222325
		fnvPrime  uint64 = 0x100000001b3
	)

	h := fnvOffset ^ base
	h ^= uint64(round)
	h *= fnvPrime
	return h ^ (h >> 33)
}
