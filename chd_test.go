// chd_test.go -- test suite for chd
//
// (c) Sudhi Herle 2018
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
	"testing"
)

func TestCHDSimple(t *testing.T) {
	assert := newAsserter(t)

	c, err := NewChdBuilder(0.9)
	assert(err == nil, "construction failed: %s", err)

	for _, s := range keyw {
		err = c.Add([]byte(s))
		assert(err == nil, "add %s: %s", s, err)
	}

	lookup, err := c.Freeze()
	assert(err == nil, "freeze: %s", err)
	nkeys := uint64(lookup.Len())

	kmap := make(map[uint64]string) // map of index to source key
	for _, s := range keyw {
		j, ok := lookup.Find([]byte(s))
		assert(ok, "can't find key %s", s)
		assert(j < nkeys, "key %s mapping %d out-of-bounds", s, j)

		x, ok := kmap[j]
		assert(!ok, "index %d already mapped to key %s", j, x)

		kmap[j] = s
	}
}

func TestCHDMarshal(t *testing.T) {
	assert := newAsserter(t)

	b, err := NewChdBuilder(0.9)
	assert(err == nil, "construction failed: %s", err)

	for _, s := range keyw {
		err = b.Add([]byte(s))
		assert(err == nil, "add %s: %s", s, err)
	}

	c, err := b.Freeze()
	assert(err == nil, "freeze failed: %s", err)

	var buf bytes.Buffer

	_, err = c.MarshalBinary(&buf)
	assert(err == nil, "marshal failed: %s", err)

	mp, err := newChd(buf.Bytes())
	assert(err == nil, "unmarshal failed: %s", err)

	for i, s := range keyw {
		k := []byte(s)
		x, ok := c.Find(k)
		assert(ok, "can't find key[%d] %s in c", i, s)
		y, ok := mp.Find(k)
		assert(ok, "can't find key[%d] %s in mp", i, s)
		assert(x == y, "c and mp mapped key %d <%s>: %d vs. %d", i, s, x, y)
	}
}
