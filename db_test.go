// db_test.go -- test suite for bdzdbreader/bdzdbwriter
//
// (c) Sudhi Herle 2018, 2024
//
// Author: Sudhi Herle <sudhi@herle.net>
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package mph

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"testing"
)

var keep bool

func init() {
	flag.BoolVar(&keep, "keep", false, "Keep test DB")
}

func testDB(t *testing.T, wr *DBWriter) {
	assert := newAsserter(t)

	kvmap := make(map[string]string)
	for _, s := range keyw {
		err := wr.Add([]byte(s), []byte(s))
		assert(err == nil, "can't add key %s: %s", s, err)
		kvmap[s] = s
	}

	err := wr.Freeze()
	assert(err == nil, "freeze failed: %s", err)

	rd, err := NewDBReader(wr.Filename(), 10)
	assert(err == nil, "read failed: %s", err)

	for k, v := range kvmap {
		s, err := rd.Find([]byte(k))
		assert(err == nil, "can't find key %s: %s", k, err)
		assert(string(s) == v, "key %s: value mismatch; exp '%s', saw '%s'", k, v, string(s))
	}

	// now look for keys not in the DB
	for i := 0; i < 10; i++ {
		k := fmt.Sprintf("no-such-key-%d", i)
		v, err := rd.Find([]byte(k))
		assert(err != nil, "whoa: found key %s => %s", k, string(v))
	}

	rd.Close()
}

func TestDB(t *testing.T) {
	assert := newAsserter(t)

	salt := rand.Int()
	chdFn := fmt.Sprintf("%s/chd%d.db", os.TempDir(), salt)
	bdzFn := fmt.Sprintf("%s/bdz%d.db", os.TempDir(), salt)

	cr, err := NewChdDBWriter(chdFn, 0.9)
	assert(err == nil, "can't create db %s: %s", chdFn, err)

	br, err := NewBDZDBWriter(bdzFn, DefaultConfig())
	assert(err == nil, "can't create db %s: %s", bdzFn, err)

	defer func() {
		if keep {
			t.Logf("DB in %s, %s retained after test\n", chdFn, bdzFn)
		} else {
			os.Remove(chdFn)
			os.Remove(bdzFn)
		}
	}()

	testDB(t, cr)
	testDB(t, br)
}

func TestDBKeysOnly(t *testing.T) {
	assert := newAsserter(t)

	salt := rand.Int()
	chdFn := fmt.Sprintf("%s/chd%d.db", os.TempDir(), salt)
	bdzFn := fmt.Sprintf("%s/bdz%d.db", os.TempDir(), salt)

	cr, err := NewChdDBWriter(chdFn, 0.9)
	assert(err == nil, "can't create db %s: %s", chdFn, err)

	br, err := NewBDZDBWriter(bdzFn, DefaultConfig())
	assert(err == nil, "can't create db %s: %s", bdzFn, err)

	defer func() {
		if keep {
			t.Logf("DB in %s, %s retained after test\n", chdFn, bdzFn)
		} else {
			os.Remove(chdFn)
			os.Remove(bdzFn)
		}
	}()

	testOnlyKeys(t, cr)
	testOnlyKeys(t, br)
}

func testOnlyKeys(t *testing.T, wr *DBWriter) {
	assert := newAsserter(t)

	for _, s := range keyw {
		err := wr.Add([]byte(s), nil)
		assert(err == nil, "can't add key %s: %s", s, err)
	}

	err := wr.Freeze()
	assert(err == nil, "freeze failed: %s", err)

	rd, err := NewDBReader(wr.Filename(), 10)
	assert(err == nil, "read failed: %s", err)

	for _, s := range keyw {
		v, err := rd.Find([]byte(s))
		assert(err == nil, "can't find key %s: %s", s, err)
		assert(len(v) == 0, "key %s: value mismatch; exp empty, saw '%s'", s, string(v))
	}

	// now look for keys not in the DB
	for i := 0; i < 10; i++ {
		k := fmt.Sprintf("bogus-key-%d-%d", i, rand.Int())
		v, err := rd.Find([]byte(k))
		assert(err != nil, "whoa: found key %s => %s", k, string(v))
	}

	rd.Close()
}
