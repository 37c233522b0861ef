// errors.go - public errors exposed by mph
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
	"errors"
	"fmt"
)

func errShortWrite(who string, n int) error {
	return fmt.Errorf("%s: incomplete write; wrote %d bytes", who, n)
}

var (
	// ErrDuplicateKey is returned by Builder.Build (and so by the BDZ
	// MPHBuilder's Freeze) when two input keys are byte-identical.
	ErrDuplicateKey = errors.New("mph: duplicate key")

	// ErrUnresolvable is returned when a BDZ build exhausts RehashLimit+1
	// salts without finding a peelable hypergraph. Callers should raise
	// Gamma or RehashLimit and retry. A CHD build that exhausts its seed
	// budget for some bucket returns a separate error, not this one.
	ErrUnresolvable = errors.New("mph: could not resolve a perfect hash for this key set")

	// ErrSerde wraps errors returned when unmarshalling a previously
	// serialized Mphf or chd fails to round-trip - an unsupported version
	// byte or a displacement/seed table that doesn't match its header.
	ErrSerde = errors.New("mph: serialization error")

	// ErrMPHFail is a generic MPH build-failure error. No builder in this
	// package returns it: BDZ build failures are reported as ErrUnresolvable.
	ErrMPHFail = errors.New("failed to build MPH")

	// ErrFrozen is returned when attempting to add new records to an already frozen DB
	// It is also returned when trying to freeze a DB that's already frozen.
	ErrFrozen = errors.New("DB already frozen")

	// ErrValueTooLarge is returned if the value-length is larger than 2^32-1 bytes
	ErrValueTooLarge = errors.New("value is larger than 2^32-1 bytes")

	// ErrExists is returned if a duplicate key is added to the DB
	ErrExists = errors.New("key exists in DB")

	// ErrNoKey is returned when a key cannot be found in the DB
	ErrNoKey = errors.New("No such key")

	// Header too small for unmarshalling
	ErrTooSmall = errors.New("not enough data to unmarshal")
)
