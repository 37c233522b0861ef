// builder.go -- BDZ build orchestration: one build attempt (phases b-f),
// the displacement assignment, and the salt-retry loop.
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

import "math"

// Config holds the BDZ build parameters. It is immutable once passed to
// WithConfig - a Builder copies it by value.
type Config struct {
	// Gamma is the vertex-to-edge ratio m/n. Valid range is roughly
	// 1.23-1.30; higher values raise peeling success probability at the
	// cost of memory.
	Gamma float64

	// RehashLimit is the number of additional salt rounds tried after
	// the first, before giving up with ErrUnresolvable.
	RehashLimit uint32

	// Salt is the base salt; each round mixes in the round number via
	// mixSalt so a failed attempt never repeats the same hypergraph.
	Salt uint64
}

// DefaultConfig returns the recommended build parameters.
func DefaultConfig() Config {
	return Config{
		Gamma:       1.27,
		RehashLimit: 16,
		Salt:        0x0C0FFEE00D15EA5E,
	}
}

// Builder constructs a BDZ Mphf from a complete, in-memory key set. Use
// NewBuilder, optionally chain WithConfig, then call Build.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder configured with DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the builder's configuration and returns the builder,
// so calls can be chained: NewBuilder().WithConfig(cfg).Build(keys).
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// Build constructs a minimal perfect hash over 'keys'. Every key must be
// distinct; a duplicate is a hard error. An empty key set is an unchecked
// precondition violation and panics.
func (b *Builder) Build(keys [][]byte) (*Mphf, error) {
	n := len(keys)
	if n == 0 {
		panic("mph: empty key set is not supported")
	}

	if err := checkDuplicates(keys); err != nil {
		return nil, err
	}

	gamma := b.cfg.Gamma
	if gamma <= 0 {
		gamma = DefaultConfig().Gamma
	}

	for round := uint32(0); round <= b.cfg.RehashLimit; round++ {
		salt := mixSalt(b.cfg.Salt, round)
		mp, err := tryBuildBDZ(keys, n, salt, gamma)
		if err == nil {
			return mp, nil
		}
		if err != ErrUnresolvable {
			return nil, err
		}
	}

	return nil, ErrUnresolvable
}

// checkDuplicates detects duplicate keys by exact byte equality. We never
// rely on a hash-only check here: a hash collision between two distinct
// keys must not be mistaken for a duplicate.
func checkDuplicates(keys [][]byte) error {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s := string(k)
		if _, ok := seen[s]; ok {
			return ErrDuplicateKey
		}
		seen[s] = struct{}{}
	}
	return nil
}

// sentinel marks a g[] entry that has not yet been assigned during the
// reverse peel-order walk.
const gSentinel = ^uint32(0)

// tryBuildBDZ runs phases (a) through (f) of a single build attempt for a
// fixed salt. It never mutates 'keys' and never partially publishes an
// Mphf: either every edge peels and a complete, valid artifact comes back,
// or ErrUnresolvable does.
func tryBuildBDZ(keys [][]byte, n int, salt uint64, gamma float64) (*Mphf, error) {
	m := uint32(math.Ceil(gamma * float64(n)))
	if m < 1 {
		m = 1
	}

	h := deriveVertices(keys, salt, m)
	h.buildCSR()

	order := h.peel()
	if len(order) != n {
		return nil, ErrUnresolvable
	}

	g := assignDisplacements(h, order, uint32(n))

	return &Mphf{
		N:    uint64(n),
		M:    m,
		salt: salt,
		g:    g,
	}, nil
}

// assignDisplacements walks the peel order in reverse, assigning each
// pivot vertex the unique value that makes the algebraic identity
// (g[v0]+g[v1]+g[v2]) mod N == edge-id hold.
// Vertices that were never a pivot stay at 0 - that is correct
// because such a vertex's contribution to every edge it touches was
// already treated as 0 while assigning its peers.
func assignDisplacements(h *hypergraph, order []peelRecord, n uint32) []uint32 {
	g := make([]uint32, h.m)
	for i := range g {
		g[i] = gSentinel
	}

	n64 := uint64(n)
	for i := len(order) - 1; i >= 0; i-- {
		rec := order[i]
		e := rec.edge
		a, b, c := h.v0[e], h.v1[e], h.v2[e]

		var x, y, z uint32
		switch rec.pivot {
		case 0:
			x, y, z = a, b, c
		case 1:
			x, y, z = b, a, c
		default:
			x, y, z = c, a, b
		}

		gy := g[y]
		if gy == gSentinel {
			gy = 0
		}
		gz := g[z]
		if gz == gSentinel {
			gz = 0
		}

		// 64-bit accumulator: gy+gz can reach ~2*(n-1), which may not
		// fit a uint32 for n close to 2^32.
		sum := (uint64(gy) + uint64(gz)) % n64
		want := (uint64(e)%n64 + n64 - sum) % n64
		g[x] = uint32(want)
	}

	for i := range g {
		if g[i] == gSentinel {
			g[i] = 0
		}
	}
	return g
}

// bdzMPHBuilder adapts the batch Builder/Build API to the incremental
// MPHBuilder interface (Add/Freeze) that DBWriter uses (via
// NewBDZDBWriter), mirroring the shape of chdBuilder in chd.go.
type bdzMPHBuilder struct {
	cfg  Config
	keys [][]byte
}

// newBDZMPHBuilder returns an incremental BDZ builder using 'cfg'.
func newBDZMPHBuilder(cfg Config) *bdzMPHBuilder {
	return &bdzMPHBuilder{
		cfg:  cfg,
		keys: make([][]byte, 0, 1024),
	}
}

func (b *bdzMPHBuilder) Add(key []byte) error {
	cp := make([]byte, len(key))
	copy(cp, key)
	b.keys = append(b.keys, cp)
	return nil
}

func (b *bdzMPHBuilder) Freeze() (MPH, error) {
	mp, err := NewBuilder().WithConfig(b.cfg).Build(b.keys)
	if err != nil {
		return nil, err
	}
	return mp, nil
}
