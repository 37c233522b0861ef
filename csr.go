// csr.go -- degree counting and compressed-sparse-row adjacency
// construction for the BDZ 3-hypergraph peeler.
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
	"runtime"
	"sync"
)

// hypergraph is the working state of a single BDZ build attempt: the three
// parallel vertex arrays (one entry per hyperedge / key) and the CSR
// adjacency derived from them.
type hypergraph struct {
	n  uint32 // number of hyperedges == number of keys
	m  uint32 // number of vertices
	v0 []uint32
	v1 []uint32
	v2 []uint32

	deg   []uint32 // per-vertex live degree, mutated during peeling
	off   []uint32 // off[0..m+1), CSR row offsets
	edges []uint32 // off[m] entries, CSR column (edge-id) array
}

// deriveVertices computes (v0,v1,v2) for every key. This is the one phase
// of a build attempt that is embarrassingly parallel: each key's triple
// depends only on that key, 'salt' and 'm'.
func deriveVertices(keys [][]byte, salt uint64, m uint32) *hypergraph {
	n := len(keys)
	h := &hypergraph{
		n:  uint32(n),
		m:  m,
		v0: make([]uint32, n),
		v1: make([]uint32, n),
		v2: make([]uint32, n),
	}

	if n >= minParallelKeys {
		h.deriveConcurrent(keys, salt)
	} else {
		h.deriveSerial(keys, salt, 0, n)
	}

	return h
}

// minParallelKeys is the key-count threshold above which vertex derivation
// is sharded across a worker pool. Below it, goroutine setup costs more
// than it saves.
const minParallelKeys = 20000

func (h *hypergraph) deriveSerial(keys [][]byte, salt uint64, lo, hi int) {
	for i := lo; i < hi; i++ {
		a, b, c := vertices(keys[i], salt, h.m)
		h.v0[i] = a
		h.v1[i] = b
		h.v2[i] = c
	}
}

func workerCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

func (h *hypergraph) deriveConcurrent(keys [][]byte, salt uint64) {
	ncpu := workerCount()
	n := len(keys)
	share := n / ncpu

	var wg sync.WaitGroup
	wg.Add(ncpu)
	for i := 0; i < ncpu; i++ {
		lo := i * share
		hi := lo + share
		if i == ncpu-1 {
			hi = n
		}
		go func(lo, hi int) {
			defer wg.Done()
			h.deriveSerial(keys, salt, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// buildCSR computes per-vertex degrees (phase b) and the compressed sparse
// row adjacency (phase c): off[v]..off[v+1] enumerates every edge incident
// on vertex v, including repeated entries for self-loops.
func (h *hypergraph) buildCSR() {
	m := h.m
	deg := make([]uint32, m)
	for i := uint32(0); i < h.n; i++ {
		deg[h.v0[i]]++
		deg[h.v1[i]]++
		deg[h.v2[i]]++
	}

	off := make([]uint32, m+1)
	for v := uint32(0); v < m; v++ {
		off[v+1] = off[v] + deg[v]
	}

	edges := make([]uint32, off[m])
	cur := make([]uint32, m)
	copy(cur, off[:m])

	for i := uint32(0); i < h.n; i++ {
		for _, v := range [3]uint32{h.v0[i], h.v1[i], h.v2[i]} {
			edges[cur[v]] = i
			cur[v]++
		}
	}

	h.deg = deg
	h.off = off
	h.edges = edges
}
