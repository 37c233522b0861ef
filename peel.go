// peel.go -- BDZ peeling: repeatedly strip hyperedges that have a
// degree-1 endpoint, recording the order and pivot so the displacement
// table can be assigned afterwards.
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

// peelRecord is one entry of the peel order: the edge that was removed and
// which of its three endpoints (0, 1 or 2) was its pivot at removal time.
type peelRecord struct {
	edge  uint32
	pivot uint8
}

// peel runs the BDZ peeling algorithm over the hypergraph in place,
// mutating h.deg. It returns the peel order; len(order) == h.n iff the
// hypergraph is fully peelable.
//
// The queue tolerates stale entries by construction: a vertex is pushed
// when its degree first reaches 1 (degrees only ever fall, so that happens
// at most once), but by the time it is popped some of its incident edges
// may already be removed or no longer have a degree-1 endpoint. We simply
// skip those edges rather than track any extra per-vertex state.
func (h *hypergraph) peel() []peelRecord {
	removed := newBitVector(uint64(h.n))

	q := make([]uint32, 0, h.m)
	for v := uint32(0); v < h.m; v++ {
		if h.deg[v] == 1 {
			q = append(q, v)
		}
	}

	order := make([]peelRecord, 0, h.n)

	for qh := 0; qh < len(q); qh++ {
		u := q[qh]

		start, end := h.off[u], h.off[u+1]
		for i := start; i < end; i++ {
			e := h.edges[i]
			if removed.IsSet(uint64(e)) {
				continue
			}

			var pivot uint8
			switch {
			case h.deg[h.v0[e]] == 1:
				pivot = 0
			case h.deg[h.v1[e]] == 1:
				pivot = 1
			case h.deg[h.v2[e]] == 1:
				pivot = 2
			default:
				// Not peelable via 'u' right now - a stale entry.
				continue
			}

			order = append(order, peelRecord{edge: e, pivot: pivot})
			removed.Set(uint64(e))

			switch pivot {
			case 0:
				h.decDeg(h.v1[e], &q)
				h.decDeg(h.v2[e], &q)
			case 1:
				h.decDeg(h.v0[e], &q)
				h.decDeg(h.v2[e], &q)
			default:
				h.decDeg(h.v0[e], &q)
				h.decDeg(h.v1[e], &q)
			}
		}
	}

	return order
}

func (h *hypergraph) decDeg(v uint32, q *[]uint32) {
	if h.deg[v] == 0 {
		return
	}
	h.deg[v]--
	if h.deg[v] == 1 {
		*q = append(*q, v)
	}
}
