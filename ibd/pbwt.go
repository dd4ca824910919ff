package ibd

import "github.com/browning-lab/hap-ibd-sub001/circular"

// PbwtState is the mutable positional Burrows-Wheeler transform sort
// state: a permutation array and a divergence array over haplotype
// indices, advanced one marker at a time. A PbwtState
// is owned by a single worker for that worker's lifetime; it is not safe
// for concurrent use.
type PbwtState struct {
	a []int // a[k]: haplotype index at sorted rank k
	d []int // d[k]: divergence of a[k] from its left neighbor a[k-1]

	// scratch buckets, reused across fwdUpdate calls to avoid per-marker
	// allocation.
	bucketA    [][]int
	bucketD    [][]int
	bucketSize []int
}

// NewPbwtState constructs the identity PBWT state for a window starting at
// marker ws: a[k] = k, d[k] = ws. nHaps is 2N;
// maxAlleles bounds the per-marker allele count so bucket scratch space can
// be preallocated once.
func NewPbwtState(nHaps, ws, maxAlleles int) *PbwtState {
	s := &PbwtState{
		a: make([]int, nHaps),
		d: make([]int, nHaps),
	}
	for k := 0; k < nHaps; k++ {
		s.a[k] = k
		s.d[k] = ws
	}
	bucketCap := circular.NextExp2(nHaps)
	if maxAlleles < 1 {
		maxAlleles = 1
	}
	s.bucketA = make([][]int, maxAlleles)
	s.bucketD = make([][]int, maxAlleles)
	s.bucketSize = make([]int, maxAlleles)
	for v := range s.bucketA {
		s.bucketA[v] = make([]int, bucketCap)
		s.bucketD[v] = make([]int, bucketCap)
	}
	return s
}

// A returns the current permutation array. The returned slice is owned by
// the PbwtState and must not be retained past the next fwdUpdate call.
func (s *PbwtState) A() []int { return s.a }

// D returns the current divergence array, under the same aliasing rules as
// A.
func (s *PbwtState) D() []int { return s.d }

// growBuckets ensures bucket v has capacity for at least n entries.
func (s *PbwtState) growBuckets(v, n int) {
	if cap(s.bucketA[v]) < n {
		s.bucketA[v] = make([]int, n)
		s.bucketD[v] = make([]int, n)
	}
}

// fwdUpdate advances the PBWT by marker m, whose alleles are supplied by
// allele(h) for h in [0, len(a)) and whose allele count is nAlleles.
// Haplotypes are stably partitioned, in current a-order, into nAlleles
// buckets by their allele at m; a bucket's first element receives the
// sentinel divergence m+1, and every later element receives the maximum
// divergence seen anywhere in the old order since that bucket's previous
// member.
func (s *PbwtState) fwdUpdate(m int, nAlleles int, allele func(h int) int) {
	n := len(s.a)
	if nAlleles > len(s.bucketA) {
		// Defensive: a marker with more alleles than NewPbwtState was
		// told to expect. Grow scratch in place rather than drop data.
		for v := len(s.bucketA); v < nAlleles; v++ {
			s.bucketA = append(s.bucketA, nil)
			s.bucketD = append(s.bucketD, nil)
			s.bucketSize = append(s.bucketSize, 0)
		}
	}
	for v := 0; v < nAlleles; v++ {
		s.growBuckets(v, n)
		s.bucketSize[v] = 0
	}

	// runningMax[v] holds the largest d[k] seen, over old-order ranks,
	// since bucket v last received an element (sentinel m+1 until its
	// first). Every step folds the current rank's divergence into every
	// bucket's tracker before the current rank's own bucket consumes and
	// resets its tracker: a later element of bucket v must see every
	// mismatch that occurred anywhere in the old order since v's last
	// member, including the one immediately preceding it.
	runningMax := make([]int, nAlleles)
	sentinel := m + 1
	for v := range runningMax {
		runningMax[v] = sentinel
	}
	for k := 0; k < n; k++ {
		h := s.a[k]
		v := allele(h)
		dk := s.d[k]
		for u := 0; u < nAlleles; u++ {
			if dk > runningMax[u] {
				runningMax[u] = dk
			}
		}
		dNew := runningMax[v]
		idx := s.bucketSize[v]
		s.bucketA[v][idx] = h
		s.bucketD[v][idx] = dNew
		s.bucketSize[v] = idx + 1
		runningMax[v] = 0
	}

	k := 0
	for v := 0; v < nAlleles; v++ {
		cnt := s.bucketSize[v]
		copy(s.a[k:k+cnt], s.bucketA[v][:cnt])
		copy(s.d[k:k+cnt], s.bucketD[v][:cnt])
		k += cnt
	}
}
