package ibd

import "math"

// Segment is an accepted, extended IBD or HBD interval over panel marker
// indices, normalized so Hap1 < Hap2.
type Segment struct {
	Hap1, Hap2 int
	Start, End int // marker indices, inclusive
}

// SeedExtender extends Seed records across short mismatch gaps and filters
// the result by min-output length. A SeedExtender may
// be shared read-only across goroutines: it holds no mutable state beyond
// its config and panel reference.
type SeedExtender struct {
	panel *GenotypePanel
	cfg   Config
}

// NewSeedExtender constructs an extender bound to panel and cfg.
func NewSeedExtender(panel *GenotypePanel, cfg Config) *SeedExtender {
	return &SeedExtender{panel: panel, cfg: cfg}
}

// Extend applies extendInclEnd and extendStart to seed and reports whether
// the result survives the min-output length filter. ok is false
// either because extendStart discovered a duplicate preceding seed (and
// the whole seed must be dropped) or because the final length falls short
// of min-output.
func (x *SeedExtender) Extend(seed Seed) (seg Segment, ok bool) {
	e := x.extendInclEnd(seed.Hap1, seed.Hap2, seed.IbsInclEnd)
	s, drop := x.extendStart(seed.Hap1, seed.Hap2, seed.IbsStart)
	if drop {
		return Segment{}, false
	}
	if x.panel.GenPos(e)-x.panel.GenPos(s) < x.cfg.MinOutput {
		return Segment{}, false
	}
	return Segment{Hap1: seed.Hap1, Hap2: seed.Hap2, Start: s, End: e}, true
}

// extendInclEnd performs the rightward extension: skip
// forward across matching markers, then attempt one gap-jump, repeating
// until a call does not advance e.
func (x *SeedExtender) extendInclEnd(h1, h2, e int) int {
	m := x.panel.NMarkers()
	for {
		prev := e
		for e+1 <= m-1 && x.panel.Allele(e+1, h1) == x.panel.Allele(e+1, h2) {
			e++
		}
		if x.cfg.MaxGap >= 0 {
			e = x.nextInclEnd(h1, h2, e)
		}
		if e == prev {
			return e
		}
	}
}

// nextInclEnd attempts one rightward gap-jump from e, whose successor e+1
// is the first mismatch. It returns e unchanged if no qualifying run of
// matches follows within max-gap base pairs.
func (x *SeedExtender) nextInclEnd(h1, h2, e int) int {
	mLast := x.panel.NMarkers() - 1
	if e+1 > mLast {
		return e
	}
	anchor := e + 1
	lastMism := anchor
	limit := anchor
	for limit+1 <= mLast && x.panel.Pos(limit+1)-x.panel.Pos(anchor) <= x.cfg.MaxGap {
		limit++
		if x.panel.Allele(limit, h1) != x.panel.Allele(limit, h2) {
			lastMism = limit
		}
	}
	runStart, runEnd := lastMism+1, limit
	if runEnd < runStart {
		return e
	}
	markers := runEnd - runStart + 1
	cmLen := x.panel.GenPos(runEnd) - x.panel.GenPos(runStart)
	if cmLen >= x.cfg.MinExtend && markers >= extendMarkerFloor(x.cfg) {
		return runEnd
	}
	return e
}

// extendStart performs the leftward extension. drop is
// true when the discovered preceding match-run itself meets the seed
// criteria: the current seed duplicates one that is independently emitted
// from that earlier position (the earlier seed's own rightward extension
// reaches the same endpoint), so the caller must discard it entirely.
func (x *SeedExtender) extendStart(h1, h2, s int) (newS int, drop bool) {
	for {
		prev := s
		for s-1 >= 0 && x.panel.Allele(s-1, h1) == x.panel.Allele(s-1, h2) {
			s--
		}
		if x.cfg.MaxGap < 0 {
			return s, false
		}
		next, d := x.prevInclStart(h1, h2, s)
		if d {
			return s, true
		}
		s = next
		if s == prev {
			return s, false
		}
	}
}

// prevInclStart attempts one leftward gap-jump from s, whose predecessor
// s-1 is the first mismatch going left.
func (x *SeedExtender) prevInclStart(h1, h2, s int) (int, bool) {
	if s-1 < 0 {
		return s, false
	}
	anchor := s - 1
	lastMism := anchor
	limit := anchor
	for limit-1 >= 0 && x.panel.Pos(anchor)-x.panel.Pos(limit-1) <= x.cfg.MaxGap {
		limit--
		if x.panel.Allele(limit, h1) != x.panel.Allele(limit, h2) {
			lastMism = limit
		}
	}
	runStart, runEnd := limit, lastMism-1
	if runEnd < runStart {
		return s, false
	}
	markers := runEnd - runStart + 1
	cmLen := x.panel.GenPos(runEnd) - x.panel.GenPos(runStart)
	if cmLen >= x.cfg.MinSeed && markers >= x.cfg.MinMarkers {
		return s, true
	}
	if cmLen >= x.cfg.MinExtend && markers >= extendMarkerFloor(x.cfg) {
		return runStart, false
	}
	return s, false
}

// extendMarkerFloor is the marker-count floor for an accepted extension
// run, scaled from min-markers by the min-extend/min-seed ratio.
func extendMarkerFloor(cfg Config) int {
	return int(math.Floor(cfg.MinExtend/cfg.MinSeed*float64(cfg.MinMarkers))) - 1
}
