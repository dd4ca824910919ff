package ibd

// SeedListThreshold bounds how many Seed records a SeedDetector buffers
// locally before handing a batch to its flush callback.
const SeedListThreshold = 2048

// Seed is a detected IBS run: two haplotypes that agree on every marker
// in [IbsStart, IbsInclEnd], with Hap1 < Hap2, and either IbsStart == 0
// or the haplotypes disagree at IbsStart-1.
type Seed struct {
	Hap1, Hap2           int
	IbsStart, IbsInclEnd int
}

// SeedDetector scans one window, advancing a PbwtState one marker at a
// time and emitting Seed records. A SeedDetector is used by exactly one
// goroutine.
type SeedDetector struct {
	panel    *GenotypePanel
	cfg      Config
	pbwt     *PbwtState
	buf      []Seed
	winStart int
}

// NewSeedDetector constructs a detector for window win over panel, with a
// fresh PbwtState initialized at win.Start.
func NewSeedDetector(panel *GenotypePanel, cfg Config, win Window) *SeedDetector {
	maxAlleles := 2
	for m := win.Start; m < win.End; m++ {
		if n := panel.NAlleles(m); n > maxAlleles {
			maxAlleles = n
		}
	}
	return &SeedDetector{
		panel:    panel,
		cfg:      cfg,
		pbwt:     NewPbwtState(panel.NHaps(), win.Start, maxAlleles),
		buf:      make([]Seed, 0, SeedListThreshold),
		winStart: win.Start,
	}
}

// tickInterval is how often (in markers) Scan calls the caller's tick
// hook, giving it a cheap opportunity to re-poll shared dispatcher state
// without paying for a function call on every single marker.
const tickInterval = 64

// Scan runs the window's full PBWT scan, calling flush each time the local
// seed buffer reaches SeedListThreshold, and once more at the end of the
// window for any remainder. flush takes ownership of the slice it is
// given; Scan never reuses it.
// tick, if non-nil, is called every tickInterval markers; a nil tick is a
// no-op, for callers (tests) that don't care about the dispatcher's
// producer/consumer phase transition.
func (d *SeedDetector) Scan(win Window, flush func(batch []Seed), tick func()) {
	maxIbsStart := win.Start - 1
	for m := win.Start; m < win.End; m++ {
		nAlleles := d.panel.NAlleles(m)
		d.pbwt.fwdUpdate(m, nAlleles, func(h int) int { return d.panel.Allele(m, h) })

		for maxIbsStart+1 <= m &&
			d.panel.GenPos(m)-d.panel.GenPos(maxIbsStart+1) >= d.cfg.MinSeed &&
			m-maxIbsStart > d.cfg.MinMarkers-1 {
			maxIbsStart++
		}

		d.emitRuns(win, m, maxIbsStart)
		if len(d.buf) >= SeedListThreshold {
			flush(d.buf)
			d.buf = make([]Seed, 0, SeedListThreshold)
		}
		if tick != nil && (m-win.Start)%tickInterval == tickInterval-1 {
			tick()
		}
	}
	if len(d.buf) > 0 {
		flush(d.buf)
		d.buf = nil
	}
}

// emitRuns walks the divergence array for maximal runs of haplotypes that
// are IBS since maxIbsStart or earlier, for the marker m just processed by
// fwdUpdate.
func (d *SeedDetector) emitRuns(win Window, m, maxIbsStart int) {
	a, dArr := d.pbwt.A(), d.pbwt.D()
	n := len(a)

	// Partition alleles at marker m+1 so pairs that still match beyond m
	// (and so do not end exactly at m) can be excluded from this round.
	nextIsWindowEnd := m+1 == win.End
	groupOf := func(h int) int {
		if nextIsWindowEnd {
			return h // pseudo-distinct: every haplotype its own group
		}
		return d.panel.Allele(m+1, h)
	}

	lo := 0
	for lo < n {
		hi := lo + 1
		for hi < n && dArr[hi] <= maxIbsStart {
			hi++
		}
		if hi-lo >= 2 {
			d.emitRun(a, dArr, lo, hi, m, groupOf)
		}
		lo = hi
	}
}

// emitRun enumerates every cross-group pair within the maximal run
// [lo, hi) of a, emitting a Seed for each that passes the cross-window
// dedup and haploid filters.
func (d *SeedDetector) emitRun(a, dArr []int, lo, hi, m int, groupOf func(int) int) {
	for i := lo; i < hi-1; i++ {
		gi := groupOf(a[i])
		runningMax := -1
		for j := i + 1; j < hi; j++ {
			if dArr[j] > runningMax {
				runningMax = dArr[j]
			}
			gj := groupOf(a[j])
			if gi == gj {
				continue
			}
			h1, h2 := a[i], a[j]
			if h1 > h2 {
				h1, h2 = h2, h1
			}
			if d.isPhantomHaploid(h1) || d.isPhantomHaploid(h2) {
				continue
			}
			ibsStart := runningMax
			if d.isWindowDuplicate(ibsStart, h1, h2) {
				continue
			}
			d.buf = append(d.buf, Seed{Hap1: h1, Hap2: h2, IbsStart: ibsStart, IbsInclEnd: m})
		}
	}
}

func (d *SeedDetector) isPhantomHaploid(h int) bool {
	return !d.panel.IsDiploid(h>>1) && h&1 == 1
}

// isWindowDuplicate reports seeds the preceding window also sees: a
// seed whose start lands at or before the window's own start, where the
// IBS run in fact continues past the window boundary, will already be (or
// will be) detected by the preceding, overlapping window.
func (d *SeedDetector) isWindowDuplicate(ibsStart, h1, h2 int) bool {
	ws := d.winStart
	if ws <= 0 || ibsStart < 1 {
		return false
	}
	if ibsStart > ws {
		return false
	}
	return d.panel.Allele(ibsStart-1, h1) == d.panel.Allele(ibsStart-1, h2)
}
