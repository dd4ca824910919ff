package ibd

import "sort"

// RecordIterator is the contract for a phased-genotype record source;
// decoding the underlying file format is the implementation's concern
// (ibd/vcfio implements this interface over VCF.gz). Scan advances to the
// next marker and reports whether one was available; Err reports any
// error encountered during iteration, checked once Scan returns false.
type RecordIterator interface {
	// Scan advances to the next marker record. It returns false at EOF or
	// on error; call Err to distinguish the two.
	Scan() bool
	// Chrom returns the current record's chromosome name.
	Chrom() string
	// Pos returns the current record's base-pair position.
	Pos() int
	// NAlleles returns the number of distinct alleles at the current
	// marker (>= 2).
	NAlleles() int
	// Allele returns the allele carried by haplotype h (0 <= h < 2N) at
	// the current marker.
	Allele(h int) int
	// Samples returns the panel's sample identifiers, in haplotype-pair
	// order; valid once the first record has been scanned.
	Samples() []string
	// IsDiploid reports whether sample s contributes two haplotypes.
	// Haploid samples contribute only haplotype 2*s; haplotype 2*s+1 is
	// a phantom that must never appear in output.
	IsDiploid(s int) bool
	// Err returns the first error encountered by Scan, or nil.
	Err() error
}

// GeneticMap is the contract for genetic-position lookup (ibd/gmap
// implements it from a PLINK map file). CMPos returns the genetic
// position, in centiMorgans, of a base-pair position on the given
// chromosome.
type GeneticMap interface {
	CMPos(chrom string, bp int) float64
}

// GenotypePanel is a read-only, random-access view of a per-chromosome
// matrix of phased alleles. It is built once per chromosome and shared
// read-only across every window's worker.
type GenotypePanel struct {
	chrom      string
	pos        []int     // pos[m]: base-pair position, strictly increasing
	genPos     []float64 // genPos[m]: genetic position in cM, non-decreasing
	nAlleles   []int     // nAlleles[m] >= 2
	alleles    [][]int8  // alleles[m][h]
	samples    []string  // samples[s]
	diploid    []bool    // diploid[s]
	nHaps      int       // 2 * len(samples)
	minMAC     int
}

// NewGenotypePanel reads every remaining marker from it, drops markers
// whose minor allele count is below minMAC, and returns the resulting
// panel. Markers must arrive in increasing base-pair order on a single
// chromosome; a decrease, or a chromosome change mid-stream, is an
// InputError. Multi-chromosome streams go through a PanelReader instead.
func NewGenotypePanel(it RecordIterator, gmap GeneticMap, minMAC int) (*GenotypePanel, error) {
	r := NewPanelReader(it, gmap, minMAC)
	p, err := r.Next()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, InputErrorf(nil, "genotype stream has no records")
	}
	if r.pending {
		return nil, InputErrorf(nil, "record chromosome %q does not match panel chromosome %q", it.Chrom(), p.chrom)
	}
	return p, nil
}

// PanelReader builds successive per-chromosome panels from one record
// stream. The stream's chromosomes must each be contiguous; a chromosome
// change ends the current panel and starts the next.
type PanelReader struct {
	it      RecordIterator
	gmap    GeneticMap
	minMAC  int
	pending bool // it holds a scanned record not yet consumed
}

// NewPanelReader wraps it for per-chromosome panel construction.
func NewPanelReader(it RecordIterator, gmap GeneticMap, minMAC int) *PanelReader {
	return &PanelReader{it: it, gmap: gmap, minMAC: minMAC}
}

// Next builds the next chromosome's panel. It returns (nil, nil) once the
// stream is exhausted.
func (r *PanelReader) Next() (*GenotypePanel, error) {
	p := &GenotypePanel{minMAC: r.minMAC}
	lastPos := -1
	for {
		if !r.pending && !r.it.Scan() {
			break
		}
		r.pending = false
		it := r.it
		chrom := it.Chrom()
		if p.chrom == "" {
			p.chrom = chrom
			p.samples = append([]string(nil), it.Samples()...)
			p.nHaps = 2 * len(p.samples)
			p.diploid = make([]bool, len(p.samples))
			for s := range p.samples {
				p.diploid[s] = it.IsDiploid(s)
			}
		} else if chrom != p.chrom {
			// First record of the next chromosome: hold it for the next
			// Next call.
			r.pending = true
			break
		}
		bp := it.Pos()
		if bp <= lastPos {
			return nil, InputErrorf(nil, "marker positions must strictly increase: %d after %d", bp, lastPos)
		}
		lastPos = bp

		n := it.NAlleles()
		if n < 2 {
			return nil, InputErrorf(nil, "marker at %s:%d has fewer than 2 alleles", chrom, bp)
		}
		row := make([]int8, p.nHaps)
		for h := 0; h < p.nHaps; h++ {
			a := it.Allele(h)
			if a < 0 || a >= n {
				return nil, InputErrorf(nil, "marker at %s:%d: haplotype %d has out-of-range allele %d", chrom, bp, h, a)
			}
			row[h] = int8(a)
		}
		if !macAtLeast(row, n, r.minMAC) {
			continue
		}
		p.pos = append(p.pos, bp)
		p.genPos = append(p.genPos, r.gmap.CMPos(chrom, bp))
		p.nAlleles = append(p.nAlleles, n)
		p.alleles = append(p.alleles, row)
	}
	if err := r.it.Err(); err != nil {
		return nil, err
	}
	if p.chrom == "" {
		return nil, nil
	}
	if len(p.pos) == 0 {
		return nil, InputErrorf(nil, "no markers survived min-mac filtering for chromosome %q", p.chrom)
	}
	return p, nil
}

// macAtLeast reports whether the minor allele count (the second-most
// frequent allele's count) of row is >= minMAC.
func macAtLeast(row []int8, nAlleles, minMAC int) bool {
	counts := make([]int, nAlleles)
	for _, a := range row {
		counts[a]++
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	if len(counts) < 2 {
		return false
	}
	return counts[1] >= minMAC
}

// Chrom returns the panel's chromosome.
func (p *GenotypePanel) Chrom() string { return p.chrom }

// NMarkers returns the number of markers M retained in the panel.
func (p *GenotypePanel) NMarkers() int { return len(p.pos) }

// NHaps returns the haplotype count 2N.
func (p *GenotypePanel) NHaps() int { return p.nHaps }

// Pos returns pos[m].
func (p *GenotypePanel) Pos(m int) int { return p.pos[m] }

// GenPos returns genPos[m], in cM.
func (p *GenotypePanel) GenPos(m int) float64 { return p.genPos[m] }

// NAlleles returns nAlleles[m].
func (p *GenotypePanel) NAlleles(m int) int { return p.nAlleles[m] }

// Allele returns allele(m, h).
func (p *GenotypePanel) Allele(m, h int) int { return int(p.alleles[m][h]) }

// IsDiploid reports whether sample s contributes two real haplotypes.
func (p *GenotypePanel) IsDiploid(s int) bool { return p.diploid[s] }

// SampleID returns the identifier of haplotype h's sample.
func (p *GenotypePanel) SampleID(h int) string { return p.samples[h>>1] }

// MaxAlleles returns the largest nAlleles[m] over the whole panel, used to
// size a PbwtState's bucket scratch once per chromosome.
func (p *GenotypePanel) MaxAlleles() int {
	max := 2
	for _, n := range p.nAlleles {
		if n > max {
			max = n
		}
	}
	return max
}

// GenPosUpperBound returns the smallest marker index m such that
// p.GenPos(m) >= target, or NMarkers() if no such marker exists.
func (p *GenotypePanel) GenPosUpperBound(target float64) int {
	return sort.Search(len(p.genPos), func(m int) bool { return p.genPos[m] >= target })
}
