// Package vcfio implements ibd.RecordIterator over a gzipped VCF text
// stream of phased genotypes: a bufio.Scanner wrapped in a small state
// machine exposing Scan()/Err() plus per-field accessors, rather than
// returning a decoded record struct from Scan itself.
package vcfio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/browning-lab/hap-ibd-sub001/ibd"
)

// mandatoryCols is the count of fixed VCF columns preceding the first
// sample column: CHROM POS ID REF ALT QUAL FILTER INFO FORMAT.
const mandatoryCols = 9

// Scanner reads a phased VCF stream and implements ibd.RecordIterator.
// It is not safe for concurrent use.
type Scanner struct {
	b   *bufio.Scanner
	err error

	samples  []string
	diploid  []bool
	nHaps    int
	keep     []bool // keep[s]: sample s survives excludesamples

	chrom    string
	pos      int
	nAlleles int
	alleles  []int8
}

// ReadExcludeSamples reads one sample ID per line from r.
func ReadExcludeSamples(r io.Reader) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// NewScanner wraps gz, a gzipped (or block-gzipped) VCF byte stream.
// exclude, if non-nil, names samples to drop from the panel.
func NewScanner(gz io.Reader, exclude map[string]struct{}) (*Scanner, error) {
	zr, err := gzip.NewReader(gz)
	if err != nil {
		return nil, ibd.IOErrorf(err, "vcf.gz")
	}
	s := &Scanner{b: bufio.NewScanner(zr)}
	s.b.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	if err := s.readHeader(exclude); err != nil {
		return nil, err
	}
	return s, nil
}

// readHeader consumes ## metadata lines and the #CHROM header line,
// populating the sample list.
func (s *Scanner) readHeader(exclude map[string]struct{}) error {
	for s.b.Scan() {
		line := s.b.Text()
		if strings.HasPrefix(line, "##") {
			continue
		}
		if !strings.HasPrefix(line, "#CHROM") {
			return ibd.InputErrorf(nil, "expected #CHROM header line, found %q", truncate(line))
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= mandatoryCols {
			return ibd.InputErrorf(nil, "VCF header names no samples")
		}
		for _, id := range fields[mandatoryCols:] {
			_, excluded := exclude[id]
			s.keep = append(s.keep, !excluded)
			if !excluded {
				s.samples = append(s.samples, id)
			}
		}
		s.diploid = make([]bool, len(s.samples))
		s.nHaps = 2 * len(s.samples)
		s.alleles = make([]int8, s.nHaps)
		return nil
	}
	if err := s.b.Err(); err != nil {
		return ibd.IOErrorf(err, "vcf.gz")
	}
	return ibd.InputErrorf(nil, "VCF stream has no header")
}

// Scan advances to the next marker line with at least two alleles,
// skipping monomorphic sites (ALT == ".") entirely rather than treating
// them as malformed, and decodes its phased genotypes. It returns false
// at EOF or on the first decode error; check Err afterward.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.b.Scan() {
		line := s.b.Text()
		if line == "" {
			continue
		}
		ok, skip, err := s.decodeLine(line)
		if err != nil {
			s.err = err
			return false
		}
		if skip {
			continue
		}
		if ok {
			return true
		}
	}
	s.err = s.b.Err()
	return false
}

func (s *Scanner) decodeLine(line string) (ok, skip bool, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) < mandatoryCols+1 {
		return false, false, ibd.InputErrorf(nil, "VCF record has fewer than %d columns", mandatoryCols+1)
	}
	chrom, posStr, alt := fields[0], fields[1], fields[4]
	if alt == "." {
		return false, true, nil
	}
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return false, false, ibd.InputErrorf(err, "invalid POS %q", posStr)
	}
	altCount := strings.Count(alt, ",") + 1
	nAlleles := 1 + altCount

	format := strings.Split(fields[mandatoryCols-1], ":")
	gtIdx := -1
	for i, f := range format {
		if f == "GT" {
			gtIdx = i
			break
		}
	}
	if gtIdx < 0 {
		return false, false, ibd.InputErrorf(nil, "VCF record FORMAT column has no GT subfield")
	}
	sampleCols := fields[mandatoryCols:]
	s.chrom, s.pos, s.nAlleles = chrom, pos, nAlleles
	h := 0
	for i, sc := range sampleCols {
		if i >= len(s.keep) {
			break
		}
		if !s.keep[i] {
			continue
		}
		sub := strings.SplitN(sc, ":", gtIdx+2)
		if gtIdx >= len(sub) {
			return false, false, ibd.InputErrorf(nil, "sample %d missing GT subfield", i)
		}
		gt := sub[gtIdx]
		a1, a2, diploid, perr := parseGT(gt, nAlleles)
		if perr != nil {
			return false, false, perr
		}
		sIdx := h >> 1
		s.diploid[sIdx] = diploid
		s.alleles[h] = int8(a1)
		if diploid {
			s.alleles[h+1] = int8(a2)
		} else {
			s.alleles[h+1] = int8(a1) // phantom haplotype, never surfaced in output
		}
		h += 2
	}
	return true, false, nil
}

// parseGT decodes a GT subfield, requiring a phased separator ("|") and
// complete (non-missing) calls: input is assumed phased and complete, so
// an unphased or missing call is a malformed-input error, not something
// this package repairs.
func parseGT(gt string, nAlleles int) (a1, a2 int, diploid bool, err error) {
	if strings.ContainsRune(gt, '/') {
		return 0, 0, false, ibd.InputErrorf(nil, "unphased genotype %q", gt)
	}
	parts := strings.Split(gt, "|")
	switch len(parts) {
	case 1:
		a1, err = parseAllele(parts[0], nAlleles)
		return a1, a1, false, err
	case 2:
		a1, err = parseAllele(parts[0], nAlleles)
		if err != nil {
			return 0, 0, false, err
		}
		a2, err = parseAllele(parts[1], nAlleles)
		return a1, a2, true, err
	default:
		return 0, 0, false, ibd.InputErrorf(nil, "malformed genotype %q", gt)
	}
}

func parseAllele(s string, nAlleles int) (int, error) {
	if s == "." {
		return 0, ibd.InputErrorf(nil, "missing genotype call")
	}
	a, err := strconv.Atoi(s)
	if err != nil || a < 0 || a >= nAlleles {
		return 0, ibd.InputErrorf(err, "invalid allele %q (nAlleles=%d)", s, nAlleles)
	}
	return a, nil
}

func truncate(s string) string {
	const max = 80
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Chrom returns the current record's chromosome.
func (s *Scanner) Chrom() string { return s.chrom }

// Pos returns the current record's base-pair position.
func (s *Scanner) Pos() int { return s.pos }

// NAlleles returns the current record's allele count.
func (s *Scanner) NAlleles() int { return s.nAlleles }

// Allele returns the allele carried by haplotype h at the current record.
func (s *Scanner) Allele(h int) int { return int(s.alleles[h]) }

// Samples returns the retained (post-exclusion) sample identifiers.
func (s *Scanner) Samples() []string { return s.samples }

// IsDiploid reports whether sample s's current-record genotype was
// diploid. Ploidy is assumed constant per sample across the VCF; callers
// read it once the first record has been scanned, per the
// ibd.RecordIterator contract.
func (s *Scanner) IsDiploid(sIdx int) bool { return s.diploid[sIdx] }

// Err returns the first error encountered by Scan, or nil.
func (s *Scanner) Err() error { return s.err }

var _ ibd.RecordIterator = (*Scanner)(nil)
