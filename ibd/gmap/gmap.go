// Package gmap reads a PLINK-format genetic map and interpolates genetic
// (centiMorgan) positions for markers that fall between mapped rows. This
// is the GeneticMap implementation the ibd package expects; the
// interpolation is linear between the nearest flanking rows.
package gmap

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/browning-lab/hap-ibd-sub001/ibd"
)

// chromMap holds one chromosome's sorted (bp, cM) rows.
type chromMap struct {
	bp []int
	cm []float64
}

// Map is a read-only, per-chromosome genetic map, implementing
// ibd.GeneticMap. It is safe for concurrent use: all fields are immutable
// after construction.
type Map struct {
	chroms map[string]*chromMap
}

// Read parses a four-column PLINK map (chrom, id, cM, bp), one marker per
// line, possibly with multiple chromosomes interleaved. Rows within a
// chromosome must arrive in non-decreasing bp order; out-of-order rows are
// an ibd.InputError.
func Read(r io.Reader) (*Map, error) {
	m := &Map{chroms: make(map[string]*chromMap)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, ibd.InputErrorf(nil, "genetic map row has fewer than 4 columns: %q", line)
		}
		chrom := fields[0]
		cm, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, ibd.InputErrorf(err, "invalid cM value %q", fields[2])
		}
		bp, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, ibd.InputErrorf(err, "invalid bp value %q", fields[3])
		}
		cmap := m.chroms[chrom]
		if cmap == nil {
			cmap = &chromMap{}
			m.chroms[chrom] = cmap
		}
		if n := len(cmap.bp); n > 0 && bp < cmap.bp[n-1] {
			return nil, ibd.InputErrorf(nil, "genetic map positions must be non-decreasing on chromosome %q: %d after %d", chrom, bp, cmap.bp[n-1])
		}
		cmap.bp = append(cmap.bp, bp)
		cmap.cm = append(cmap.cm, cm)
	}
	if err := sc.Err(); err != nil {
		return nil, ibd.IOErrorf(err, "genetic map")
	}
	for chrom, cmap := range m.chroms {
		if len(cmap.bp) < 2 {
			return nil, ibd.InputErrorf(nil, "genetic map for chromosome %q needs at least 2 rows to interpolate", chrom)
		}
	}
	return m, nil
}

// CMPos returns the genetic position, in cM, of bp on chrom: the mapped
// value if bp is an exact map row, linear interpolation between the
// nearest flanking rows if bp falls between two rows, and linear
// extrapolation from the nearest edge pair if bp falls outside the
// map's range.
func (m *Map) CMPos(chrom string, bp int) float64 {
	cmap, ok := m.chroms[chrom]
	if !ok {
		return 0
	}
	n := len(cmap.bp)
	// i is the first index with cmap.bp[i] >= bp.
	i := sort.Search(n, func(i int) bool { return cmap.bp[i] >= bp })
	switch {
	case i < n && cmap.bp[i] == bp:
		return cmap.cm[i]
	case i == 0:
		return extrapolate(cmap, 0, 1, bp)
	case i == n:
		return extrapolate(cmap, n-2, n-1, bp)
	default:
		return interpolate(cmap, i-1, i, bp)
	}
}

// interpolate linearly interpolates cM at bp between rows lo and hi
// (lo < hi, cmap.bp[lo] < bp < cmap.bp[hi]).
func interpolate(cmap *chromMap, lo, hi, bp int) float64 {
	frac := float64(bp-cmap.bp[lo]) / float64(cmap.bp[hi]-cmap.bp[lo])
	return cmap.cm[lo] + frac*(cmap.cm[hi]-cmap.cm[lo])
}

// extrapolate linearly extends the lo-hi map slope to bp, for a bp outside
// the map's covered range.
func extrapolate(cmap *chromMap, lo, hi, bp int) float64 {
	slope := (cmap.cm[hi] - cmap.cm[lo]) / float64(cmap.bp[hi]-cmap.bp[lo])
	return cmap.cm[lo] + slope*float64(bp-cmap.bp[lo])
}

var _ ibd.GeneticMap = (*Map)(nil)
