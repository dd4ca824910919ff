package ibd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceIterator is an in-memory RecordIterator over explicit marker rows.
type sliceIterator struct {
	samples []string
	diploid []bool
	rows    []sliceRecord
	cur     int
}

type sliceRecord struct {
	chrom    string
	pos      int
	nAlleles int
	alleles  []int
}

func (it *sliceIterator) Scan() bool {
	it.cur++
	return it.cur <= len(it.rows)
}
func (it *sliceIterator) Chrom() string      { return it.rows[it.cur-1].chrom }
func (it *sliceIterator) Pos() int           { return it.rows[it.cur-1].pos }
func (it *sliceIterator) NAlleles() int      { return it.rows[it.cur-1].nAlleles }
func (it *sliceIterator) Allele(h int) int   { return it.rows[it.cur-1].alleles[h] }
func (it *sliceIterator) Samples() []string  { return it.samples }
func (it *sliceIterator) IsDiploid(s int) bool {
	if it.diploid == nil {
		return true
	}
	return it.diploid[s]
}
func (it *sliceIterator) Err() error { return nil }

// constMap is a GeneticMap assigning 0.01 cM per 100 bp.
type constMap struct{}

func (constMap) CMPos(chrom string, bp int) float64 { return float64(bp) / 10000 }

func TestNewGenotypePanelFiltersMAC(t *testing.T) {
	it := &sliceIterator{
		samples: []string{"a", "b"},
		rows: []sliceRecord{
			{"chr1", 100, 2, []int{0, 1, 0, 1}}, // MAC 2: kept
			{"chr1", 200, 2, []int{0, 0, 0, 1}}, // MAC 1: dropped
			{"chr1", 300, 2, []int{1, 1, 0, 0}}, // MAC 2: kept
			{"chr1", 400, 3, []int{0, 1, 2, 2}}, // second-most-frequent count 1: dropped
			{"chr1", 500, 3, []int{0, 1, 2, 1}}, // counts 2,1,1: dropped
			{"chr1", 600, 3, []int{0, 1, 1, 0}}, // counts 2,2,0: kept
		},
	}
	panel, err := NewGenotypePanel(it, constMap{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, panel.NMarkers())
	assert.Equal(t, []int{100, 300, 600}, []int{panel.Pos(0), panel.Pos(1), panel.Pos(2)})
	assert.Equal(t, "chr1", panel.Chrom())
	assert.Equal(t, 4, panel.NHaps())
	assert.Equal(t, 0.01, panel.GenPos(0))
	assert.Equal(t, 3, panel.MaxAlleles())
	assert.Equal(t, "a", panel.SampleID(1))
	assert.Equal(t, "b", panel.SampleID(2))
}

func TestNewGenotypePanelRejectsOutOfOrderPositions(t *testing.T) {
	it := &sliceIterator{
		samples: []string{"a", "b"},
		rows: []sliceRecord{
			{"chr1", 200, 2, []int{0, 1, 0, 1}},
			{"chr1", 100, 2, []int{0, 1, 0, 1}},
		},
	}
	_, err := NewGenotypePanel(it, constMap{}, 1)
	require.Error(t, err)
	var ierr *InputError
	assert.ErrorAs(t, err, &ierr)
}

func TestNewGenotypePanelRejectsChromosomeChange(t *testing.T) {
	it := &sliceIterator{
		samples: []string{"a", "b"},
		rows: []sliceRecord{
			{"chr1", 100, 2, []int{0, 1, 0, 1}},
			{"chr2", 100, 2, []int{0, 1, 0, 1}},
		},
	}
	_, err := NewGenotypePanel(it, constMap{}, 1)
	require.Error(t, err)
	var ierr *InputError
	assert.ErrorAs(t, err, &ierr)
}

func TestPanelReaderSplitsChromosomes(t *testing.T) {
	it := &sliceIterator{
		samples: []string{"a", "b"},
		rows: []sliceRecord{
			{"chr1", 100, 2, []int{0, 1, 0, 1}},
			{"chr1", 200, 2, []int{1, 0, 1, 0}},
			{"chr2", 50, 2, []int{0, 1, 1, 0}},
		},
	}
	r := NewPanelReader(it, constMap{}, 1)

	p1, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, p1)
	assert.Equal(t, "chr1", p1.Chrom())
	assert.Equal(t, 2, p1.NMarkers())

	p2, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, p2)
	assert.Equal(t, "chr2", p2.Chrom())
	assert.Equal(t, 1, p2.NMarkers())
	assert.Equal(t, 50, p2.Pos(0))

	p3, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, p3)
}

func TestGenPosUpperBound(t *testing.T) {
	alleles := make([][]int8, 100)
	for m := range alleles {
		alleles[m] = make([]int8, 4)
	}
	panel := newTestPanel("chr1", alleles, 100, 100, 0.1)
	assert.Equal(t, 0, panel.GenPosUpperBound(-1))
	assert.Equal(t, 5, panel.GenPosUpperBound(0.5))
	assert.Equal(t, 6, panel.GenPosUpperBound(0.51))
	assert.Equal(t, 100, panel.GenPosUpperBound(99.0))
}
