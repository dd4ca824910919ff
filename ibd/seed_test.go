package ibd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plantShared copies haplotype h1's alleles onto h2 over [start, end] and
// forces mismatches at the flanking markers, so the pair's IBS run is
// exactly [start, end].
func plantShared(alleles [][]int8, h1, h2, start, end int) {
	for m := start; m <= end; m++ {
		alleles[m][h2] = alleles[m][h1]
	}
	if start > 0 {
		alleles[start-1][h2] = 1 - alleles[start-1][h1]
	}
	if end < len(alleles)-1 {
		alleles[end+1][h2] = 1 - alleles[end+1][h1]
	}
}

func scanSeeds(panel *GenotypePanel, cfg Config, win Window) []Seed {
	detector := NewSeedDetector(panel, cfg, win)
	var seeds []Seed
	detector.Scan(win, func(batch []Seed) { seeds = append(seeds, batch...) }, nil)
	return seeds
}

func TestSeedDetectorFindsPlantedRun(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	alleles := randomAlleles(rnd, 500, 8, 2)
	plantShared(alleles, 0, 2, 100, 399)
	panel := newTestPanel("chr1", alleles, 1000, 100, 0.01)
	cfg := extendCfg(2.0, 2.0, 1000)

	seeds := scanSeeds(panel, cfg, Window{Start: 0, End: 500})
	require.Len(t, seeds, 1)
	assert.Equal(t, Seed{Hap1: 0, Hap2: 2, IbsStart: 100, IbsInclEnd: 399}, seeds[0])
}

func TestSeedDetectorFullLengthRunEmittedAtWindowEnd(t *testing.T) {
	// A pair identical across the whole window never hits a mismatch, so
	// the seed surfaces via the window-end pseudo-allele rule.
	rnd := rand.New(rand.NewSource(8))
	alleles := randomAlleles(rnd, 500, 8, 2)
	plantShared(alleles, 1, 5, 0, 499)
	panel := newTestPanel("chr1", alleles, 1000, 100, 0.01)
	cfg := extendCfg(2.0, 2.0, 1000)

	seeds := scanSeeds(panel, cfg, Window{Start: 0, End: 500})
	require.Len(t, seeds, 1)
	assert.Equal(t, Seed{Hap1: 1, Hap2: 5, IbsStart: 0, IbsInclEnd: 499}, seeds[0])
}

func TestSeedDetectorRespectsThresholds(t *testing.T) {
	// A 150-marker, 1.49 cM run is below the min-seed=2.0 floor.
	rnd := rand.New(rand.NewSource(9))
	alleles := randomAlleles(rnd, 500, 8, 2)
	plantShared(alleles, 0, 2, 100, 249)
	panel := newTestPanel("chr1", alleles, 1000, 100, 0.01)
	cfg := extendCfg(2.0, 2.0, 1000)

	seeds := scanSeeds(panel, cfg, Window{Start: 0, End: 500})
	assert.Empty(t, seeds)
}

func TestSeedDetectorSkipsHaploidPhantom(t *testing.T) {
	rnd := rand.New(rand.NewSource(10))
	alleles := randomAlleles(rnd, 500, 8, 2)
	// Plant the run on sample 1's second copy, then mark sample 1 haploid:
	// haplotype 3 becomes a phantom and the seed must be suppressed.
	plantShared(alleles, 0, 3, 100, 399)
	panel := newTestPanel("chr1", alleles, 1000, 100, 0.01)
	panel.diploid[1] = false
	cfg := extendCfg(2.0, 2.0, 1000)

	seeds := scanSeeds(panel, cfg, Window{Start: 0, End: 500})
	assert.Empty(t, seeds)
}

func TestSeedDetectorWindowDedup(t *testing.T) {
	// A run lying across the overlap of two windows is emitted exactly once
	// over all windows: the earlier window ends before the run reaches
	// seed length, and only the later window reports it.
	rnd := rand.New(rand.NewSource(11))
	alleles := randomAlleles(rnd, 2000, 8, 2)
	plantShared(alleles, 0, 2, 600, 1100)
	panel := newTestPanel("chr1", alleles, 1000, 100, 0.01)
	cfg := extendCfg(2.0, 2.0, 1000)

	windows := PartitionWindows(panel, cfg.MinSeed, cfg.MinMarkers, 3)
	require.Greater(t, len(windows), 1)

	var all []Seed
	for _, win := range windows {
		all = append(all, scanSeeds(panel, cfg, win)...)
	}
	require.Len(t, all, 1)
	assert.Equal(t, Seed{Hap1: 0, Hap2: 2, IbsStart: 600, IbsInclEnd: 1100}, all[0])
}
