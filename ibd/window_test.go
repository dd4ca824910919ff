package ibd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformPanel(nMarkers int, cmStep float64) *GenotypePanel {
	alleles := make([][]int8, nMarkers)
	for m := range alleles {
		alleles[m] = make([]int8, 4)
	}
	return newTestPanel("chr1", alleles, 100, 100, cmStep)
}

func TestPartitionWindowsCoverAndOverlap(t *testing.T) {
	const minSeed = 2.0
	const minMarkers = 100
	for _, nWorkers := range []int{1, 2, 4, 8} {
		panel := uniformPanel(2000, 0.01)
		windows := PartitionWindows(panel, minSeed, minMarkers, nWorkers)
		require.NotEmpty(t, windows)

		assert.Equal(t, 0, windows[0].Start)
		assert.Equal(t, panel.NMarkers(), windows[len(windows)-1].End)
		for i, w := range windows {
			assert.Less(t, w.Start, w.End, "window %d is empty", i)
			if i == 0 {
				continue
			}
			prev := windows[i-1]
			assert.Greater(t, w.Start, prev.Start, "window starts must advance")
			assert.Greater(t, w.End, prev.End, "window ends must advance")
			// Overlap back from the previous window's last marker covers at
			// least one full seed.
			if w.Start > 0 {
				lastMarker := prev.End - 1
				assert.GreaterOrEqual(t,
					panel.GenPos(lastMarker)-panel.GenPos(w.Start-1), minSeed,
					"window %d overlap below min-seed cM", i)
				assert.GreaterOrEqual(t, prev.End-(w.Start-1), minMarkers,
					"window %d overlap below min-markers", i)
			}
		}
	}
}

func TestPartitionWindowsShortChromosome(t *testing.T) {
	// A chromosome shorter than one seed collapses to a single window.
	panel := uniformPanel(50, 0.01)
	windows := PartitionWindows(panel, 2.0, 100, 4)
	require.Len(t, windows, 1)
	assert.Equal(t, Window{Start: 0, End: 50}, windows[0])
}

func TestPartitionWindowsSingleWorker(t *testing.T) {
	panel := uniformPanel(1000, 0.01)
	windows := PartitionWindows(panel, 2.0, 100, 1)
	assert.Equal(t, 0, windows[0].Start)
	assert.Equal(t, 1000, windows[len(windows)-1].End)
}
