package ibd

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/browning-lab/hap-ibd-sub001/encoding/bgzf"
)

// Sink is an append-only, internally synchronized byte-stream receiver;
// multiple goroutines may call Write concurrently.
type Sink interface {
	Write(p []byte) (int, error)
	// Finalize flushes any buffered data and appends the sink's
	// terminating marker (an empty BGZF block, for BGZFSink).
	Finalize() error
}

// BGZFSink is a Sink that frames its payload as BGZF via
// encoding/bgzf.Writer.
type BGZFSink struct {
	mu sync.Mutex
	bw *bgzf.Writer
}

// NewBGZFSink wraps w (typically a file opened via github.com/grailbio/base/file)
// with a BGZF writer at the default compression level.
func NewBGZFSink(w io.Writer) (*BGZFSink, error) {
	bw, err := bgzf.NewWriter(w, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	return &BGZFSink{bw: bw}, nil
}

// Write appends p to the BGZF stream under the sink's lock.
func (s *BGZFSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bw.Write(p)
}

// Finalize closes the current block and appends the BGZF terminator.
func (s *BGZFSink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bw.Close()
}

// segmentBuffer batches formatted output lines for one sink, flushing
// when it exceeds flushThreshold bytes, so concurrent writers contend on
// the sink's lock coarsely rather than per line.
type segmentBuffer struct {
	sink Sink
	buf  bytes.Buffer
}

const flushThreshold = 256 * 1024

func newSegmentBuffer(sink Sink) *segmentBuffer {
	return &segmentBuffer{sink: sink}
}

// writeSegment formats seg as an 8-column tab-separated line and appends
// it to the buffer, flushing if the threshold is crossed.
func (b *segmentBuffer) writeSegment(panel *GenotypePanel, seg Segment) error {
	seg, _ = normalizeSegment(seg)
	h1, h2 := seg.Hap1, seg.Hap2
	c1, c2 := h1&1, h2&1
	cm := panel.GenPos(seg.End) - panel.GenPos(seg.Start)
	fmt.Fprintf(&b.buf, "%s\t%d\t%s\t%d\t%s\t%d\t%d\t%s\n",
		panel.SampleID(h1), c1+1,
		panel.SampleID(h2), c2+1,
		panel.Chrom(), panel.Pos(seg.Start), panel.Pos(seg.End),
		formatCM(cm))
	if b.buf.Len() >= flushThreshold {
		return b.flush()
	}
	return nil
}

func (b *segmentBuffer) flush() error {
	if b.buf.Len() == 0 {
		return nil
	}
	_, err := b.sink.Write(b.buf.Bytes())
	b.buf.Reset()
	return err
}

// formatCM renders a cM length with exactly 3 fractional digits, rounded
// half-up, using integer arithmetic so the result is not at the mercy of
// a float formatter's own rounding mode.
func formatCM(cm float64) string {
	milli := int64(math.Floor(cm*1000 + 0.5))
	whole := milli / 1000
	frac := milli % 1000
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%03d", whole, frac)
}

// normalizeSegment orders the pair so Hap1 < Hap2 and reports whether it
// is HBD (same sample) or IBD.
func normalizeSegment(seg Segment) (norm Segment, hbd bool) {
	if seg.Hap1 > seg.Hap2 {
		seg.Hap1, seg.Hap2 = seg.Hap2, seg.Hap1
	}
	return seg, seg.Hap1>>1 == seg.Hap2>>1
}
