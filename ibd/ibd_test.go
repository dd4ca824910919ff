package ibd

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// newTestPanel builds a GenotypePanel directly from an allele matrix
// (markers x haplotypes), with base-pair positions startBP, startBP+bpStep,
// ... and genetic positions 0, cmStep, 2*cmStep, ... Every sample is
// diploid and named s0, s1, ...
func newTestPanel(chrom string, alleles [][]int8, startBP, bpStep int, cmStep float64) *GenotypePanel {
	nHaps := len(alleles[0])
	nSamples := nHaps / 2
	p := &GenotypePanel{
		chrom:   chrom,
		nHaps:   nHaps,
		diploid: make([]bool, nSamples),
		samples: make([]string, nSamples),
	}
	for s := 0; s < nSamples; s++ {
		p.diploid[s] = true
		p.samples[s] = fmt.Sprintf("s%d", s)
	}
	for m, row := range alleles {
		n := 2
		for _, a := range row {
			if int(a)+1 > n {
				n = int(a) + 1
			}
		}
		p.pos = append(p.pos, startBP+m*bpStep)
		p.genPos = append(p.genPos, float64(m)*cmStep)
		p.nAlleles = append(p.nAlleles, n)
		p.alleles = append(p.alleles, row)
	}
	return p
}

// memSink is an in-memory Sink capturing everything written to it.
type memSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *memSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *memSink) Finalize() error { return nil }

// lines returns the sink's contents split into lines, empty lines dropped.
func (s *memSink) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, l := range strings.Split(s.buf.String(), "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
