// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
hap-ibd detects IBD and HBD segments between haplotypes in a phased
genotype panel, using a PBWT-based seed-and-extend algorithm.
*/

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/browning-lab/hap-ibd-sub001/ibd"
	"github.com/browning-lab/hap-ibd-sub001/ibd/gmap"
	"github.com/browning-lab/hap-ibd-sub001/ibd/vcfio"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, usage)
		log.Fatalf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprint(os.Stderr, usage)
		log.Fatalf("%v", err)
	}
	if fi, err := os.Stat(cfg.OutPrefix); err == nil && fi.IsDir() {
		fmt.Fprint(os.Stderr, usage)
		log.Fatalf("%v", ibd.ConfigErrorf("out=%s is a directory", cfg.OutPrefix))
	}

	ctx := vcontext.Background()
	diag, err := newDiagLog(ctx, cfg.OutPrefix+".log")
	if err != nil {
		log.Fatalf("%v", err)
	}
	start := time.Now()
	if err := run(ctx, cfg, diag); err != nil {
		diag.Printf("error: %v", err)
		diag.Close()
		log.Fatalf("%v", err)
	}
	diag.Printf("hap-ibd finished in %s", time.Since(start))
	if err := diag.Close(); err != nil {
		log.Fatalf("%v", err)
	}
}

// diagLog tees diagnostics to stderr (via the process logger) and to
// <out>.log.
type diagLog struct {
	ctx context.Context
	f   file.File
	w   io.Writer
}

func newDiagLog(ctx context.Context, path string) (*diagLog, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, ibd.IOErrorf(err, path)
	}
	return &diagLog{ctx: ctx, f: f, w: f.Writer(ctx)}, nil
}

func (d *diagLog) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
	fmt.Fprintf(d.w, format+"\n", args...)
}

func (d *diagLog) Close() error { return d.f.Close(d.ctx) }

// run wires together the ambient I/O (file opens, map parsing, sink
// framing) that the core pipeline treats as external collaborators, then
// hands each chromosome's GenotypePanel to ibd.Run, which owns window
// partitioning, PBWT scanning, extension, and dispatch.
func run(ctx context.Context, cfg ibd.Config, diag *diagLog) error {
	gmapFile, err := file.Open(ctx, cfg.MapPath)
	if err != nil {
		return ibd.IOErrorf(err, cfg.MapPath)
	}
	defer gmapFile.Close(ctx)
	gm, err := gmap.Read(gmapFile.Reader(ctx))
	if err != nil {
		return err
	}

	var exclude map[string]struct{}
	if cfg.ExcludeSamplesPath != "" {
		exFile, err := file.Open(ctx, cfg.ExcludeSamplesPath)
		if err != nil {
			return ibd.IOErrorf(err, cfg.ExcludeSamplesPath)
		}
		defer exFile.Close(ctx)
		exclude, err = vcfio.ReadExcludeSamples(exFile.Reader(ctx))
		if err != nil {
			return ibd.IOErrorf(err, cfg.ExcludeSamplesPath)
		}
	}

	gtFile, err := file.Open(ctx, cfg.GtPath)
	if err != nil {
		return ibd.IOErrorf(err, cfg.GtPath)
	}
	defer gtFile.Close(ctx)
	scanner, err := vcfio.NewScanner(gtFile.Reader(ctx), exclude)
	if err != nil {
		return err
	}

	ibdSink, err := newBGZFFileSink(ctx, cfg.OutPrefix+".ibd.gz")
	if err != nil {
		return err
	}
	hbdSink, err := newBGZFFileSink(ctx, cfg.OutPrefix+".hbd.gz")
	if err != nil {
		return err
	}

	stats := &ibd.Stats{}
	panels := ibd.NewPanelReader(scanner, gm, cfg.MinMAC)
	nChroms := 0
	for {
		panel, err := panels.Next()
		if err != nil {
			return err
		}
		if panel == nil {
			break
		}
		nChroms++
		diag.Printf("chromosome %s: %d markers, %d haplotypes", panel.Chrom(), panel.NMarkers(), panel.NHaps())
		if err := ibd.Run(cfg, panel, ibdSink, hbdSink, stats); err != nil {
			return err
		}
	}
	if nChroms == 0 {
		return ibd.InputErrorf(nil, "%s has no genotype records", cfg.GtPath)
	}

	if err := ibdSink.Finalize(); err != nil {
		return ibd.IOErrorf(err, cfg.OutPrefix+".ibd.gz")
	}
	if err := hbdSink.Finalize(); err != nil {
		return ibd.IOErrorf(err, cfg.OutPrefix+".hbd.gz")
	}
	diag.Printf("chromosomes=%d ibd_segments=%d hbd_segments=%d", nChroms, stats.IBDCount(), stats.HBDCount())
	return nil
}
