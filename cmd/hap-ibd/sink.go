package main

import (
	"context"

	"github.com/grailbio/base/file"

	"github.com/browning-lab/hap-ibd-sub001/ibd"
)

// fileSink pairs an ibd.BGZFSink with the underlying file.File so
// Finalize can flush the BGZF terminator and close the file handle
// together.
type fileSink struct {
	ctx context.Context
	f   file.File
	*ibd.BGZFSink
}

func newBGZFFileSink(ctx context.Context, path string) (*fileSink, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, ibd.IOErrorf(err, path)
	}
	bw, err := ibd.NewBGZFSink(f.Writer(ctx))
	if err != nil {
		return nil, ibd.IOErrorf(err, path)
	}
	return &fileSink{ctx: ctx, f: f, BGZFSink: bw}, nil
}

func (s *fileSink) Finalize() error {
	if err := s.BGZFSink.Finalize(); err != nil {
		return err
	}
	return s.f.Close(s.ctx)
}
