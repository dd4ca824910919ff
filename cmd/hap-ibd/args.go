package main

import (
	"strconv"
	"strings"

	"github.com/browning-lab/hap-ibd-sub001/ibd"
)

// parseArgs parses hap-ibd's bare key=value argument grammar into an
// ibd.Config seeded with ibd.DefaultConfig's defaults. Unlike Go's flag
// package, these tokens carry no leading "-", which is why this file
// exists instead of using flag directly.
func parseArgs(args []string) (ibd.Config, error) {
	cfg := ibd.DefaultConfig()
	for _, arg := range args {
		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 {
			return cfg, ibd.ConfigErrorf("argument %q is not in key=value form", arg)
		}
		key, val := kv[0], kv[1]
		var err error
		switch key {
		case "gt":
			cfg.GtPath = val
		case "map":
			cfg.MapPath = val
		case "out":
			cfg.OutPrefix = val
		case "excludesamples":
			cfg.ExcludeSamplesPath = val
		case "min-mac":
			cfg.MinMAC, err = strconv.Atoi(val)
		case "min-seed":
			cfg.MinSeed, err = strconv.ParseFloat(val, 64)
		case "max-gap":
			cfg.MaxGap, err = strconv.Atoi(val)
		case "min-extend":
			cfg.MinExtend, err = strconv.ParseFloat(val, 64)
		case "min-output":
			cfg.MinOutput, err = strconv.ParseFloat(val, 64)
		case "min-markers":
			cfg.MinMarkers, err = strconv.Atoi(val)
		case "nthreads":
			cfg.NThreads, err = strconv.Atoi(val)
		default:
			return cfg, ibd.ConfigErrorf("unrecognized argument %q", key)
		}
		if err != nil {
			return cfg, ibd.ConfigErrorf("argument %s=%s: %v", key, val, err)
		}
	}
	return cfg, nil
}

const usage = `Usage: hap-ibd gt=<vcf.gz> map=<plink map> out=<prefix> [options]

Required:
  gt=<path>              phased, block-gzipped VCF
  map=<path>             PLINK-format genetic map
  out=<prefix>           output path prefix (writes <prefix>.ibd.gz,
                         <prefix>.hbd.gz, <prefix>.log)

Options (defaults in parentheses):
  excludesamples=<path> one sample ID per line, dropped before detection
  min-mac=<int>          minor allele count floor (2)
  min-seed=<cM>          minimum PBWT seed length (2.0)
  max-gap=<bp>           maximum single-gap span; -1 disables extension (1000)
  min-extend=<cM>        minimum flanking match length (min(1.0, min-seed))
  min-output=<cM>        minimum output segment length (2.0)
  min-markers=<int>      minimum marker count of a seed (100)
  nthreads=<int>         worker goroutines (runtime.NumCPU())
`
