// Package ibd detects identity-by-descent (IBD) and homozygosity-by-descent
// (HBD) segments shared between haplotypes in a panel of phased genotypes.
//
// The detection pipeline has three stages, one per chromosome:
//
//  1. A GenotypePanel is built from a RecordIterator and a GeneticMap,
//     dropping markers below the minor-allele-count threshold.
//  2. PartitionWindows splits the marker axis into overlapping windows.
//     One SeedDetector scans each window, advancing a PbwtState one marker
//     at a time and emitting Seed records wherever two haplotypes share a
//     long identical-by-state run.
//  3. A Dispatcher fans the per-window scans out across a worker pool; each
//     worker both produces seeds from its own window and, once some window
//     has finished, drains a shared queue of seed batches, extending each
//     seed with a SeedExtender and writing accepted segments to a Sink.
//
// Package ibd has no knowledge of VCF or PLINK map file formats; those are
// supplied by a RecordIterator and GeneticMap implementation (see the
// sibling ibd/vcfio and ibd/gmap packages) so the core algorithm stays
// independent of input framing.
package ibd
