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
bio-strcall calls STR and SNP allele candidates from a FASTQ or FASTA file of
forensic amplicon reads.

It writes <out>.alleles.tsv with one row per allele candidate,
<out>.loci.tsv with one summary row per locus, and <out>.descriptors.tsv
with the locus reference data used for the run.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/forensic/strcall"
)

var (
	lociPath            = flag.String("loci", "", "Loci configuration TSV with columns Locus, LocusType, ForwardPrimer, ReversePrimer (required)")
	allelesPath         = flag.String("alleles", "", "Validated alleles TSV with columns Locus, Validation, Sequence. Without it the whole primer-to-primer region is reported")
	outPrefix           = flag.String("out", "bio-strcall", "Output path prefix")
	threshold           = flag.Float64("threshold", strcall.DefaultOpts.Threshold, "Abundance a unique region of interest must exceed to be reported")
	thresholdLoop       = flag.Bool("threshold-loop", strcall.DefaultOpts.ThresholdLoop, "Remove the lowest counts first and recompute abundances over the remaining reads")
	useCompress         = flag.Bool("use-compress", strcall.DefaultOpts.UseCompress, "Match flanks after homopolymer compression")
	withAlignment       = flag.Bool("with-alignment", strcall.DefaultOpts.WithAlignment, "Locate unclean flanks by alignment before k-mer voting")
	kmerAssign          = flag.Int("kmer-assign", strcall.DefaultOpts.KmerAssign, "K-mer length for assigning reads whose primers are not found exactly; 0 disables")
	kmerReference       = flag.Bool("kmer-reference", strcall.DefaultOpts.KmerSource == strcall.ReferenceKmers, "Score -kmer-assign reads against reference allele k-mers instead of primer k-mers")
	primerBuffer        = flag.Int("primer-buffer", strcall.DefaultOpts.PrimerBuffer, "Number of outer primer bases to ignore")
	stutterBuffer       = flag.Int("stutter-buffer", strcall.DefaultOpts.StutterBuffer, "Number of repeat units of each inner flank end to keep in the region of interest")
	flankOut            = flag.Bool("flank-out", strcall.DefaultOpts.FlankOut, "Remove flanks; when false only primers are removed")
	negativeReadsFilter = flag.Bool("negative-reads-filter", strcall.DefaultOpts.NegativeReadsFilter, "Drop reads whose trimmed ends overlap")
	clusterInfo         = flag.Bool("cluster-info", strcall.DefaultOpts.ClusterInfo, "Cluster the allele candidates of each locus")
	maxDifferences      = flag.Int("max-differences", strcall.DefaultOpts.MaxDifferences, "Largest difference count that links two candidates")
	maxCluster          = flag.Int("max-cluster", strcall.DefaultOpts.MaxCluster, "Largest number of candidates of a locus to cluster")
	subsample           = flag.Float64("subsample", strcall.DefaultOpts.SubsampleRate, "Fraction of reads to analyze, in [0, 1]")
	seed                = flag.Int64("seed", strcall.DefaultOpts.Seed, "Random seed for -subsample")
	parallelism         = flag.Int("parallelism", strcall.DefaultOpts.Parallelism, "Number of read-processing workers; 0 = runtime.NumCPU()")
)

func bioStrcallUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -loci loci.tsv readspath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioStrcallUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Expected exactly one reads path, got %d; please check flag syntax: '%s'", flag.NArg(), strings.Join(flag.Args(), " "))
	}
	if *lociPath == "" {
		log.Fatalf("-loci is required")
	}
	opts := strcall.Opts{
		Threshold:           *threshold,
		ThresholdLoop:       *thresholdLoop,
		UseCompress:         *useCompress,
		WithAlignment:       *withAlignment,
		KmerAssign:          *kmerAssign,
		PrimerBuffer:        *primerBuffer,
		StutterBuffer:       *stutterBuffer,
		FlankOut:            *flankOut,
		NegativeReadsFilter: *negativeReadsFilter,
		ClusterInfo:         *clusterInfo,
		MaxDifferences:      *maxDifferences,
		MaxCluster:          *maxCluster,
		SubsampleRate:       *subsample,
		Seed:                *seed,
		Parallelism:         *parallelism,
	}
	if *kmerReference {
		opts.KmerSource = strcall.ReferenceKmers
	}
	ctx := vcontext.Background()
	if err := run(ctx, *lociPath, *allelesPath, flag.Arg(0), *outPrefix, opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
