// Package strcall calls STR and SNP allele candidates from sequencing reads.
//
// Each read is assigned to a locus by its primers (Assign), trimmed down to
// the region of interest between the locus flanks (Trim), and the trimmed
// reads of each locus are reduced to ranked, annotated and clustered allele
// candidates (Aggregate). Analyze runs the whole pipeline over a read stream.
package strcall

import (
	"context"
	"runtime"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/forensic/alleledb"
	"github.com/grailbio/forensic/encoding/fastq"
	"github.com/grailbio/forensic/locus"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of Analyze.
type Result struct {
	// Loci has one report per locus, sorted by locus name.
	Loci  []*LocusReport
	Stats Stats
}

// Candidates returns the number of allele candidates over all loci.
func (r *Result) Candidates() int {
	n := 0
	for _, l := range r.Loci {
		n += len(l.Candidates)
	}
	return n
}

// Prepare applies the descriptor adjustments of opts to loci and re-keys the
// known-allele table to match the adjusted descriptors.
func Prepare(loci []*locus.Descriptor, known *alleledb.Table, opts Opts) ([]*locus.Descriptor, *alleledb.Table, error) {
	adjusted := make([]*locus.Descriptor, len(loci))
	for i, d := range loci {
		adjusted[i] = d.Adjust(opts.AdjustOpts())
	}
	table, err := known.Adjusted(adjusted)
	if err != nil {
		return nil, nil, err
	}
	return adjusted, table, nil
}

// Process assigns r to one of loci and trims it. A read that cannot be
// trimmed is demoted to Unassigned with the error in r.Conflict.
func Process(r *Read, loci []*locus.Descriptor, opts Opts) {
	Assign(r, loci, opts.KmerAssign, opts.KmerSource)
	if r.State != Assigned {
		return
	}
	if err := Trim(r, opts); err != nil {
		log.Debug.Printf("read %s: %v", r.Name, err)
		r.State, r.Locus, r.Conflict = Unassigned, nil, err
	}
}

type result struct {
	read *Read
	// stats is set on the last message of each worker.
	stats *Stats
}

func processReads(reqCh <-chan *Read, resCh chan<- result, loci []*locus.Descriptor, opts Opts) {
	var stats Stats
	for r := range reqCh {
		Process(r, loci, opts)
		stats.add(r)
		if r.State == Assigned {
			resCh <- result{read: r}
		}
	}
	resCh <- result{stats: &stats}
}

// Analyze reads src to the end, processes the reads in parallel and
// aggregates every locus. loci must already be adjusted (see Prepare). Loci
// that fail aggregation are reported with LocusReport.Err set; Analyze
// itself fails only when src does.
func Analyze(ctx context.Context, src fastq.Source, loci []*locus.Descriptor, known alleledb.Lookup, opts Opts) (*Result, error) {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	reqCh := make(chan *Read, 1024*64)
	resCh := make(chan result, 1024)

	var (
		res    Result
		byName = map[string][]*Read{}
		done   = make(chan struct{})
	)
	go func() {
		for r := range resCh {
			if r.stats != nil {
				res.Stats = res.Stats.Merge(*r.stats)
				continue
			}
			byName[r.read.Locus.Name] = append(byName[r.read.Locus.Name], r.read)
		}
		close(done)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(reqCh)
		var fr fastq.Read
		for src.Scan(&fr) {
			select {
			case reqCh <- NewRead(fr):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return src.Err()
	})
	for i := 0; i < parallelism; i++ {
		g.Go(func() error {
			processReads(reqCh, resCh, loci, opts)
			return nil
		})
	}
	err := g.Wait()
	close(resCh)
	<-done
	if err != nil {
		return nil, errors.E("read input", err)
	}
	log.Printf("Stats: %+v", res.Stats)

	sorted := append([]*locus.Descriptor(nil), loci...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	res.Loci = make([]*LocusReport, len(sorted))
	err = traverse.Each(len(sorted), func(i int) error {
		d := sorted[i]
		rep, err := Aggregate(d, byName[d.Name], known, opts)
		if err != nil {
			log.Error.Printf("locus %s: %v", d.Name, err)
			rep = &LocusReport{Locus: d, Reads: len(byName[d.Name]), Err: err}
		}
		res.Loci[i] = rep
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, rep := range res.Loci {
		log.Debug.Printf("locus %s: %d reads, %d candidates", rep.Locus.Name, rep.Reads, len(rep.Candidates))
	}
	if n := res.Candidates(); n == 0 {
		log.Error.Printf("no allele candidates in %d reads", res.Stats.Reads)
	} else {
		log.Printf("%d allele candidates at %d loci", n, len(res.Loci))
	}
	return &res, nil
}
