package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/forensic/alleledb"
	"github.com/grailbio/forensic/locus"
	"github.com/grailbio/forensic/strcall"
)

// run analyzes the reads at readsPath and writes the reports under outPrefix.
// The reports are written even when no locus has an allele candidate, but
// run then returns an error.
func run(ctx context.Context, lociPath, allelesPath, readsPath, outPrefix string, opts strcall.Opts) error {
	sets, err := locus.ReadPrimerSetsFile(ctx, lociPath)
	if err != nil {
		return err
	}
	var validated []alleledb.Validated
	if allelesPath != "" {
		if validated, err = alleledb.ReadValidatedFile(ctx, allelesPath); err != nil {
			return err
		}
	}
	loci, table, conflicts, err := alleledb.Build(sets, validated)
	if err != nil {
		return err
	}
	for name, err := range conflicts {
		log.Printf("locus %s left out: %v", name, err)
	}
	if len(loci) == 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("%s: no usable locus", lociPath))
	}
	loci, table, err = strcall.Prepare(loci, table, opts)
	if err != nil {
		return err
	}

	in, err := strcall.OpenInput(ctx, readsPath, opts)
	if err != nil {
		return err
	}
	res, err := strcall.Analyze(ctx, in, loci, table, opts)
	if cerr := in.Close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if err := writeFile(ctx, outPrefix+".alleles.tsv", func(w io.Writer) error {
		return strcall.WriteAlleles(w, res.Loci)
	}); err != nil {
		return err
	}
	if err := writeFile(ctx, outPrefix+".loci.tsv", func(w io.Writer) error {
		return strcall.WriteLoci(w, res.Loci)
	}); err != nil {
		return err
	}
	if err := writeFile(ctx, outPrefix+".descriptors.tsv", func(w io.Writer) error {
		return locus.WriteDescriptors(w, loci)
	}); err != nil {
		return err
	}
	if res.Candidates() == 0 {
		return errors.E(errors.NotExist, fmt.Sprintf("%s: no allele candidates in %d reads", readsPath, res.Stats.Reads))
	}
	return nil
}

func writeFile(ctx context.Context, path string, write func(io.Writer) error) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out.Writer(ctx))
	e := errors.Once{}
	e.Set(write(w))
	e.Set(w.Flush())
	e.Set(out.Close(ctx))
	if e.Err() == nil {
		log.Printf("Wrote %s", path)
	}
	return e.Err()
}
