package strcall

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/forensic/encoding/fasta"
	"github.com/grailbio/forensic/encoding/fastq"
	"github.com/klauspost/compress/gzip"
)

// Input is an open read file.
type Input struct {
	fastq.Source
	in file.File
	gz *gzip.Reader
}

// IsFASTA reports whether path names a FASTA file, optionally gzipped.
func IsFASTA(path string) bool {
	path = strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(path, ".fasta") || strings.HasSuffix(path, ".fa")
}

// OpenInput opens the reads at path. Paths ending in ".gz" are gunzipped;
// ".fasta" and ".fa" files are read as FASTA, anything else as FASTQ. When
// opts.SubsampleRate is below 1 the reads are subsampled with opts.Seed.
func OpenInput(ctx context.Context, path string, opts Opts) (*Input, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E("open reads", path, err)
	}
	i := &Input{in: in}
	var r io.Reader = in.Reader(ctx)
	if strings.HasSuffix(path, ".gz") {
		if i.gz, err = gzip.NewReader(r); err != nil {
			_ = in.Close(ctx)
			return nil, errors.E(errors.Invalid, "open reads", path, err)
		}
		r = i.gz
	}
	if IsFASTA(path) {
		i.Source = fasta.NewScanner(r)
	} else {
		i.Source = fastq.NewScanner(r, fastq.ID|fastq.Seq|fastq.Qual)
	}
	if opts.SubsampleRate < 1 {
		s, err := fastq.NewSampler(i.Source, opts.SubsampleRate, opts.Seed)
		if err != nil {
			_ = i.Close(ctx)
			return nil, errors.E(errors.Invalid, err)
		}
		i.Source = s
	}
	return i, nil
}

// Close releases the file.
func (i *Input) Close(ctx context.Context) error {
	var e errors.Once
	if i.gz != nil {
		e.Set(i.gz.Close())
	}
	e.Set(i.in.Close(ctx))
	return e.Err()
}
