package strcall

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/forensic/alleledb"
	"github.com/grailbio/forensic/dna"
	"github.com/grailbio/forensic/encoding/fastq"
	"github.com/grailbio/forensic/locus"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func writeFASTQ(seqs []string) string {
	var b strings.Builder
	for i, s := range seqs {
		fmt.Fprintf(&b, "@read%d\n%s\n+\n%s\n", i, s, qual(s))
	}
	return b.String()
}

func testInput() []string {
	var seqs []string
	for i := 0; i < 10; i++ {
		seqs = append(seqs, amplicon(refROI))
	}
	for i := 0; i < 5; i++ {
		seqs = append(seqs, dna.ReverseComplement(amplicon("AGATAGAT")))
	}
	return append(seqs,
		// No primers; ties between loci on k-mers.
		"ACGTACGTACGTACGT",
		// Forward primer with a substitution.
		"AC"+"GGCTCCAG"+flankF+refROI+flankROnF+dna.ReverseComplement(primerR)+"TT",
		// Forward primer twice.
		"AC"+primerF+primerF+flankF+refROI+flankROnF+dna.ReverseComplement(primerR),
		// K-mer assigned, but shorter than the primer.
		"GGCTGCA",
		// Primers in the wrong order.
		dna.ReverseComplement(primerR)+"AAAA"+primerF,
	)
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	loci := []*locus.Descriptor{testLocus(), otherLocus()}
	opts := DefaultOpts
	opts.KmerAssign = 4
	opts.StutterBuffer = 0
	for _, parallelism := range []int{1, 3, 0} {
		opts.Parallelism = parallelism
		src := fastq.NewScanner(strings.NewReader(writeFASTQ(testInput())), fastq.All)
		res, err := Analyze(ctx, src, loci, testTable(t), opts)
		assert.NoError(t, err)
		expect.EQ(t, res.Stats, Stats{
			Reads:          20,
			Assigned:       17,
			KmerAssigned:   1,
			Ambiguous:      2,
			Unassigned:     1,
			TrimFailures:   1,
			NegativeLength: 1,
		})
		assert.EQ(t, len(res.Loci), 2)
		expect.EQ(t, res.Loci[0].Locus.Name, "D1")
		expect.EQ(t, res.Loci[1].Locus.Name, "D2")
		expect.EQ(t, res.Loci[1].Reads, 0)
		expect.EQ(t, len(res.Loci[1].Candidates), 0)

		d1 := res.Loci[0]
		expect.EQ(t, d1.Reads, 16)
		expect.EQ(t, d1.BadReads, 1)
		assert.EQ(t, len(d1.Candidates), 2)
		expect.EQ(t, d1.Candidates[0].ROI, "AGATAGAT")
		expect.EQ(t, d1.Candidates[0].Count, 5)
		expect.EQ(t, d1.Candidates[0].Direction(), 0.0)
		expect.EQ(t, d1.Candidates[1].ROI, refROI)
		expect.EQ(t, d1.Candidates[1].Count, 11)
		expect.EQ(t, d1.Candidates[1].Direction(), 1.0)
		expect.EQ(t, d1.Candidates[1].Known.Number, "3")
		expect.EQ(t, res.Candidates(), 2)
	}
}

func TestAnalyzeReadError(t *testing.T) {
	src := fastq.NewScanner(strings.NewReader("@r\nACGT\n+\n"), fastq.All)
	_, err := Analyze(context.Background(), src, []*locus.Descriptor{testLocus()}, testTable(t), DefaultOpts)
	expect.True(t, err != nil)
}

func TestPrepare(t *testing.T) {
	table := testTable(t)
	opts := DefaultOpts
	loci, adjusted, err := Prepare([]*locus.Descriptor{testLocus()}, table, opts)
	assert.NoError(t, err)
	expect.EQ(t, loci[0].ForwardFlank, "TTAC")
	expect.EQ(t, loci[0].RemovedForwardFlank, "CGAC")
	known, err := adjusted.Find("D1", "CGAC"+refROI+"GGTC")
	assert.NoError(t, err)
	assert.EQ(t, len(known), 1)
	expect.EQ(t, known[0].Number, "3")

	r := NewRead(fastq.Read{ID: "@r", Seq: amplicon(refROI), Qual: qual(amplicon(refROI))})
	Process(r, loci, opts)
	expect.EQ(t, r.State, Assigned)
	expect.EQ(t, r.ROI, "CGAC"+refROI+"GGTC")
	size, err := alleleSize(loci[0], r.ROI)
	assert.NoError(t, err)
	expect.EQ(t, size, "3")
}

func TestOpenInput(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	seqs := testInput()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(writeFASTQ(seqs)))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	var fa strings.Builder
	for i, s := range seqs {
		fmt.Fprintf(&fa, ">read%d\n%s\n", i, s)
	}
	files := map[string][]byte{
		"reads.fastq":    []byte(writeFASTQ(seqs)),
		"reads.fastq.gz": gz.Bytes(),
		"reads.fasta":    []byte(fa.String()),
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		assert.NoError(t, ioutil.WriteFile(path, data, 0600))
		in, err := OpenInput(ctx, path, DefaultOpts)
		assert.NoError(t, err)
		var (
			r fastq.Read
			n int
		)
		for in.Scan(&r) {
			expect.EQ(t, r.Seq, seqs[n], name)
			n++
		}
		assert.NoError(t, in.Err())
		assert.NoError(t, in.Close(ctx))
		expect.EQ(t, n, len(seqs), name)
	}

	opts := DefaultOpts
	opts.SubsampleRate = 0
	in, err := OpenInput(ctx, filepath.Join(dir, "reads.fastq"), opts)
	assert.NoError(t, err)
	var r fastq.Read
	expect.False(t, in.Scan(&r))
	assert.NoError(t, in.Close(ctx))

	opts.SubsampleRate = -1
	_, err = OpenInput(ctx, filepath.Join(dir, "reads.fastq"), opts)
	expect.True(t, err != nil)
	_, err = OpenInput(ctx, filepath.Join(dir, "missing.fastq"), DefaultOpts)
	expect.True(t, err != nil)
}

func TestIsFASTA(t *testing.T) {
	expect.True(t, IsFASTA("a.fasta"))
	expect.True(t, IsFASTA("a.fa.gz"))
	expect.False(t, IsFASTA("a.fastq.gz"))
	expect.False(t, IsFASTA("a.fa.txt"))
}

var _ alleledb.Lookup = (*alleledb.Table)(nil)
