// Package fasta streams reads stored in the legacy FASTA layout, where each
// entry is one read and sequence lines may be wrapped:
//
// >read1 optional description
// ACGTAC
// GAGGAC
// >read2
// ACGT
//
// Reads are returned in FASTQ shape so the rest of the pipeline handles both
// formats alike. FASTA carries no qualities, so the quality string is a copy
// of the sequence and must not be interpreted.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/grailbio/forensic/encoding/fastq"
	"github.com/pkg/errors"
)

// maxLine bounds the length of a single FASTA line.
const maxLine = 1 << 20

// Scanner reads FASTA entries one at a time. It implements fastq.Source.
// Scanners are not threadsafe.
type Scanner struct {
	b       *bufio.Scanner
	err     error
	pending string // header of the next entry, without '>'
	seq     strings.Builder
	done    bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64<<10), maxLine)
	return &Scanner{b: b}
}

// Scan fills read with the next entry. The ID gets a leading '@' and Unk is
// "+", as in a FASTQ record.
func (s *Scanner) Scan(read *fastq.Read) bool {
	if s.err != nil || s.done {
		return false
	}
	for s.pending == "" {
		if !s.b.Scan() {
			s.done = true
			s.err = s.b.Err()
			return false
		}
		line := bytes.TrimRight(s.b.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] != '>' {
			s.err = errors.Errorf("malformed FASTA: sequence line before first header: %q", string(line))
			return false
		}
		s.pending = string(line[1:])
		if s.pending == "" {
			s.err = errors.New("malformed FASTA: empty header")
			return false
		}
	}
	header := s.pending
	s.pending = ""
	s.seq.Reset()
	for s.b.Scan() {
		line := bytes.TrimRight(s.b.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if s.pending = string(line[1:]); s.pending == "" {
				s.err = errors.New("malformed FASTA: empty header")
				return false
			}
			break
		}
		s.seq.Write(line)
	}
	if err := s.b.Err(); err != nil {
		s.err = err
		return false
	}
	seq := s.seq.String()
	*read = fastq.Read{ID: "@" + header, Seq: seq, Unk: "+", Qual: seq}
	return true
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error { return s.err }
