// FASTA/FASTQ containers backed by biogo.

package sequence

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/pkg/model"
)

type Type string

const (
	FASTA Type = "fasta"
	FASTQ Type = "fastq"

	// Line width of written FASTA records.
	DefaultWidth = 60
)

var typeByExtension = map[string]Type{
	"fasta": FASTA,
	"fa":    FASTA,
	"fna":   FASTA,
	"fas":   FASTA,
	"fastq": FASTQ,
	"fq":    FASTQ,
}

// FileType reports the container family of path from its extension.
func FileType(path string) (Type, error) {
	if t, ok := typeByExtension[util.Extension(path)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q is neither fasta nor fastq", model.ErrUnsupportedFormat, path)
}

// ReadAll loads every record of a FASTA or FASTQ file in file order.
func ReadAll(path string) ([]seq.Sequence, error) {
	t, err := FileType(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, t, path)
}

// Read parses r as the given container type; source names r in errors.
func Read(r io.Reader, t Type, source string) ([]seq.Sequence, error) {
	var sr seqio.Reader
	switch t {
	case FASTA:
		sr = fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant))
	case FASTQ:
		sr = fastq.NewReader(r, linear.NewQSeq("", nil, alphabet.DNAredundant, alphabet.Sanger))
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, t)
	}

	var records []seq.Sequence
	sc := seqio.NewScanner(sr)
	for sc.Next() {
		records = append(records, sc.Seq())
	}
	if err := sc.Error(); err != nil {
		return nil, &model.RecordError{Source: source, Record: len(records) + 1, Msg: err.Error()}
	}
	return records, nil
}

// Write serializes records to path. FASTA lines wrap at width columns.
func Write(path string, records []seq.Sequence, t Type, width int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	buf := bufio.NewWriter(f)
	if err := Encode(buf, records, t, width); err != nil {
		return err
	}
	return buf.Flush()
}

// Encode writes records to w in the given container format.
func Encode(w io.Writer, records []seq.Sequence, t Type, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}

	var write func(seq.Sequence) (int, error)
	switch t {
	case FASTA:
		write = fasta.NewWriter(w, width).Write
	case FASTQ:
		write = fastq.NewWriter(w).Write
	default:
		return fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, t)
	}

	for _, s := range records {
		if t == FASTQ && !HasQuality(s) {
			return fmt.Errorf("%w: %q has no quality values for fastq output", model.ErrMalformedRecord, s.Name())
		}
		if _, err := write(s); err != nil {
			return fmt.Errorf("writing %q: %w", s.Name(), err)
		}
	}
	return nil
}

// HasQuality reports whether s carries per-base qualities (i.e. came from FASTQ).
func HasQuality(s seq.Sequence) bool {
	_, ok := s.(*linear.QSeq)
	return ok
}

// ReverseComplement returns a reverse-complemented copy of s.
// Qualities are reversed in lock-step with the bases and keep their values.
func ReverseComplement(s seq.Sequence) seq.Sequence {
	rc := s.Clone()
	rc.RevComp()
	return rc
}

// Letters renders the bases of s, mostly for reporting and tests.
func Letters(s seq.Sequence) string {
	b := make([]byte, s.Len())
	for i := range b {
		b[i] = byte(s.At(i).L)
	}
	return string(b)
}
