// Readers for blasr tabular output.

package reader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yumyai/hlalocus/pkg/model"
)

// Column positions of `blasr -m 1`:
// qname tname qstrand tstrand score pctsimilarity tstart tend tlength qstart qend qlength ncells
const (
	m1QName = iota
	m1TName
	m1QStrand
	m1TStrand
	m1MinFields
)

// Column positions of `blasr -m 5`:
// qName qLength qStart qEnd qStrand tName tLength tStart tEnd tStrand score numMatch numMismatch numIns numDel mapQV qAlignedSeq matchPattern tAlignedSeq
const (
	m5QName     = 0
	m5QStrand   = 4
	m5TName     = 5
	m5TStrand   = 9
	m5Mismatch  = 12
	m5Ins       = 13
	m5Del       = 14
	m5MinFields = 15
)

type parseFunc func(fields []string) (model.Alignment, error)

// tabularReader walks a whitespace separated file one record per line.
type tabularReader struct {
	scanner *bufio.Scanner
	source  string
	line    int
	parse   parseFunc
}

func newTabularReader(r io.Reader, source string, parse parseFunc) *tabularReader {
	scanner := bufio.NewScanner(r)
	// m5 rows carry the full aligned sequences, long reads overflow the default buffer.
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &tabularReader{scanner: scanner, source: source, parse: parse}
}

func (tr *tabularReader) Read() (model.Alignment, error) {
	for tr.scanner.Scan() {
		tr.line++
		text := strings.TrimRight(tr.scanner.Text(), "\r")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		aln, err := tr.parse(fields)
		if err != nil {
			return model.Alignment{}, &model.RecordError{Source: tr.source, Line: tr.line, Msg: err.Error()}
		}
		aln.Line = text
		return aln, nil
	}
	if err := tr.scanner.Err(); err != nil {
		return model.Alignment{}, fmt.Errorf("reading %s: %w", tr.source, err)
	}
	return model.Alignment{}, io.EOF
}

// NewM1Reader reads single-best-hit summaries (blasr -m 1).
func NewM1Reader(r io.Reader, source string) model.AlignmentReader {
	return newTabularReader(r, source, parseM1)
}

// NewM5Reader reads alignment summaries with edit counts (blasr -m 5).
func NewM5Reader(r io.Reader, source string) model.AlignmentReader {
	return newTabularReader(r, source, parseM5)
}

func parseM1(fields []string) (model.Alignment, error) {
	if len(fields) < m1MinFields {
		return model.Alignment{}, fmt.Errorf("expected at least %d fields, found %d", m1MinFields, len(fields))
	}
	qstrand, err := model.ParseStrand(fields[m1QStrand])
	if err != nil {
		return model.Alignment{}, err
	}
	tstrand, err := model.ParseStrand(fields[m1TStrand])
	if err != nil {
		return model.Alignment{}, err
	}
	return model.Alignment{
		Query:        fields[m1QName],
		Target:       fields[m1TName],
		QueryStrand:  qstrand,
		TargetStrand: tstrand,
	}, nil
}

func parseM5(fields []string) (model.Alignment, error) {
	if len(fields) < m5MinFields {
		return model.Alignment{}, fmt.Errorf("expected at least %d fields, found %d", m5MinFields, len(fields))
	}
	qstrand, err := model.ParseStrand(fields[m5QStrand])
	if err != nil {
		return model.Alignment{}, err
	}
	tstrand, err := model.ParseStrand(fields[m5TStrand])
	if err != nil {
		return model.Alignment{}, err
	}

	var counts [3]int
	for i, col := range []int{m5Mismatch, m5Ins, m5Del} {
		n, err := strconv.Atoi(fields[col])
		if err != nil || n < 0 {
			return model.Alignment{}, fmt.Errorf("invalid edit count %q in column %d", fields[col], col+1)
		}
		counts[i] = n
	}

	return model.Alignment{
		Query:        fields[m5QName],
		Target:       fields[m5TName],
		QueryStrand:  qstrand,
		TargetStrand: tstrand,
		HasCounts:    true,
		Mismatches:   counts[0],
		Insertions:   counts[1],
		Deletions:    counts[2],
	}, nil
}
