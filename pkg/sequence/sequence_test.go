package sequence

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/biogo/seq"

	"github.com/yumyai/hlalocus/pkg/model"
)

func TestFileType(t *testing.T) {
	tests := []struct {
		path        string
		expected    Type
		shouldError bool
	}{
		{"reads.fasta", FASTA, false},
		{"reads.FA", FASTA, false},
		{"reads.fastq", FASTQ, false},
		{"reads.fq", FASTQ, false},
		{"reads.txt", "", true},
		{"reads", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FileType(tt.path)
			if tt.shouldError {
				if !errors.Is(err, model.ErrUnsupportedFormat) {
					t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("FileType(%q) = %q, %v; expected %q", tt.path, got, err, tt.expected)
			}
		})
	}
}

func TestFastqReverseComplement(t *testing.T) {
	records, err := Read(strings.NewReader("@read1\nAACG\n+\n!!##\n"), FASTQ, "reads.fastq")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 1 || !HasQuality(records[0]) {
		t.Fatalf("Expected one fastq record, got %d", len(records))
	}

	rc := ReverseComplement(records[0])
	if Letters(rc) != "CGTT" {
		t.Errorf("Expected CGTT, got %s", Letters(rc))
	}
	if Letters(records[0]) != "AACG" {
		t.Errorf("Original record was modified: %s", Letters(records[0]))
	}

	var out bytes.Buffer
	if err := Encode(&out, []seq.Sequence{rc}, FASTQ, 0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.String() != "@read1\nCGTT\n+\n##!!\n" {
		t.Errorf("Unexpected fastq output %q", out.String())
	}
}

func TestFastaRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "reads.fasta")
	text := ">seq1 first read\nACGTACGTAC\n>seq2\nGGGCCC\n"
	if err := os.WriteFile(in, []byte(text), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	records, err := ReadAll(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].Name() != "seq1" || records[1].Name() != "seq2" {
		t.Fatalf("Unexpected records: %d", len(records))
	}
	if HasQuality(records[0]) {
		t.Errorf("Fasta records should not carry qualities")
	}

	out := filepath.Join(dir, "wrapped.fasta")
	if err := Write(out, records, FASTA, 4); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	expected := ">seq1 first read\nACGT\nACGT\nAC\n>seq2\nGGGC\nCC\n"
	if string(written) != expected {
		t.Errorf("Unexpected fasta output %q, expected %q", written, expected)
	}
}

func TestFastqOutputNeedsQualities(t *testing.T) {
	records, err := Read(strings.NewReader(">seq1\nACGT\n"), FASTA, "reads.fasta")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var out bytes.Buffer
	if err := Encode(&out, records, FASTQ, 0); !errors.Is(err, model.ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord, got %v", err)
	}
}

func TestMalformedFastq(t *testing.T) {
	_, err := Read(strings.NewReader("@read1\nAACG\n+\n!!#\n"), FASTQ, "reads.fastq")
	if !errors.Is(err, model.ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord for length mismatch, got %v", err)
	}
}
