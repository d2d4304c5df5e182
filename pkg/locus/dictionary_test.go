package locus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yumyai/hlalocus/pkg/model"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		path        string
		expected    Format
		shouldError bool
	}{
		{"refs.fofn", FormatManifest, false},
		{"locus_key.txt", FormatKey, false},
		{"hits.m1", FormatM1, false},
		{"hits.SAM", FormatSAM, false},
		{"hits.m5", 0, true},
		{"hits.bam", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParseFormat(tt.path)
			if tt.shouldError {
				if !errors.Is(err, model.ErrUnsupportedFormat) {
					t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, %v; expected %v", tt.path, got, err, tt.expected)
			}
		})
	}
}

func TestUnsupportedFormatChecksBeforeReading(t *testing.T) {
	// The file does not exist: the extension must be rejected first.
	_, err := NewDictionary(filepath.Join(t.TempDir(), "missing.bam"), Options{})
	if !errors.Is(err, model.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestManifestDictionary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "locusA.fasta"), ">seq1\nACGT\n")
	writeFile(t, filepath.Join(dir, "locusB.fasta"), ">seq2\nGGCC\n")
	manifest := filepath.Join(dir, "refs.fofn")
	writeFile(t, manifest, "locusA.fasta locusA\nlocusB.fasta locusB\n")

	d, err := NewDictionary(manifest, Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := map[string]string{"seq1": "locusA", "seq2": "locusB"}
	if !reflect.DeepEqual(d.Map(), expected) {
		t.Errorf("Got %v, expected %v", d.Map(), expected)
	}
	if d.Format != FormatManifest {
		t.Errorf("Expected manifest format, got %v", d.Format)
	}

	// seq1 listed a second time under another locus.
	writeFile(t, manifest, "locusA.fasta locusA\nlocusB.fasta locusB\nlocusA.fasta locusC\n")
	if _, err := NewDictionary(manifest, Options{}); !errors.Is(err, model.ErrDuplicateAssignment) {
		t.Errorf("Expected ErrDuplicateAssignment, got %v", err)
	}
}

func TestManifestEntriesRelativeToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "refs"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "refs", "locusA.fasta"), ">seq1\nACGT\n")
	writeFile(t, filepath.Join(dir, "refs", "locusB.fasta"), ">manifestDir\nACGT\n")
	writeFile(t, filepath.Join(dir, "locusB.fasta"), ">workingDir\nACGT\n")
	writeFile(t, filepath.Join(dir, "refs", "refs.fofn"), "refs/locusA.fasta locusA\nlocusB.fasta locusB\n")
	t.Chdir(dir)

	d, err := NewDictionary(filepath.Join("refs", "refs.fofn"), Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// An entry found from the working directory wins over the manifest's directory.
	expected := map[string]string{"seq1": "locusA", "workingDir": "locusB"}
	if !reflect.DeepEqual(d.Map(), expected) {
		t.Errorf("Got %v, expected %v", d.Map(), expected)
	}
}

func TestManifestCollapsesAlleleNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hla.fasta"), ">HLA-A_01_01 allele\nACGT\n>HLA-B__07_02\nGGCC\n")
	manifest := filepath.Join(dir, "refs.fofn")
	writeFile(t, manifest, filepath.Join(dir, "hla.fasta")+" HLA-I\n")

	d, err := NewDictionary(manifest, Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := map[string]string{"HLA-A": "HLA-I", "HLA-B__07_02": "HLA-I"}
	if !reflect.DeepEqual(d.Map(), expected) {
		t.Errorf("Got %v, expected %v", d.Map(), expected)
	}
}

func TestKeyFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "hits.m1")
	writeFile(t, source, "read1 HLA-A_01 0 0 -5000\nread2 HLA-B_07 0 1 -4000\nread3 HLA-A_02 1 1 -4500\n")

	d, err := NewDictionary(source, Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	keyFile := filepath.Join(dir, "locus_key.txt")
	if err := d.Write(keyFile); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	reloaded, err := NewDictionary(keyFile, Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(d.Map(), reloaded.Map()) {
		t.Errorf("Round trip changed the mapping: %v vs %v", d.Map(), reloaded.Map())
	}

	// The duplicate rule still holds when reloading.
	text, _ := os.ReadFile(keyFile)
	writeFile(t, keyFile, string(text)+"read1 HLA-C\n")
	if _, err := NewDictionary(keyFile, Options{}); !errors.Is(err, model.ErrDuplicateAssignment) {
		t.Errorf("Expected ErrDuplicateAssignment, got %v", err)
	}
}

func TestSAMDictionaryWithReference(t *testing.T) {
	dir := t.TempDir()
	refKey := filepath.Join(dir, "reference_key.txt")
	writeFile(t, refKey, "HLA-A_01 HLA-A\nHLA-B_07 HLA-B\n")
	sam := filepath.Join(dir, "hits.sam")
	writeFile(t, sam, strings.Join([]string{
		"@SQ\tSN:HLA-A_01\tLN:3000",
		"@SQ\tSN:HLA-B_07\tLN:3100",
		"read1\t0\tHLA-A_01\t1\t60\t4M\t*\t0\t0\tACGT\tIIII",
		"read2\t16\tHLA-B_07\t1\t60\t4M\t*\t0\t0\tACGT\tIIII",
		"",
	}, "\n"))

	ref, err := NewDictionary(refKey, Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	d, err := NewDictionary(sam, Options{Reference: ref})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := map[string]string{"read1": "HLA-A", "read2": "HLA-B"}
	if !reflect.DeepEqual(d.Map(), expected) {
		t.Errorf("Got %v, expected %v", d.Map(), expected)
	}

	writeFile(t, refKey, "HLA-A_01 HLA-A\n")
	ref, err = NewDictionary(refKey, Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := NewDictionary(sam, Options{Reference: ref}); !errors.Is(err, model.ErrUnknownTarget) {
		t.Errorf("Expected ErrUnknownTarget, got %v", err)
	}
}

func TestFilterBest(t *testing.T) {
	text := `read1 3000 0 2990 + HLA-A 3000 0 3000 + -5000 2980 5 0 0 254
read2 3000 0 2990 + HLA-B 3000 0 3000 + -5000 2980 1 0 0 254
read1 3000 0 2990 + HLA-B 3000 0 3000 + -5000 2980 3 0 0 254
read1 3000 0 2990 + HLA-C 3000 0 3000 + -5000 2980 0 0 3 254
`
	dir := t.TempDir()
	in := filepath.Join(dir, "hits.m5")
	out := filepath.Join(dir, "hits.filtered.m5")
	writeFile(t, in, text)

	if err := FilterFile(in, out, Options{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(got)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "HLA-B 3000 0 3000 + -5000 2980 3 0 0") || !strings.HasPrefix(lines[1], "read2") {
		t.Errorf("Unexpected filtered output:\n%s", got)
	}

	var buf bytes.Buffer
	if _, _, err := FilterBest(&sliceReader{alns: []model.Alignment{hit("read1", "HLA-A")}}, &buf); !errors.Is(err, model.ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord, got %v", err)
	}
}
