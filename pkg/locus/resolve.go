package locus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/biogo/seq"

	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/model"
	"github.com/yumyai/hlalocus/pkg/naming"
	"github.com/yumyai/hlalocus/pkg/reader"
	"github.com/yumyai/hlalocus/pkg/sequence"
	"go.uber.org/zap"
)

// ResolveUnique assigns every query to the target of its single alignment.
// Sources of this kind (blasr -m 1 best hits, SAM) promise one record per query,
// so a query seen twice is an ErrDuplicateAssignment.
func ResolveUnique(r model.AlignmentReader, opts Options) (*Assignments, error) {
	return resolveEach(r, opts, "unique", func(aln model.Alignment, key string) (string, error) {
		return opts.normalize(aln.Target), nil
	})
}

// ResolveAmplicon is ResolveUnique for amplicon consensus names, where the locus
// is the second "_" field of the query itself ("Barcode3_HLA-B_Cluster0").
func ResolveAmplicon(r model.AlignmentReader, opts Options) (*Assignments, error) {
	return resolveEach(r, opts, "amplicon", func(aln model.Alignment, key string) (string, error) {
		return naming.AmpliconLocus(key)
	})
}

func resolveEach(r model.AlignmentReader, opts Options, mode string, target func(model.Alignment, string) (string, error)) (*Assignments, error) {
	results := NewAssignments()
	read := 0
	for {
		aln, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		read++

		key := opts.normalize(aln.Query)
		if _, seen := results.Get(key); seen {
			logger.Info("Duplicate sequence ids found!", zap.String("qname", key))
			return nil, fmt.Errorf("%w: %q", model.ErrDuplicateAssignment, key)
		}
		raw, err := target(aln, key)
		if err != nil {
			return nil, err
		}
		locus, err := opts.translate(raw)
		if err != nil {
			return nil, err
		}
		if err := results.Insert(key, locus); err != nil {
			return nil, err
		}
	}

	opts.Metrics.RecordsRead(mode, read)
	opts.Metrics.Assigned(mode, results.Len())
	logger.Debug("Resolved alignments", zap.String("mode", mode), zap.Int("records", read), zap.Int("assigned", results.Len()))
	return results, nil
}

// ResolveBest reduces many candidate alignments per query (blasr -m 5) to the
// one with the lowest edit score. A later record only wins when strictly
// better, so among equal scores the first one read is kept.
func ResolveBest(r model.AlignmentReader, opts Options) (*Assignments, error) {
	type best struct {
		target string
		score  int
	}
	var order []string
	bests := make(map[string]*best)
	read := 0

	for {
		aln, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		read++
		if !aln.HasCounts {
			return nil, fmt.Errorf("%w: alignment of %q has no edit counts", model.ErrMalformedRecord, aln.Query)
		}

		key := opts.normalize(aln.Query)
		score := aln.EditScore()
		current, seen := bests[key]
		switch {
		case !seen:
			bests[key] = &best{target: opts.normalize(aln.Target), score: score}
			order = append(order, key)
		case score < current.score:
			current.target = opts.normalize(aln.Target)
			current.score = score
		}
	}

	results := NewAssignments()
	for _, key := range order {
		locus, err := opts.translate(bests[key].target)
		if err != nil {
			return nil, err
		}
		if err := results.Insert(key, locus); err != nil {
			return nil, err
		}
	}

	opts.Metrics.RecordsRead("best", read)
	opts.Metrics.Assigned("best", results.Len())
	logger.Debug("Selected best alignments", zap.Int("records", read), zap.Int("queries", results.Len()))
	return results, nil
}

// ResolvePhased reads a manifest of phased contig FASTA files, one path per line,
// and assigns every contig of "<dir>/<stem>.<ext>" to "<stem>_cns".
// Relative paths are opened as written, falling back to the manifest's directory.
func ResolvePhased(manifest string, opts Options) (*Assignments, error) {
	logger.Info("Parsing Phased FOFN alignments", zap.String("file", manifest))

	f, err := os.Open(manifest)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results := NewAssignments()
	read := 0
	err = reader.ScanPaths(f, filepath.Base(manifest), func(path string) error {
		path = manifestEntry(manifest, path)
		contig := strings.Split(filepath.Base(path), ".")[0] + "_cns"

		records, err := readFasta(path)
		if err != nil {
			return err
		}
		read += len(records)
		for _, rec := range records {
			if err := results.Insert(opts.normalize(rec.Name()), contig); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	opts.Metrics.RecordsRead("phased", read)
	opts.Metrics.Assigned("phased", results.Len())
	logger.Info("Finished reading phased FOFN results", zap.Int("assigned", results.Len()))
	return results, nil
}

// Manifests list FASTA files whatever their extension, so the type is not sniffed.
func readFasta(path string) ([]seq.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sequence.Read(f, sequence.FASTA, path)
}

// manifestEntry resolves a path listed in manifest. Paths are opened as
// written (relative to the working directory); the manifest's directory is
// only tried when that path does not exist.
func manifestEntry(manifest, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	alt := filepath.Join(filepath.Dir(manifest), path)
	if _, err := os.Stat(alt); err == nil {
		logger.Debug("Resolved manifest entry against its directory", zap.String("entry", path), zap.String("path", alt))
		return alt
	}
	return path
}
