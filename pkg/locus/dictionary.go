package locus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/model"
	"github.com/yumyai/hlalocus/pkg/reader"
	"go.uber.org/zap"
)

// Format is the encoding a Dictionary is built from, chosen once from the
// input file extension.
type Format int

const (
	FormatManifest Format = iota // fofn: "<fasta path> <locus>" per line
	FormatKey                    // txt: "<sequence id> <locus>" per line
	FormatM1                     // m1: blasr best-hit summary
	FormatSAM                    // sam
)

var formatNames = map[Format]string{
	FormatManifest: "fofn",
	FormatKey:      "txt",
	FormatM1:       "m1",
	FormatSAM:      "sam",
}

func (f Format) String() string {
	return formatNames[f]
}

// ParseFormat maps an input path to its Format, or ErrUnsupportedFormat.
func ParseFormat(path string) (Format, error) {
	ext := util.Extension(path)
	for f, name := range formatNames {
		if name == ext {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognized alignment file-type %q", model.ErrUnsupportedFormat, path)
}

type loader func(path string, opts Options) (*Assignments, error)

var loaders = map[Format]loader{
	FormatManifest: loadManifest,
	FormatKey:      loadKeyFile,
	FormatM1:       loadM1,
	FormatSAM:      loadSAM,
}

// Dictionary is the locus assignment of every sequence named by one input file.
type Dictionary struct {
	*Assignments
	Path   string
	Format Format
}

// NewDictionary builds the assignments encoded in path. Either the whole
// file resolves or an error is returned; there is no partial dictionary.
func NewDictionary(path string, opts Options) (*Dictionary, error) {
	format, err := ParseFormat(path)
	if err != nil {
		logger.Info("Rejecting dictionary input", zap.String("file", path), zap.Error(err))
		return nil, err
	}
	logger.Info("Initializing ReferenceDict",
		zap.String("input", filepath.Base(path)),
		zap.Stringer("format", format),
		zap.Bool("reference", opts.Reference != nil),
	)

	assignments, err := loaders[format](path, opts)
	if err != nil {
		return nil, err
	}
	return &Dictionary{Assignments: assignments, Path: path, Format: format}, nil
}

// Write persists the dictionary as a key file, reloadable with NewDictionary.
func (d *Dictionary) Write(path string) error {
	logger.Info("Writing new Locus Key", zap.String("file", path), zap.Int("entries", d.Len()))
	return d.WriteKeyFile(path)
}

func loadManifest(path string, opts Options) (*Assignments, error) {
	logger.Info("Reading Locus References", zap.String("file", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results := NewAssignments()
	read := 0
	err = reader.ScanPairs(f, filepath.Base(path), func(fastaPath, locus string) error {
		fastaPath = manifestEntry(path, fastaPath)
		logger.Info("Reading locus sequences", zap.String("locus", locus), zap.String("fasta", filepath.Base(fastaPath)))

		records, err := readFasta(fastaPath)
		if err != nil {
			return err
		}
		read += len(records)
		for _, rec := range records {
			name, err := opts.locusName(rec.Name())
			if err != nil {
				return err
			}
			if err := results.Insert(name, locus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	opts.Metrics.RecordsRead("fofn", read)
	opts.Metrics.Assigned("fofn", results.Len())
	logger.Info("Finished reading Locus References")
	return results, nil
}

func loadKeyFile(path string, opts Options) (*Assignments, error) {
	logger.Info("Reading existing Locus Key", zap.String("file", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results := NewAssignments()
	if err := reader.ScanPairs(f, filepath.Base(path), results.Insert); err != nil {
		return nil, err
	}

	opts.Metrics.RecordsRead("txt", results.Len())
	opts.Metrics.Assigned("txt", results.Len())
	logger.Info("Finished reading Locus Key")
	return results, nil
}

func loadM1(path string, opts Options) (*Assignments, error) {
	logger.Info("Parsing Blasr results", zap.String("file", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results, err := ResolveUnique(reader.NewM1Reader(f, filepath.Base(path)), opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Finished reading Blasr results")
	return results, nil
}

func loadSAM(path string, opts Options) (*Assignments, error) {
	logger.Info("Parsing SAM alignments", zap.String("file", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := reader.NewSAMReader(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	results, err := ResolveUnique(r, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Finished reading SAM file results")
	return results, nil
}
