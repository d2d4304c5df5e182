package reader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/pkg/model"
)

// Open picks the alignment reader for path by its extension (m1, m5 or sam).
// The returned closer releases the file and must be called on every path.
func Open(path string) (model.AlignmentReader, io.Closer, error) {
	ext := util.Extension(path)
	switch ext {
	case "m1", "m5", "sam":
	default:
		return nil, nil, fmt.Errorf("%w: alignment file %q (expected m1, m5 or sam)", model.ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	source := filepath.Base(path)

	switch ext {
	case "m1":
		return NewM1Reader(f, source), f, nil
	case "m5":
		return NewM5Reader(f, source), f, nil
	}

	r, err := NewSAMReader(f, source)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f, nil
}

// ReadAll drains r. Used where the evidence is small enough to hold, e.g. orientation.
func ReadAll(r model.AlignmentReader) ([]model.Alignment, error) {
	var out []model.Alignment
	for {
		aln, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, aln)
	}
}
