package locus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/model"
	"github.com/yumyai/hlalocus/pkg/reader"
	"go.uber.org/zap"
)

// FilterBest copies to w, for each query name as written, the source line of
// its lowest edit score alignment (first one on ties), in first-seen order.
func FilterBest(r model.AlignmentReader, w io.Writer) (read, kept int, err error) {
	var order []string
	selected := make(map[string]model.Alignment)

	for {
		aln, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return read, 0, err
		}
		read++
		if !aln.HasCounts {
			return read, 0, fmt.Errorf("%w: alignment of %q has no edit counts", model.ErrMalformedRecord, aln.Query)
		}

		current, seen := selected[aln.Query]
		if !seen {
			order = append(order, aln.Query)
		}
		if !seen || aln.EditScore() < current.EditScore() {
			selected[aln.Query] = aln
		}
	}

	bw := bufio.NewWriter(w)
	for _, q := range order {
		if _, err := fmt.Fprintln(bw, selected[q].Line); err != nil {
			return read, 0, err
		}
	}
	return read, len(order), bw.Flush()
}

// FilterFile filters the blasr -m 5 file input into output.
func FilterFile(input, output string, opts Options) error {
	logger.Info("Filtering Blasr M5 results", zap.String("file", input))

	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	read, kept, err := FilterBest(reader.NewM5Reader(in, filepath.Base(input)), out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if kept > 0 && !util.ValidFile(output) {
		return fmt.Errorf("%w: %s", model.ErrOutputNotProduced, output)
	}

	opts.Metrics.RecordsRead("m5", read)
	logger.Info("Selected best alignments", zap.Int("selected", kept), zap.Int("alignments", read))
	return nil
}
