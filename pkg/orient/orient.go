// Reorients sequences so they all read in the direction of their reference.

package orient

import (
	"context"
	"fmt"

	"github.com/biogo/biogo/seq"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/aligner"
	"github.com/yumyai/hlalocus/pkg/metrics"
	"github.com/yumyai/hlalocus/pkg/model"
	"github.com/yumyai/hlalocus/pkg/naming"
	"github.com/yumyai/hlalocus/pkg/reader"
	"github.com/yumyai/hlalocus/pkg/sequence"
	"go.uber.org/zap"
)

// Reversed collects the normalized names of queries that aligned to the
// opposite strand of their target.
func Reversed(evidence []model.Alignment, normalize naming.Normalizer) map[string]struct{} {
	reversed := make(map[string]struct{})
	for _, aln := range evidence {
		if aln.Reversed() {
			reversed[normalize(aln.Query)] = struct{}{}
		}
	}
	return reversed
}

// Orient returns records in their original order, reverse-complementing those
// whose alignment in evidence disagrees with the reference strand.
// Inputs are left untouched.
func Orient(records []seq.Sequence, evidence []model.Alignment, normalize naming.Normalizer) []seq.Sequence {
	return orientBy(records, Reversed(evidence, normalize), normalize)
}

func orientBy(records []seq.Sequence, reversed map[string]struct{}, normalize naming.Normalizer) []seq.Sequence {
	out := make([]seq.Sequence, len(records))
	for i, rec := range records {
		if _, ok := reversed[normalize(rec.Name())]; ok {
			out[i] = sequence.ReverseComplement(rec)
			continue
		}
		out[i] = rec
	}
	return out
}

type Orienter struct {
	Aligner   aligner.Aligner   // used when no alignment file is given; defaults to blasr
	Normalize naming.Normalizer // defaults to naming.BaseName
	Width     int               // FASTA line width
	Metrics   *metrics.Recorder
}

// OrientFile writes the oriented records of input to output and returns its path.
// output defaults to "<input stem>.oriented.<input type>". An existing output is
// returned as is, so re-running a pipeline step does no work.
func (o *Orienter) OrientFile(ctx context.Context, input, reference, alignment, output string) (string, error) {
	logger.Info("Reorienting sequences to the direction of their reference", zap.String("input", input))

	inputType, err := sequence.FileType(input)
	if err != nil {
		return "", err
	}
	if output == "" {
		output = fmt.Sprintf("%s.oriented.%s", util.Stem(input), inputType)
	}
	outputType, err := sequence.FileType(output)
	if err != nil {
		logger.Error("Output file must be either Fasta or Fastq format", zap.String("output", output))
		return "", err
	}
	if outputType == sequence.FASTQ && inputType != sequence.FASTQ {
		return "", fmt.Errorf("%w: fastq output %q needs fastq input", model.ErrUnsupportedFormat, output)
	}

	if util.ValidFile(output) {
		logger.Info("Found existing output file, skipping orientation step", zap.String("output", output))
		return output, nil
	}

	alignmentFile, err := aligner.AlignmentFile(ctx, o.aligner(), input, reference, alignment)
	if err != nil {
		return "", err
	}
	evidence, err := readEvidence(alignmentFile)
	if err != nil {
		return "", err
	}
	reversed := Reversed(evidence, o.normalize)
	logger.Info("Identified sequences needing reverse complementation", zap.Int("count", len(reversed)))

	records, err := sequence.ReadAll(input)
	if err != nil {
		return "", err
	}
	oriented := orientBy(records, reversed, o.normalize)

	logger.Info("Writing out sequences", zap.String("output", output))
	if err := sequence.Write(output, oriented, outputType, o.Width); err != nil {
		return "", err
	}
	if !util.ValidFile(output) {
		return "", fmt.Errorf("%w: %s", model.ErrOutputNotProduced, output)
	}

	flipped := 0
	for i := range records {
		if oriented[i] != records[i] {
			flipped++
		}
	}
	o.Metrics.Sequences("reversed", flipped)
	o.Metrics.Sequences("kept", len(records)-flipped)
	return output, nil
}

func (o *Orienter) aligner() aligner.Aligner {
	if o.Aligner == nil {
		return &aligner.Blasr{}
	}
	return o.Aligner
}

func (o *Orienter) normalize(raw string) string {
	if o.Normalize == nil {
		return naming.BaseName(raw)
	}
	return o.Normalize(raw)
}

func readEvidence(path string) ([]model.Alignment, error) {
	r, closer, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return reader.ReadAll(r)
}
