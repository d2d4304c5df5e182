package aligner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/logger"
	"go.uber.org/zap"
)

var ErrNoEvidence = errors.New("neither an alignment file nor a reference was given")

// Aligner writes a blasr -m 1 style summary of query aligned against reference.
type Aligner interface {
	Align(ctx context.Context, query, reference, output string) error
}

// Blasr runs the blasr executable.
type Blasr struct {
	Binary    string // defaults to "blasr" on PATH
	Nproc     int
	ExtraArgs []string
}

func (b *Blasr) Align(ctx context.Context, query, reference, output string) error {
	binary := b.Binary
	if binary == "" {
		binary = "blasr"
	}
	nproc := b.Nproc
	if nproc <= 0 {
		nproc = 1
	}

	// Single best hit per query, in the m1 summary format.
	args := []string{query, reference, "-m", "1", "-bestn", "1", "-nproc", strconv.Itoa(nproc), "-out", output}
	args = append(args, b.ExtraArgs...)

	logger.Info("Aligning sequences", zap.String("query", query), zap.String("reference", reference), zap.String("output", output))
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to execute %s: %w - %s", binary, err, out)
	}
	if !util.ValidFile(output) {
		return fmt.Errorf("%s produced no alignments in %s", binary, output)
	}
	return nil
}

// AlignmentFile returns the alignment evidence for input: the given alignment
// file, an existing "<input stem>.m1", or a fresh alignment against reference.
func AlignmentFile(ctx context.Context, a Aligner, input, reference, alignment string) (string, error) {
	if alignment != "" {
		return alignment, nil
	}
	if reference == "" {
		return "", ErrNoEvidence
	}

	output := util.Stem(input) + ".m1"
	if util.ValidFile(output) {
		logger.Info("Found existing alignment file, skipping alignment", zap.String("file", output))
		return output, nil
	}
	if err := a.Align(ctx, input, reference, output); err != nil {
		return "", err
	}
	return output, nil
}
