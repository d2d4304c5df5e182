package main

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/aligner"
	"github.com/yumyai/hlalocus/pkg/db"
	"github.com/yumyai/hlalocus/pkg/locus"
	"github.com/yumyai/hlalocus/pkg/orient"
	"github.com/yumyai/hlalocus/pkg/reader"
	"github.com/yumyai/hlalocus/pkg/sequence"
	"github.com/yumyai/hlalocus/pkg/stage"
)

var resolveModes = []string{"dict", "best", "amplicon", "phased"}

// stager returns a Stager, with an S3 client only when one of paths needs it.
func (a *app) stager(ctx context.Context, paths ...string) (*stage.Stager, error) {
	s := &stage.Stager{Dir: a.cfg.StageDir}
	if !slices.ContainsFunc(paths, stage.IsRemote) {
		return s, nil
	}
	client, err := stage.NewS3Client(ctx, stage.S3Config{
		Region:    a.cfg.S3Region,
		Endpoint:  a.cfg.S3Endpoint,
		PathStyle: a.cfg.S3PathStyle,
	})
	if err != nil {
		return nil, err
	}
	s.Client = client
	return s, nil
}

// options carries the configured naming rules; metrics are attached by the caller.
func (a *app) options() locus.Options {
	return locus.Options{Normalize: a.normalize, LocusName: a.locusName}
}

func newResolveCommand(a *app) *cobra.Command {
	var (
		input, mode, reference, output string
		referenceFromStore             bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Assign a locus to every sequence named by the input and write a locus key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(resolveModes, mode) {
				return fmt.Errorf("unknown mode %q, expected one of %v", mode, resolveModes)
			}
			if referenceFromStore && a.cfg.Keystore == "" {
				return fmt.Errorf("--reference-from-keystore needs --keystore")
			}
			ctx := cmd.Context()

			s, err := a.stager(ctx, input, reference, output)
			if err != nil {
				return err
			}
			localInput, err := s.Localize(ctx, input)
			if err != nil {
				return err
			}
			localOutput, err := s.LocalOutput(output)
			if err != nil {
				return err
			}

			var store *db.KeyStore
			if a.cfg.Keystore != "" {
				if store, err = db.Open(a.cfg.Keystore); err != nil {
					return err
				}
				defer store.Close()
			}

			opts := a.options()
			opts.Metrics = a.metrics
			if reference != "" {
				ref, err := loadReference(ctx, s, store, reference, referenceFromStore, a.options())
				if err != nil {
					return err
				}
				opts.Reference = ref
			}

			results, err := resolve(mode, localInput, opts)
			if err != nil {
				return err
			}
			logger.Info("Resolved loci", zap.String("mode", mode), zap.Int("entries", results.Len()))

			if err := (&locus.Dictionary{Assignments: results, Path: localInput}).Write(localOutput); err != nil {
				return err
			}
			if store != nil {
				if _, err := store.Save(ctx, input, results); err != nil {
					return err
				}
			}
			return s.Publish(ctx, localOutput, output)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "evidence file (fofn, txt, m1, m5, sam) or phased contig manifest")
	f.StringVarP(&mode, "mode", "m", "dict", "resolution mode: dict, best, amplicon or phased")
	f.StringVarP(&reference, "reference", "r", "", "dictionary translating targets to loci")
	f.BoolVar(&referenceFromStore, "reference-from-keystore", false, "load --reference as a source name from the key store")
	f.StringVarP(&output, "output", "o", "", "locus key file to write")
	f.StringVar(&a.cfg.Keystore, "keystore", a.cfg.Keystore, "sqlite path or postgres:// DSN to store the key in")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func loadReference(ctx context.Context, s *stage.Stager, store *db.KeyStore, reference string, fromStore bool, opts locus.Options) (locus.Reference, error) {
	if fromStore {
		ref, runID, err := store.Load(ctx, reference)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded reference from key store", zap.String("source", reference), zap.String("ref_run_id", runID))
		return ref, nil
	}
	local, err := s.Localize(ctx, reference)
	if err != nil {
		return nil, err
	}
	ref, err := locus.NewDictionary(local, opts)
	if err != nil {
		return nil, err
	}
	return ref.Assignments, nil
}

func resolve(mode, input string, opts locus.Options) (*locus.Assignments, error) {
	switch mode {
	case "dict":
		d, err := locus.NewDictionary(input, opts)
		if err != nil {
			return nil, err
		}
		return d.Assignments, nil
	case "phased":
		return locus.ResolvePhased(input, opts)
	}

	r, closer, err := reader.Open(input)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	if mode == "best" {
		return locus.ResolveBest(r, opts)
	}
	return locus.ResolveAmplicon(r, opts)
}

func newFilterCommand(a *app) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep the lowest edit score blasr -m 5 alignment of every query",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.stager(ctx, input, output)
			if err != nil {
				return err
			}
			localInput, err := s.Localize(ctx, input)
			if err != nil {
				return err
			}
			localOutput, err := s.LocalOutput(output)
			if err != nil {
				return err
			}
			if err := locus.FilterFile(localInput, localOutput, locus.Options{Metrics: a.metrics}); err != nil {
				return err
			}
			return s.Publish(ctx, localOutput, output)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "blasr -m 5 alignment file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "filtered m5 file to write")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newOrientCommand(a *app) *cobra.Command {
	var input, reference, alignment, output string
	cmd := &cobra.Command{
		Use:   "orient",
		Short: "Reverse complement sequences that align to the opposite strand of their reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dest, err := orientDestination(input, output)
			if err != nil {
				return err
			}
			s, err := a.stager(ctx, input, reference, alignment, dest)
			if err != nil {
				return err
			}
			local := make([]string, 0, 3)
			for _, p := range []string{input, reference, alignment} {
				if p == "" {
					local = append(local, p)
					continue
				}
				l, err := s.Localize(ctx, p)
				if err != nil {
					return err
				}
				local = append(local, l)
			}
			localOutput := dest
			if dest != "" {
				if localOutput, err = s.LocalOutput(dest); err != nil {
					return err
				}
			}

			o := &orient.Orienter{
				Aligner:   &aligner.Blasr{Binary: a.cfg.Blasr, Nproc: a.cfg.Nproc},
				Normalize: a.normalize,
				Width:     a.cfg.FastaWidth,
				Metrics:   a.metrics,
			}
			written, err := o.OrientFile(ctx, local[0], local[1], local[2], localOutput)
			if err != nil {
				return err
			}
			logger.Info("Oriented sequences", zap.String("output", written))
			if dest == "" {
				return nil
			}
			return s.Publish(ctx, written, dest)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "FASTA or FASTQ sequences")
	f.StringVarP(&reference, "reference", "r", "", "reference FASTA to align against when no alignment is given")
	f.StringVarP(&alignment, "alignment", "a", "", "existing m1, m5 or sam alignment of the input")
	f.StringVarP(&output, "output", "o", "", "output file, defaults to <input>.oriented.<type> (next to an s3:// input)")
	f.StringVar(&a.cfg.Blasr, "blasr", a.cfg.Blasr, "blasr executable")
	f.IntVar(&a.cfg.Nproc, "nproc", a.cfg.Nproc, "blasr threads")
	f.IntVar(&a.cfg.FastaWidth, "fasta-width", a.cfg.FastaWidth, "FASTA line width")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// orientDestination is where oriented sequences end up. A remote input with no
// output is published next to itself, as a local input would be written.
func orientDestination(input, output string) (string, error) {
	if output != "" || !stage.IsRemote(input) {
		return output, nil
	}
	t, err := sequence.FileType(input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.oriented.%s", strings.TrimSuffix(input, path.Ext(input)), t), nil
}
