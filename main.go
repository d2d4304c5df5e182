package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/config"
	"github.com/yumyai/hlalocus/pkg/metrics"
	"github.com/yumyai/hlalocus/pkg/naming"
)

const VERSION = "0.1.0"

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfg       config.Config
	runID     string
	metrics   *metrics.Recorder
	normalize naming.Normalizer
	locusName naming.LocusNamer
}

func main() {
	if err := logger.InitLogger(zapcore.InfoLevel); err != nil {
		panic(err)
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	a := &app{cfg: config.Load()}
	if err := newRootCommand(a).Execute(); err != nil {
		logger.Error("Command failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hlalocus",
		Short:         "Resolve HLA locus assignments from alignment evidence",
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitLogger(logger.ParseLevel(a.cfg.LogLevel)); err != nil {
				return err
			}
			var err error
			if a.normalize, err = naming.ParseNormalizer(a.cfg.Normalize); err != nil {
				return err
			}
			if a.locusName, err = naming.ParseLocusNamer(a.cfg.LocusName); err != nil {
				return err
			}
			a.runID = uuid.NewString()
			logger.With(zap.String("run_id", a.runID))
			a.metrics = metrics.NewRecorder()
			logger.Info("Start:", zap.String("Version", VERSION), zap.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.MetricsFile == "" {
				return nil
			}
			logger.Debug("Writing metrics", zap.String("file", a.cfg.MetricsFile))
			return a.metrics.WriteTextfile(a.cfg.MetricsFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&a.cfg.MetricsFile, "metrics-file", a.cfg.MetricsFile, "write prometheus counters to this file on success")
	flags.StringVar(&a.cfg.StageDir, "stage-dir", a.cfg.StageDir, "local directory for s3:// inputs and outputs")
	flags.StringVar(&a.cfg.Normalize, "normalize", a.cfg.Normalize, "query name normalizer: base or identity")
	flags.StringVar(&a.cfg.LocusName, "locus-name", a.cfg.LocusName, "reference record naming in fofn manifests: first-field or whole")

	root.AddCommand(newResolveCommand(a), newFilterCommand(a), newOrientCommand(a))
	return root
}
