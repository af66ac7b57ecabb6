package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"zk-sampler/shared"
)

// app carries state shared by subcommands once the root has run
type app struct {
	verbose bool
	logger  *shared.Logger
}

func (a *app) zapLogger() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "zk-sampler",
		Short: "Transform, fingerprint and verify audio samples",
		Long: `zk-sampler applies deterministic audio transformations to mono 16-bit WAV
files and works with the fingerprints, signatures and proof bundles the
proving services produce.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !a.verbose {
				a.logger = shared.WrapLogger("cli", zap.NewNop())
				return nil
			}
			logger, err := shared.NewLogger(shared.LoggerConfig{
				ServiceName: "cli",
				Development: true,
			})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newTransformCmd(a),
		newHashCmd(),
		newDecodePublicCmd(),
		newSignCmd(),
		newVerifyCmd(),
	)
	return cmd
}
