package main

import (
	"github.com/spf13/cobra"

	"zk-sampler/proofverifier"
)

func newVerifyCmd() *cobra.Command {
	var bundle string
	opts := proofverifier.Options{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a proof bundle offline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()
			_, err := proofverifier.ValidateWithOptions(bundle, opts)
			return err
		},
	}

	cmd.Flags().StringVarP(&bundle, "bundle", "b", "", "proof bundle JSON file")
	cmd.Flags().StringVar(&opts.ExpectedProver, "expected-prover", "", "address the proof must be signed by")
	cmd.Flags().StringVar(&opts.OriginalWAV, "original", "", "original WAV to check against the record")
	cmd.Flags().StringVar(&opts.TransformedWAV, "transformed", "", "transformed WAV to check against the record")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}
