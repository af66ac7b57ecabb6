package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zk-sampler/commitment"
	"zk-sampler/wavio"
)

func newHashCmd() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the audio fingerprint of a WAV file",
		Long: `Print the SHA-256 fingerprint of a WAV file's samples, serialized as
little-endian 16-bit integers. This is the value committed in proofs and
signed by attestations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buf, err := wavio.ReadFile(input)
			if err != nil {
				return err
			}
			fp := commitment.Of(buf.Samples).Hex()
			fmt.Fprintln(cmd.OutOrStdout(), fp)

			if output != "" {
				if err := os.WriteFile(output, []byte(fp+"\n"), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input WAV file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the fingerprint to this file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
