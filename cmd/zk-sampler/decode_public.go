package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zk-sampler/publicrecord"
)

func newDecodePublicCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "decode-public",
		Short: "Decode a proof's public values",
		Long: `Decode the ABI-encoded public values of a proof. The input file may hold
the raw 128 bytes or their 0x-prefixed hex form.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}

			var record publicrecord.Record
			if trimmed := bytes.TrimSpace(data); bytes.HasPrefix(trimmed, []byte("0x")) {
				record, err = publicrecord.DecodeHex(string(trimmed))
			} else {
				record, err = publicrecord.Decode(data)
			}
			if err != nil {
				return err
			}

			view := record.Hex()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Public values decoded:")
			fmt.Fprintf(out, "- Original audio hash: %s\n", view.OriginalAudioHash)
			fmt.Fprintf(out, "- Transformed audio hash: %s\n", view.TransformedAudioHash)
			fmt.Fprintf(out, "- Signer address: %s\n", record.Identity.Hex())
			fmt.Fprintf(out, "- Has signature: %t\n", view.HasSignature)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "public values file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
