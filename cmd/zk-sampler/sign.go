package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zk-sampler/attestation"
	"zk-sampler/commitment"
	"zk-sampler/shared"
	"zk-sampler/wavio"
)

func newSignCmd() *cobra.Command {
	var input, keyHex, output string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign the fingerprint of a WAV file",
		Long: `Sign the fingerprint of a WAV file with a secp256k1 key and print the
signature_data JSON accepted by the prove endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keyHex == "" {
				keyHex = os.Getenv("SIGNER_PRIVATE_KEY")
			}
			if keyHex == "" {
				return shared.NewConfigurationError("key", "--key or SIGNER_PRIVATE_KEY is required")
			}
			kp, err := shared.SigningKeyPairFromHex(keyHex)
			if err != nil {
				return err
			}

			buf, err := wavio.ReadFile(input)
			if err != nil {
				return err
			}
			att, err := attestation.NewAttestation(commitment.Of(buf.Samples), kp.PrivateKey)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(shared.HexSignatureData{
				Signature: shared.EncodeHex(att.Signature),
				PublicKey: shared.EncodeHex(att.PublicKey),
			}, "", "  ")
			if err != nil {
				return err
			}
			if output != "" {
				return os.WriteFile(output, append(data, '\n'), 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "WAV file to sign")
	cmd.Flags().StringVar(&keyHex, "key", "", "hex private key (defaults to SIGNER_PRIVATE_KEY)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON here instead of stdout")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
