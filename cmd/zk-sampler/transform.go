package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"zk-sampler/dsp"
	"zk-sampler/shared"
	"zk-sampler/wavio"
)

type transformOptions struct {
	input      string
	output     string
	reverse    bool
	pitch      int32
	stretch    float64
	transforms string
}

func newTransformCmd(a *app) *cobra.Command {
	opts := &transformOptions{}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Apply transformations to a WAV file",
		Long: `Apply transformations to a mono 16-bit WAV file.

Flags are applied in the order reverse, pitch, stretch. A transformations
JSON file replaces the flags entirely:
  zk-sampler transform -i in.wav -o out.wav --transforms transform.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := opts.list(cmd)
			if err != nil {
				return err
			}
			return runTransform(cmd, a.zapLogger(), opts, ops)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input WAV file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output WAV file")
	cmd.Flags().BoolVar(&opts.reverse, "reverse", false, "reverse the audio")
	cmd.Flags().Int32Var(&opts.pitch, "pitch", 0, "pitch shift in semitones (can be negative)")
	cmd.Flags().Float64Var(&opts.stretch, "stretch", 1, "time stretch factor (0.5 plays twice as fast)")
	cmd.Flags().StringVar(&opts.transforms, "transforms", "", "transformations JSON file")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	cmd.MarkFlagsMutuallyExclusive("transforms", "reverse")
	cmd.MarkFlagsMutuallyExclusive("transforms", "pitch")
	cmd.MarkFlagsMutuallyExclusive("transforms", "stretch")

	return cmd
}

func (o *transformOptions) list(cmd *cobra.Command) (shared.TransformList, error) {
	if o.transforms != "" {
		data, err := os.ReadFile(o.transforms)
		if err != nil {
			return nil, fmt.Errorf("failed to read transformations: %w", err)
		}
		return shared.ParseTransformList(data)
	}

	var ops shared.TransformList
	if o.reverse {
		ops = append(ops, shared.Reverse())
	}
	if cmd.Flags().Changed("pitch") {
		ops = append(ops, shared.PitchShift(o.pitch))
	}
	if cmd.Flags().Changed("stretch") {
		ops = append(ops, shared.TimeStretch(o.stretch))
	}
	return ops, nil
}

func runTransform(cmd *cobra.Command, logger *zap.Logger, opts *transformOptions, ops shared.TransformList) error {
	buf, err := wavio.ReadFile(opts.input)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, op := range ops {
		fmt.Fprintf(out, "Applying %s...\n", op)
	}

	result, err := dsp.NewPipeline(logger).Apply(buf, ops)
	if err != nil {
		return err
	}
	if err := wavio.WriteFile(opts.output, result); err != nil {
		return err
	}

	fmt.Fprintf(out, "Saved transformed audio to %s (%d samples at %d Hz)\n",
		opts.output, len(result.Samples), result.SampleRate)
	return nil
}
