package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/placement-cli/internal/model"
)

var (
	extractTranscript string
	extractFormat     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract client preferences from a transcript",
	Long:  "Reads a transcript file (or stdin with -) and prints the structured preferences the model extracted from it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		transcript, err := readInput(extractTranscript)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "extract")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Extractor.Extract(ctx, transcript)
		if err != nil {
			return err
		}
		return writePreferences(os.Stdout, res.Preferences, extractFormat)
	},
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", eris.Wrap(err, "read transcript")
	}
	return string(data), nil
}

func writePreferences(out io.Writer, p *model.Preferences, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(p), "encode preferences")
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return eris.Wrap(err, "encode preferences")
		}
		return eris.Wrap(enc.Close(), "encode preferences")
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func init() {
	extractCmd.Flags().StringVar(&extractTranscript, "transcript", "", "transcript file, or - for stdin")
	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "output format: json or yaml")
	_ = extractCmd.MarkFlagRequired("transcript")
	rootCmd.AddCommand(extractCmd)
}
