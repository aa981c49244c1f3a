package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/placement-cli/pkg/transcribe"
)

var transcribeAudio string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe a consultation recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ext := transcribe.NormalizeExt(filepath.Ext(transcribeAudio))
		if !transcribe.Supported(ext) {
			return eris.Errorf("unsupported audio format %q", ext)
		}
		data, err := os.ReadFile(transcribeAudio)
		if err != nil {
			return eris.Wrap(err, "read audio")
		}

		env, err := initEnv(ctx, "transcribe")
		if err != nil {
			return err
		}
		defer env.Close()

		text, err := env.Transcriber.Transcribe(ctx, data, ext)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, text)
		return nil
	},
}

func init() {
	transcribeCmd.Flags().StringVar(&transcribeAudio, "audio", "", "consultation recording")
	_ = transcribeCmd.MarkFlagRequired("audio")
	rootCmd.AddCommand(transcribeCmd)
}
