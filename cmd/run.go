package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/export"
	"github.com/sells-group/placement-cli/internal/workflow"
)

var (
	runAudio     string
	runBudget    float64
	runCareLevel string
	runOut       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full intake pipeline for one recording",
	Long:  "Transcribes the recording, extracts the client's preferences, ranks the catalog and prints the top matches per priority tier.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(runAudio)
		if err != nil {
			return eris.Wrap(err, "read audio")
		}

		env, err := initEnv(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		ctl := env.newController()
		if err := ctl.Upload(runAudio, data); err != nil {
			return err
		}
		if err := ctl.Confirm(); err != nil {
			return err
		}

		// Stop before ranking so flag overrides apply to the extracted preferences.
		for ctl.Step() != workflow.StepRank {
			before := ctl.Step()
			if err := ctl.Run(ctx); err != nil {
				return err
			}
			if ctl.Step() == before {
				if err := ctl.Confirm(); err != nil {
					return err
				}
			}
		}

		if a, ok := runAmendment(cmd); ok {
			if err := ctl.AmendPreferences(a); err != nil {
				return err
			}
		}

		if err := ctl.Complete(ctx); err != nil {
			return err
		}

		v := ctl.Snapshot()
		formatPreferences(os.Stdout, v.Preferences)
		fmt.Fprintln(os.Stdout)
		formatPresentation(os.Stdout, v.Presentation)

		if runOut != "" {
			files, err := export.WriteFiles(runOut, v.Preferences.PatientName, v.Results)
			if err != nil {
				return err
			}
			for _, f := range files {
				zap.L().Info("wrote export", zap.String("path", f))
			}
		}
		return nil
	},
}

func runAmendment(cmd *cobra.Command) (workflow.Amendment, bool) {
	var a workflow.Amendment
	changed := false
	if cmd.Flags().Changed("budget") {
		b := runBudget
		a.MaxBudget = &b
		changed = true
	}
	if cmd.Flags().Changed("care-level") {
		c := runCareLevel
		a.CareLevel = &c
		changed = true
	}
	return a, changed
}

func init() {
	runCmd.Flags().StringVar(&runAudio, "audio", "", "consultation recording (mp3, wav, m4a, webm, ...)")
	runCmd.Flags().Float64Var(&runBudget, "budget", 0, "override the extracted monthly budget (0 removes it)")
	runCmd.Flags().StringVar(&runCareLevel, "care-level", "", "override the extracted care level")
	runCmd.Flags().StringVar(&runOut, "out", "", "directory for CSV and XLSX exports")
	_ = runCmd.MarkFlagRequired("audio")
	rootCmd.AddCommand(runCmd)
}
