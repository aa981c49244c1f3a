package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/export"
	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/internal/workflow"
)

var (
	rankPrefs  string
	rankOut    string
	rankFormat string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the catalog against a preferences file",
	Long:  "Filters and ranks the community catalog using preferences loaded from a JSON or YAML file, skipping transcription and extraction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		prefs, err := model.LoadPreferencesFile(rankPrefs)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "rank")
		if err != nil {
			return err
		}
		defer env.Close()

		rs, err := env.Ranker.Rank(ctx, prefs)
		if err != nil {
			return eris.Wrap(err, "rank")
		}
		p := workflow.Present(ctx, env.Explainer, prefs, rs, cfg.Ranking.TopN)

		switch rankFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(p); err != nil {
				return eris.Wrap(err, "encode results")
			}
		case "text", "":
			formatPresentation(os.Stdout, p)
		default:
			return eris.Errorf("unknown format %q (want text or json)", rankFormat)
		}

		if rankOut != "" {
			files, err := export.WriteFiles(rankOut, prefs.PatientName, rs)
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

func init() {
	rankCmd.Flags().StringVar(&rankPrefs, "prefs", "", "preferences file (.json, .yaml)")
	rankCmd.Flags().StringVar(&rankOut, "out", "", "directory for CSV and XLSX exports")
	rankCmd.Flags().StringVar(&rankFormat, "format", "text", "output format: text or json")
	_ = rankCmd.MarkFlagRequired("prefs")
	rootCmd.AddCommand(rankCmd)
}
