package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/model"
)

var (
	analyzeURL          string
	analyzeBusinessType string
	analyzeEmail        string
	analyzeName         string
	analyzeOperators    int
	analyzeCampaign     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Audit a single website",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		analysis, err := env.Analyzer.Run(ctx, model.AuditRequest{
			URL:                analyzeURL,
			BusinessType:       model.BusinessType(analyzeBusinessType),
			ContactEmail:       analyzeEmail,
			ContactName:        analyzeName,
			EstimatedOperators: analyzeOperators,
			CampaignID:         analyzeCampaign,
		})
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("audit complete",
			zap.String("url", analyzeURL),
			zap.Int("total_score", analysis.Result.Scores.Total),
			zap.String("label", string(analysis.Result.Label)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	},
}

var rerunCmd = &cobra.Command{
	Use:   "rerun <analysis-id>",
	Short: "Re-run a previous analysis with its original request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		prev, err := env.Store.GetAnalysis(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "rerun: load analysis")
		}

		analysis, err := env.Analyzer.Run(ctx, prev.Request)
		if err != nil {
			return eris.Wrap(err, "rerun")
		}

		zap.L().Info("re-run complete",
			zap.String("previous_id", prev.ID),
			zap.String("analysis_id", analysis.ID),
			zap.Int("total_score", analysis.Result.Scores.Total),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "website URL (required)")
	analyzeCmd.Flags().StringVar(&analyzeBusinessType, "business-type", "single_operator", "business type: single_operator, multi_operator, agency")
	analyzeCmd.Flags().StringVar(&analyzeEmail, "email", "", "contact email (creates a lead when set)")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "contact name")
	analyzeCmd.Flags().IntVar(&analyzeOperators, "operators", 0, "estimated operator headcount (0 = unknown)")
	analyzeCmd.Flags().StringVar(&analyzeCampaign, "campaign", "", "campaign ID for the created lead")
	_ = analyzeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rerunCmd)
}
