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
	campaignName      string
	campaignNewStatus string
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Manage outreach campaigns",
}

var campaignsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign in draft state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if campaignName == "" {
			return eris.New("campaigns: name is required")
		}

		env, err := initEnv(ctx, "campaigns")
		if err != nil {
			return err
		}
		defer env.Close()

		campaign, err := env.Store.CreateCampaign(ctx, campaignName)
		if err != nil {
			return eris.Wrap(err, "campaigns: create")
		}

		zap.L().Info("campaign created",
			zap.String("campaign_id", campaign.ID),
			zap.String("name", campaign.Name),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(campaign)
	},
}

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "campaigns")
		if err != nil {
			return err
		}
		defer env.Close()

		campaigns, err := env.Store.ListCampaigns(ctx)
		if err != nil {
			return eris.Wrap(err, "campaigns: list")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(campaigns)
	},
}

var campaignsStatusCmd = &cobra.Command{
	Use:   "status <campaign-id>",
	Short: "Update a campaign's lifecycle state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status := model.CampaignStatus(campaignNewStatus)
		switch status {
		case model.CampaignStatusDraft, model.CampaignStatusActive, model.CampaignStatusPaused, model.CampaignStatusCompleted:
		default:
			return eris.Errorf("campaigns: unknown status %q", campaignNewStatus)
		}

		env, err := initEnv(ctx, "campaigns")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.UpdateCampaignStatus(ctx, args[0], status); err != nil {
			return eris.Wrap(err, "campaigns: update status")
		}

		zap.L().Info("campaign status updated",
			zap.String("campaign_id", args[0]),
			zap.String("status", string(status)),
		)
		return nil
	},
}

var campaignsStatsCmd = &cobra.Command{
	Use:   "stats <campaign-id>",
	Short: "Show derived campaign counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "campaigns")
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.Store.GetCampaignStats(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "campaigns: stats")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	campaignsCreateCmd.Flags().StringVar(&campaignName, "name", "", "campaign name (required)")
	_ = campaignsCreateCmd.MarkFlagRequired("name")

	campaignsStatusCmd.Flags().StringVar(&campaignNewStatus, "status", "", "new status: draft, active, paused, completed")
	_ = campaignsStatusCmd.MarkFlagRequired("status")

	campaignsCmd.AddCommand(campaignsCreateCmd, campaignsListCmd, campaignsStatusCmd, campaignsStatsCmd)
	rootCmd.AddCommand(campaignsCmd)
}
