package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/outreach"
)

var (
	emailLeadID   string
	emailCampaign string
	emailSendNow  bool
)

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Generate and send tracked outreach emails",
}

var emailsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the audit email for a lead and mint its tracking code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "campaigns")
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Store.GetLead(ctx, emailLeadID)
		if err != nil {
			return eris.Wrap(err, "emails: load lead")
		}
		analysis, err := env.Store.GetAnalysis(ctx, lead.AnalysisID)
		if err != nil {
			return eris.Wrap(err, "emails: load analysis")
		}

		rendered, err := outreach.Compose(lead, analysis)
		if err != nil {
			return err
		}

		campaignID := emailCampaign
		if campaignID == "" {
			campaignID = lead.CampaignID
		}

		email, err := env.Tracker.CreateEmail(ctx, lead.ID, campaignID, rendered.Subject, rendered.Body)
		if err != nil {
			return err
		}

		if emailSendNow {
			if err := env.Tracker.MarkSent(ctx, email); err != nil {
				return err
			}
		}

		zap.L().Info("email generated",
			zap.String("email_id", email.ID),
			zap.String("lead_id", lead.ID),
			zap.String("tracking_code", email.TrackingCode),
			zap.Bool("sent", emailSendNow),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(email)
	},
}

var emailsSendCmd = &cobra.Command{
	Use:   "send <tracking-code>",
	Short: "Mark a generated email as sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "campaigns")
		if err != nil {
			return err
		}
		defer env.Close()

		email, err := env.Store.GetEmailByCode(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "emails: load email")
		}
		if email == nil {
			return eris.Errorf("emails: no email with tracking code %s", args[0])
		}

		if err := env.Tracker.MarkSent(ctx, email); err != nil {
			return err
		}

		zap.L().Info("email sent",
			zap.String("email_id", email.ID),
			zap.String("lead_id", email.LeadID),
		)
		return nil
	},
}

func init() {
	emailsGenerateCmd.Flags().StringVar(&emailLeadID, "lead", "", "lead ID (required)")
	emailsGenerateCmd.Flags().StringVar(&emailCampaign, "campaign", "", "campaign ID (defaults to the lead's campaign)")
	emailsGenerateCmd.Flags().BoolVar(&emailSendNow, "send", false, "mark the email sent immediately")
	_ = emailsGenerateCmd.MarkFlagRequired("lead")

	emailsCmd.AddCommand(emailsGenerateCmd, emailsSendCmd)
	rootCmd.AddCommand(emailsCmd)
}
