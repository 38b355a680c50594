package main

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/db"
	"github.com/leadscope/audit-cli/internal/model"
	"github.com/leadscope/audit-cli/internal/store"
)

var (
	leadsStatus   string
	leadsCampaign string
	leadsMinScore int
	leadsLimit    int

	leadsConvertRef string

	leadsImportCSV  string
	leadsImportCopy bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and manage leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads ordered by sales priority",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "leads")
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.Store.ListLeads(ctx, store.LeadFilter{
			Status:     model.LeadStatus(leadsStatus),
			CampaignID: leadsCampaign,
			MinScore:   leadsMinScore,
			Limit:      leadsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "leads: list")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(leads)
	},
}

var leadsConvertCmd = &cobra.Command{
	Use:   "convert <lead-id>",
	Short: "Mark a lead converted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "leads")
		if err != nil {
			return err
		}
		defer env.Close()

		applied, err := env.Store.ConvertLead(ctx, args[0], leadsConvertRef, model.ConversionSources())
		if err != nil {
			return eris.Wrap(err, "leads: convert")
		}
		if !applied {
			return eris.Errorf("leads: lead %s is already in a terminal state", args[0])
		}

		zap.L().Info("lead converted", zap.String("lead_id", args[0]), zap.String("ref", leadsConvertRef))
		return nil
	},
}

var leadsRejectCmd = &cobra.Command{
	Use:   "reject <lead-id>",
	Short: "Mark a lead rejected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "leads")
		if err != nil {
			return err
		}
		defer env.Close()

		applied, err := env.Store.TransitionLead(ctx, args[0], model.LeadStatusRejected, model.TransitionSources(model.LeadStatusRejected))
		if err != nil {
			return eris.Wrap(err, "leads: reject")
		}
		if !applied {
			return eris.Errorf("leads: lead %s is already in a terminal state", args[0])
		}

		zap.L().Info("lead rejected", zap.String("lead_id", args[0]))
		return nil
	},
}

var leadsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import leads from CSV (postgres only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "leads")
		if err != nil {
			return err
		}
		defer env.Close()

		ps, ok := env.Store.(*store.PostgresStore)
		if !ok {
			return eris.New("leads: import requires the postgres store driver")
		}

		rows, err := parseLeadRows(leadsImportCSV)
		if err != nil {
			return err
		}

		columns := []string{"id", "contact_email", "contact_name", "website_url", "business_type", "status", "campaign_id"}

		var inserted int64
		if leadsImportCopy {
			// Plain COPY: fastest path for a fresh table, fails on duplicates.
			inserted, err = db.CopyFrom(ctx, ps.Pool(), "leads", columns, rows)
		} else {
			inserted, err = db.BulkUpsert(ctx, ps.Pool(), db.UpsertConfig{
				Table:        "leads",
				Columns:      columns,
				ConflictKeys: []string{"contact_email"},
				// Leave status alone so re-imports never reset the state machine.
				UpdateCols: []string{"contact_name", "website_url", "business_type", "campaign_id"},
			}, rows)
		}
		if err != nil {
			return eris.Wrap(err, "leads: import")
		}

		zap.L().Info("import complete",
			zap.Int64("rows", inserted),
			zap.String("csv", leadsImportCSV),
		)
		return nil
	},
}

// parseLeadRows reads a lead CSV into COPY-ready rows. Columns:
// contact_email (required), contact_name, website_url, business_type,
// campaign_id.
func parseLeadRows(csvPath string) ([][]any, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "leads: open csv")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "leads: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("leads: csv has no data rows")
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIdx["contact_email"]; !ok {
		return nil, eris.New(`leads: missing required column "contact_email"`)
	}

	cell := func(row []string, name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows [][]any
	for _, record := range records[1:] {
		email := cell(record, "contact_email")
		if email == "" {
			continue
		}
		bt := cell(record, "business_type")
		if bt == "" {
			bt = string(model.BusinessTypeSingleOperator)
		}
		var campaign any
		if c := cell(record, "campaign_id"); c != "" {
			campaign = c
		}
		rows = append(rows, []any{
			uuid.New().String(),
			email,
			cell(record, "contact_name"),
			cell(record, "website_url"),
			bt,
			string(model.LeadStatusNew),
			campaign,
		})
	}
	if len(rows) == 0 {
		return nil, eris.New("leads: no usable rows in csv")
	}
	return rows, nil
}

func init() {
	leadsListCmd.Flags().StringVar(&leadsStatus, "status", "", "filter by status")
	leadsListCmd.Flags().StringVar(&leadsCampaign, "campaign", "", "filter by campaign ID")
	leadsListCmd.Flags().IntVar(&leadsMinScore, "min-score", 0, "minimum lead score")
	leadsListCmd.Flags().IntVar(&leadsLimit, "limit", 50, "max leads to return")

	leadsConvertCmd.Flags().StringVar(&leadsConvertRef, "ref", "", "conversion reference (deal or invoice ID)")

	leadsImportCmd.Flags().StringVar(&leadsImportCSV, "csv", "", "path to lead CSV (required)")
	leadsImportCmd.Flags().BoolVar(&leadsImportCopy, "copy", false, "use plain COPY instead of upsert")
	_ = leadsImportCmd.MarkFlagRequired("csv")

	leadsCmd.AddCommand(leadsListCmd, leadsConvertCmd, leadsRejectCmd, leadsImportCmd)
	rootCmd.AddCommand(leadsCmd)
}
