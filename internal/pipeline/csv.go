package pipeline

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/leadscope/audit-cli/internal/model"
)

// ParseRequestsCSV reads a prospect CSV and returns audit requests. Columns:
// url (required), business_type, contact_email, contact_name, operators,
// campaign_id. Rows are deduplicated by URL; blank-URL rows are skipped.
func ParseRequestsCSV(csvPath string) ([]model.AuditRequest, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("pipeline: csv has no data rows")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIdx["url"]; !ok {
		return nil, eris.New(`pipeline: missing required column "url"`)
	}

	seen := make(map[string]bool)
	var reqs []model.AuditRequest

	for _, row := range records[1:] {
		rawURL := strings.ToLower(getCol(row, colIdx, "url"))
		if rawURL == "" {
			continue
		}
		if seen[rawURL] {
			continue
		}
		seen[rawURL] = true

		bt := model.BusinessType(getCol(row, colIdx, "business_type"))
		if bt == "" {
			bt = model.BusinessTypeSingleOperator
		}

		operators := 0
		if raw := getCol(row, colIdx, "operators"); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
				operators = n
			}
		}

		reqs = append(reqs, model.AuditRequest{
			URL:                rawURL,
			BusinessType:       bt,
			ContactEmail:       getCol(row, colIdx, "contact_email"),
			ContactName:        getCol(row, colIdx, "contact_name"),
			EstimatedOperators: operators,
			CampaignID:         getCol(row, colIdx, "campaign_id"),
		})
	}

	if len(reqs) == 0 {
		return nil, eris.New("pipeline: no usable rows in csv")
	}
	return reqs, nil
}

func getCol(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
