package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLeadCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseLeadRows(t *testing.T) {
	path := writeLeadCSV(t, `contact_email,contact_name,website_url,business_type,campaign_id
owner@fadefactory.example,Sam Doe,https://fadefactory.example,single_operator,camp-1
manager@citycuts.example,,https://citycuts.example,,
,skipped,https://nowhere.example,,
`)

	rows, err := parseLeadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2, "rows without an email are skipped")

	// id, contact_email, contact_name, website_url, business_type, status, campaign_id
	first := rows[0]
	require.Len(t, first, 7)
	assert.NotEmpty(t, first[0])
	assert.Equal(t, "owner@fadefactory.example", first[1])
	assert.Equal(t, "Sam Doe", first[2])
	assert.Equal(t, "single_operator", first[4])
	assert.Equal(t, "new", first[5])
	assert.Equal(t, "camp-1", first[6])

	second := rows[1]
	assert.Equal(t, "single_operator", second[4], "missing business type defaults")
	assert.Nil(t, second[6], "missing campaign stays NULL")
}

func TestParseLeadRows_MissingEmailColumn(t *testing.T) {
	path := writeLeadCSV(t, "email,name\nowner@x.example,Sam\n")

	_, err := parseLeadRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "contact_email"`)
}

func TestParseLeadRows_NoUsableRows(t *testing.T) {
	path := writeLeadCSV(t, "contact_email,contact_name\n,Sam\n")

	_, err := parseLeadRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable rows")
}
