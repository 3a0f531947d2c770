package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windquote/store"
)

func sampleExportData(t *testing.T) ExportData {
	t.Helper()
	sum := BuildQuoteSummary(sampleLots(), sampleCatalog())
	q := store.Quote{ID: "q1", Title: "Offre BOP", Version: 2, Created: "2026-03-02"}
	return BuildExportData(q, "Parc des Hauts Champs", sum, ExportOptions{Company: "Windquote SAS"})
}

func TestBuildExportData_FlattensTree(t *testing.T) {
	data := sampleExportData(t)

	assert.Equal(t, "EUR", data.Currency, "currency defaults to EUR")
	assert.Equal(t, 2, data.Version)

	var indexes []string
	for _, r := range data.Rows {
		indexes = append(indexes, r.Index)
	}
	assert.Equal(t, []string{"1", "1.1", "1.1.1", "1.1.2", "1.2", "1.2.1", "2", "2.1", "2.1.1"}, indexes)

	assert.Equal(t, LevelLot, data.Rows[0].Level)
	assert.Equal(t, "L1 - Génie civil", data.Rows[0].Designation)
	assert.Equal(t, LevelSection, data.Rows[4].Level)
	assert.Equal(t, 2.0, data.Rows[4].Multiplier)
}

func TestBuildExportData_RowsCarryResolvedQuantities(t *testing.T) {
	data := sampleExportData(t)

	require.Equal(t, LevelLine, data.Rows[2].Level)
	assert.Equal(t, 3100.0, data.Rows[2].Quantity, "reference resolved, not the stored mirror")
	assert.Equal(t, 1280.0, data.Rows[5].Quantity, "formula evaluated")
	assert.Equal(t, 50.0, data.Rows[8].Quantity, "broken formula falls back to the literal")
	assert.Equal(t, "524755", data.CAPEX.String())
}
