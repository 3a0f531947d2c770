// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"windquote/calculator"
	"windquote/collections"
	"windquote/quantity"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

func save(t *testing.T, app *pocketbase.PocketBase, collection string, fields map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}

	record := core.NewRecord(col)
	for k, v := range fields {
		record.Set(k, v)
	}
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s record: %v", collection, err)
	}
	return record
}

// CreateTestProject creates a project record with the given name and returns it.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()
	return save(t, app, "projects", map[string]any{
		"name":   name,
		"status": "active",
	})
}

// CreateTestQuote creates a version 1 draft quote in a project. A nil input
// leaves the calculator unconfigured.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, projectID, title string, input *calculator.EngineeringInput) *core.Record {
	t.Helper()
	fields := map[string]any{
		"project": projectID,
		"title":   title,
		"version": 1,
		"status":  "draft",
	}
	if input != nil {
		fields["settings"] = input
	}
	return save(t, app, "quotes", fields)
}

// CreateTestLot creates a lot in a quote.
func CreateTestLot(t *testing.T, app *pocketbase.PocketBase, quoteID, name string) *core.Record {
	t.Helper()
	return save(t, app, "lots", map[string]any{
		"quote":      quoteID,
		"sort_order": 1,
		"code":       "L1",
		"name":       name,
	})
}

// CreateTestSection creates a section in a lot with the given multiplier.
func CreateTestSection(t *testing.T, app *pocketbase.PocketBase, lotID, name string, multiplier float64) *core.Record {
	t.Helper()
	return save(t, app, "sections", map[string]any{
		"lot":        lotID,
		"sort_order": 1,
		"name":       name,
		"multiplier": multiplier,
	})
}

// CreateTestLine appends a billed line whose quantity columns come from q.
func CreateTestLine(t *testing.T, app *pocketbase.PocketBase, sectionID, designation string, q quantity.Quantity, unitPrice float64) *core.Record {
	t.Helper()
	literal, ref, expr := q.Stored()
	existing, _ := app.FindRecordsByFilter("lines", "section = {:s}", "", 0, 0, map[string]any{"s": sectionID})
	return save(t, app, "lines", map[string]any{
		"section":      sectionID,
		"sort_order":   len(existing) + 1,
		"designation":  designation,
		"unit":         "u",
		"quantity":     literal,
		"unit_price":   unitPrice,
		"variable_ref": ref,
		"formula":      expr,
	})
}

// CreateTestPriceItem creates an entry in the unit-price database.
func CreateTestPriceItem(t *testing.T, app *pocketbase.PocketBase, code, designation, unit string, unitPrice float64) *core.Record {
	t.Helper()
	return save(t, app, "price_items", map[string]any{
		"code":        code,
		"designation": designation,
		"unit":        unit,
		"unit_price":  unitPrice,
		"category":    "Test",
	})
}

// SampleInput is a small configured engineering input: two turbines, one
// access track, one cable and an 18 m foundation.
func SampleInput() *calculator.EngineeringInput {
	d := calculator.Number(18)
	return &calculator.EngineeringInput{
		Global: calculator.GlobalParams{TurbineCount: 2, TurbineType: "N149"},
		Turbines: []calculator.TurbineRecord{
			{Name: "E01", PlatformSurface: 1500, StorageSurface: 800, FoundationType: calculator.FoundationGravity},
			{Name: "E02", PlatformSurface: 1600, StorageSurface: 700, FoundationType: calculator.FoundationPiled},
		},
		AccessSegments: []calculator.AccessSegmentRecord{
			{Name: "A1", Length: 1000, Width: 5, Kind: calculator.AccessCreation},
		},
		HTACables: []calculator.CableSegmentRecord{
			{Name: "C1", Length: 2000, TrenchLength: 1800, Section: "3x240"},
		},
		Design: calculator.DesignParams{
			FoundationDiameter: &d,
			SafetyMargin:       1,
			SlopeRatio:         "1:1",
			CageHeight:         3.5,
		},
	}
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
