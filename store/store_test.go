package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windquote/calculator"
	"windquote/quantity"
	"windquote/store"
	"windquote/testhelpers"
)

func TestLoadEngineeringInput_Unconfigured(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "Q", nil)

	in, err := store.New(app).LoadEngineeringInput(quote.Id)
	require.NoError(t, err)
	assert.Nil(t, in)

	cat, err := store.New(app).Catalog(quote.Id)
	require.NoError(t, err)
	assert.True(t, cat.IsEmpty())
}

func TestLoadEngineeringInput_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	_, err := store.New(app).LoadEngineeringInput("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveEngineeringInput_RoundTrip(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "Q", nil)
	s := store.New(app)

	in := testhelpers.SampleInput()
	require.NoError(t, s.SaveEngineeringInput(quote.Id, *in))

	got, err := s.LoadEngineeringInput(quote.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *in, *got)

	cat, err := s.Catalog(quote.Id)
	require.NoError(t, err)
	v, ok := cat.Lookup("$nb_eol")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestLoadEngineeringInput_LooseJSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "Q", nil)

	quote.Set("settings", `{"global":{"turbine_count":"3","turbine_type":"V150"},"turbines":[{"name":"E1","platform_surface":"1 200"}],"design":{"foundation_diameter":null}}`)
	require.NoError(t, app.Save(quote))

	in, err := store.New(app).LoadEngineeringInput(quote.Id)
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, calculator.Number(3), in.Global.TurbineCount)
	assert.Nil(t, in.Design.FoundationDiameter)
	require.Len(t, in.Turbines, 1)
}

func TestLoadLines_ResolvesVariants(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "Q", testhelpers.SampleInput())
	lot := testhelpers.CreateTestLot(t, app, quote.Id, "Lot")
	section := testhelpers.CreateTestSection(t, app, lot.Id, "S", 1)

	testhelpers.CreateTestLine(t, app, section.Id, "literal", quantity.Literal(3), 10)
	testhelpers.CreateTestLine(t, app, section.Id, "ref", quantity.Ref("$nb_eol", 1), 10)
	testhelpers.CreateTestLine(t, app, section.Id, "formula", quantity.Formula("$nb_eol * 2", 1), 10)

	s := store.New(app)
	lines, err := s.LoadLines(lot.Id)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	kinds := map[string]quantity.Kind{}
	for _, l := range lines {
		kinds[l.Designation] = l.Quantity.Kind
	}
	assert.Equal(t, quantity.KindLiteral, kinds["literal"])
	assert.Equal(t, quantity.KindVariableRef, kinds["ref"])
	assert.Equal(t, quantity.KindFormula, kinds["formula"])

	_, err = s.LoadLines("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateLine_QuantityClearsOtherVariant(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "Q", nil)
	lot := testhelpers.CreateTestLot(t, app, quote.Id, "Lot")
	section := testhelpers.CreateTestSection(t, app, lot.Id, "S", 1)
	line := testhelpers.CreateTestLine(t, app, section.Id, "L", quantity.Ref("$nb_eol", 4), 10)

	s := store.New(app)
	q := quantity.Formula("2 * 3", 6)
	price := 12.5
	require.NoError(t, s.UpdateLine(line.Id, store.LineUpdate{Quantity: &q, UnitPrice: &price}))

	got, err := s.LoadLine(line.Id)
	require.NoError(t, err)
	assert.Equal(t, q, got.Quantity)
	assert.Equal(t, 12.5, got.UnitPrice)
	assert.Equal(t, "L", got.Designation)

	rec, _ := app.FindRecordById("lines", line.Id)
	assert.Empty(t, rec.GetString("variable_ref"))
	assert.Equal(t, "2 * 3", rec.GetString("formula"))

	err = s.UpdateLine("missing", store.LineUpdate{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateQuote_NextVersion(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	s := store.New(app)

	q1, err := s.CreateQuote(proj.Id, "Offre")
	require.NoError(t, err)
	q2, err := s.CreateQuote(proj.Id, "Offre bis")
	require.NoError(t, err)

	assert.Equal(t, 1, q1.Version)
	assert.Equal(t, 2, q2.Version)

	quotes, err := s.ListQuotes(proj.Id)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, q2.ID, quotes[0].ID, "newest version first")
}

func TestDuplicateQuote_DeepCopy(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "Q", testhelpers.SampleInput())
	lot := testhelpers.CreateTestLot(t, app, quote.Id, "Lot")
	section := testhelpers.CreateTestSection(t, app, lot.Id, "S", 2)
	testhelpers.CreateTestLine(t, app, section.Id, "ref", quantity.Ref("$sum_surf_PF", 3100), 18.5)
	testhelpers.CreateTestLine(t, app, section.Id, "formula", quantity.Formula("$nb_eol * 2", 4), 10)

	s := store.New(app)
	dup, err := s.DuplicateQuote(quote.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, dup.Version)
	assert.Equal(t, "draft", dup.Status)
	assert.NotEqual(t, quote.Id, dup.ID)

	in, err := s.LoadEngineeringInput(dup.ID)
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, *testhelpers.SampleInput(), *in)

	lots, err := s.LoadLots(dup.ID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.Len(t, lots[0].Sections, 1)
	assert.Equal(t, 2.0, lots[0].Sections[0].Multiplier)
	require.Len(t, lots[0].Sections[0].Lines, 2)
	assert.Equal(t, quantity.Ref("$sum_surf_PF", 3100), lots[0].Sections[0].Lines[0].Quantity)
	assert.Equal(t, quantity.Formula("$nb_eol * 2", 4), lots[0].Sections[0].Lines[1].Quantity)

	// the source is untouched
	orig, err := s.LoadLots(quote.Id)
	require.NoError(t, err)
	assert.Len(t, orig[0].Sections[0].Lines, 2)
}

func TestDuplicateQuote_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	_, err := store.New(app).DuplicateQuote("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateLine_SortOrderAndParents(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	s := store.New(app)

	q, err := s.CreateQuote(proj.Id, "Q")
	require.NoError(t, err)
	lot, err := s.CreateLot(q.ID, "L1", "Lot")
	require.NoError(t, err)
	sec, err := s.CreateSection(lot.ID, "S", 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sec.Multiplier)

	a, err := s.CreateLine(sec.ID, store.NewLine{Designation: "a", Quantity: quantity.Literal(1)})
	require.NoError(t, err)
	b, err := s.CreateLine(sec.ID, store.NewLine{Designation: "b", Quantity: quantity.Literal(2)})
	require.NoError(t, err)
	assert.Equal(t, 1, a.SortOrder)
	assert.Equal(t, 2, b.SortOrder)

	quoteID, err := s.QuoteOfLine(b.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, quoteID)

	require.NoError(t, s.Delete("lots", lot.ID))
	_, err = s.LoadLine(a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPriceItems_CRUDAndSearch(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	s := store.New(app)

	a, err := s.CreatePriceItem(store.PriceItem{Code: "GC-01", Designation: "Décapage terre végétale", Unit: "m²", UnitPrice: 2.5, Category: "Génie civil"})
	require.NoError(t, err)
	_, err = s.CreatePriceItem(store.PriceItem{Code: "EL-01", Designation: "Câble HTA", Unit: "ml", UnitPrice: 48, Category: "Électricité"})
	require.NoError(t, err)

	_, err = s.CreatePriceItem(store.PriceItem{Code: "GC-01", Designation: "Doublon"})
	assert.ErrorIs(t, err, store.ErrDuplicateCode)

	all, err := s.ListPriceItems("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "EL-01", all[0].Code, "ordered by code")

	found, err := s.ListPriceItems("câble")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "EL-01", found[0].Code)

	price := 3.0
	updated, err := s.UpdatePriceItem(a.ID, store.PriceItemUpdate{UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.UnitPrice)
	assert.Equal(t, "GC-01", updated.Code)

	taken := "EL-01"
	_, err = s.UpdatePriceItem(a.ID, store.PriceItemUpdate{Code: &taken})
	assert.ErrorIs(t, err, store.ErrDuplicateCode)

	_, err = s.UpdatePriceItem("missing", store.PriceItemUpdate{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportPriceItems_Upserts(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestPriceItem(t, app, "GC-01", "Décapage", "m²", 2.5)
	s := store.New(app)

	created, updated, err := s.ImportPriceItems([]store.PriceItem{
		{Code: "GC-01", Designation: "Décapage", Unit: "m²", UnitPrice: 2.8},
		{Code: "GC-02", Designation: "Remblai", Unit: "m³", UnitPrice: 14},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)

	ids, err := s.PriceItemIDsByCode()
	require.NoError(t, err)
	require.Len(t, ids, 2)

	item, err := s.LoadPriceItem(ids["GC-01"])
	require.NoError(t, err)
	assert.Equal(t, 2.8, item.UnitPrice)
}

func TestImportLines_AppendsInOrder(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "P")
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "Q", nil)
	lot := testhelpers.CreateTestLot(t, app, quote.Id, "Lot")
	section := testhelpers.CreateTestSection(t, app, lot.Id, "S", 1)
	testhelpers.CreateTestLine(t, app, section.Id, "existing", quantity.Literal(1), 1)
	s := store.New(app)

	n, err := s.ImportLines(section.Id, []store.NewLine{
		{Designation: "a", Quantity: quantity.Literal(2)},
		{Designation: "b", Quantity: quantity.Ref("$nb_eol", 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines, err := s.LoadSectionLines(section.Id)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"existing", "a", "b"}, []string{lines[0].Designation, lines[1].Designation, lines[2].Designation})
	assert.Equal(t, 3, lines[2].SortOrder)

	_, err = s.ImportLines("missing", []store.NewLine{{Designation: "x"}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
