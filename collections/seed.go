package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"windquote/calculator"
)

// ── Definition structs ───────────────────────────────────────────────────

type priceItemDef struct {
	code        string
	designation string
	unit        string
	unitPrice   float64
	category    string
}

type lineDef struct {
	sortOrder   int
	designation string
	unit        string
	quantity    float64
	unitPrice   float64
	variableRef string
	formula     string
	priceCode   string
}

type sectionDef struct {
	sortOrder  int
	name       string
	multiplier float64
	lines      []lineDef
}

type lotDef struct {
	sortOrder int
	code      string
	name      string
	sections  []sectionDef
}

// defaultPriceItems is the starting unit-price database.
var defaultPriceItems = []priceItemDef{
	{"GC-01", "Installation de chantier", "fft", 45000, "Génie civil"},
	{"GC-10", "Décapage terre végétale", "m2", 2.8, "Génie civil"},
	{"GC-11", "Déblais fondation", "m3", 9.5, "Génie civil"},
	{"GC-12", "Substitution en GNT 0/31.5", "m3", 32, "Génie civil"},
	{"GC-20", "Plateforme de levage", "m2", 18.5, "Génie civil"},
	{"GC-21", "Aire de stockage", "m2", 11, "Génie civil"},
	{"VR-01", "Création de piste", "ml", 95, "Voirie"},
	{"VR-02", "Renforcement de piste existante", "ml", 48, "Voirie"},
	{"VR-03", "Empierrement de piste", "m2", 16.5, "Voirie"},
	{"FD-01", "Béton de fondation C30/37", "m3", 165, "Fondation"},
	{"FD-02", "Pieux forés", "u", 5200, "Fondation"},
	{"EL-01", "Câble HTA 3x240 mm²", "ml", 38, "Électricité"},
	{"EL-02", "Tranchée HTA", "ml", 27, "Électricité"},
	{"EL-03", "Poste de livraison", "u", 180000, "Électricité"},
}

// SeedPriceItems fills the unit-price database. It is safe to call on
// every startup because it returns early if any price item exists.
func SeedPriceItems(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId("price_items")
	if err != nil {
		return fmt.Errorf("seed: could not find price_items collection: %w", err)
	}
	existing, err := app.FindAllRecords(col)
	if err != nil {
		return fmt.Errorf("seed: could not query price_items: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, d := range defaultPriceItems {
		r := core.NewRecord(col)
		r.Set("code", d.code)
		r.Set("designation", d.designation)
		r.Set("unit", d.unit)
		r.Set("unit_price", d.unitPrice)
		r.Set("category", d.category)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: save price item %q: %w", d.code, err)
		}
	}

	zap.L().Info("seeded price items", zap.Int("count", len(defaultPriceItems)))
	return nil
}

// demoInput is the engineering input of the seeded quote: four turbines
// on gravity foundations, two access tracks and one HTA run.
func demoInput() calculator.EngineeringInput {
	diameter := calculator.Number(18)
	return calculator.EngineeringInput{
		Global: calculator.GlobalParams{TurbineCount: 4, TurbineType: "V136"},
		Turbines: []calculator.TurbineRecord{
			{Name: "E01", PlatformSurface: 1800, StorageSurface: 900, SubstitutionHeight: 0.5, FoundationType: calculator.FoundationGravity},
			{Name: "E02", PlatformSurface: 1750, StorageSurface: 900, SubstitutionHeight: 0.4, FoundationType: calculator.FoundationGravity},
			{Name: "E03", PlatformSurface: 1820, StorageSurface: 850, FoundationType: calculator.FoundationGravity},
			{Name: "E04", PlatformSurface: 1790, StorageSurface: 880, SubstitutionHeight: 0.6, FoundationType: calculator.FoundationPiled},
		},
		AccessSegments: []calculator.AccessSegmentRecord{
			{Name: "A1", Length: 1250, Width: 5, Kind: calculator.AccessCreation},
			{Name: "A2", Length: 640, Width: 4.5, Kind: calculator.AccessReinforcement},
		},
		HTACables: []calculator.CableSegmentRecord{
			{Name: "PDL_E01", Length: 2100, TrenchLength: 1950, Section: "3x240"},
		},
		Design: calculator.DesignParams{
			FoundationDiameter: &diameter,
			SafetyMargin:       1,
			SlopeRatio:         "3:2",
			CageHeight:         3.5,
		},
	}
}

var demoLots = []lotDef{
	{1, "L1", "Génie civil", []sectionDef{
		{1, "Fondations", 1, []lineDef{
			{1, "Déblais fondation", "m3", 0, 9.5, "$fond_vol_terr_total", "", "GC-11"},
			{2, "Substitution en GNT 0/31.5", "m3", 0, 32, "$sum_vol_sub", "", "GC-12"},
			{3, "Béton de fondation C30/37", "m3", 0, 165, "", "$nb_fond_gravitaire * 320", "FD-01"},
			{4, "Pieux forés", "u", 0, 5200, "", "$nb_fond_pieux * 16", "FD-02"},
		}},
		{2, "Plateformes et pistes", 1, []lineDef{
			{1, "Installation de chantier", "fft", 1, 45000, "", "", "GC-01"},
			{2, "Plateforme de levage", "m2", 0, 18.5, "$sum_surf_PF", "", "GC-20"},
			{3, "Aire de stockage", "m2", 0, 11, "$sum_surf_stock", "", "GC-21"},
			{4, "Création de piste", "ml", 0, 95, "$sum_l_acc_creation", "", "VR-01"},
			{5, "Renforcement de piste existante", "ml", 0, 48, "$sum_l_acc_renforcement", "", "VR-02"},
		}},
	}},
	{2, "L2", "Électricité", []sectionDef{
		{1, "Réseau HTA", 1, []lineDef{
			{1, "Câble HTA 3x240 mm²", "ml", 0, 38, "", "$sum_l_hta * 1,05", "EL-01"},
			{2, "Tranchée HTA", "ml", 0, 27, "$sum_l_tr", "", "EL-02"},
			{3, "Poste de livraison", "u", 1, 180000, "", "", "EL-03"},
		}},
	}},
}

// SeedDemoProject inserts one project with a fully configured quote. It is
// safe to call on every startup because it returns early if any project
// exists. Price items are linked by code when present.
func SeedDemoProject(app *pocketbase.PocketBase) error {
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}
	existing, err := app.FindAllRecords(projectsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	zap.L().Info("seed: projects collection is empty, inserting demo project")

	quotesCol, err := app.FindCollectionByNameOrId("quotes")
	if err != nil {
		return fmt.Errorf("seed: could not find quotes collection: %w", err)
	}
	lotsCol, err := app.FindCollectionByNameOrId("lots")
	if err != nil {
		return fmt.Errorf("seed: could not find lots collection: %w", err)
	}
	sectionsCol, err := app.FindCollectionByNameOrId("sections")
	if err != nil {
		return fmt.Errorf("seed: could not find sections collection: %w", err)
	}
	linesCol, err := app.FindCollectionByNameOrId("lines")
	if err != nil {
		return fmt.Errorf("seed: could not find lines collection: %w", err)
	}

	priceIDs := make(map[string]string)
	if col, err := app.FindCollectionByNameOrId("price_items"); err == nil {
		items, _ := app.FindAllRecords(col)
		for _, it := range items {
			priceIDs[it.GetString("code")] = it.Id
		}
	}

	return app.RunInTransaction(func(txApp core.App) error {
		project := core.NewRecord(projectsCol)
		project.Set("name", "Parc éolien des Hauts Champs")
		project.Set("client", "Hauts Champs Energies SAS")
		project.Set("site", "Marne (51)")
		project.Set("status", "active")
		if err := txApp.Save(project); err != nil {
			return fmt.Errorf("seed: save project: %w", err)
		}

		quote := core.NewRecord(quotesCol)
		quote.Set("project", project.Id)
		quote.Set("title", "Offre BOP génie civil et électricité")
		quote.Set("version", 1)
		quote.Set("status", "draft")
		quote.Set("settings", demoInput())
		if err := txApp.Save(quote); err != nil {
			return fmt.Errorf("seed: save quote: %w", err)
		}

		for _, ld := range demoLots {
			lot := core.NewRecord(lotsCol)
			lot.Set("quote", quote.Id)
			lot.Set("sort_order", ld.sortOrder)
			lot.Set("code", ld.code)
			lot.Set("name", ld.name)
			if err := txApp.Save(lot); err != nil {
				return fmt.Errorf("seed: save lot %q: %w", ld.name, err)
			}

			for _, sd := range ld.sections {
				section := core.NewRecord(sectionsCol)
				section.Set("lot", lot.Id)
				section.Set("sort_order", sd.sortOrder)
				section.Set("name", sd.name)
				section.Set("multiplier", sd.multiplier)
				if err := txApp.Save(section); err != nil {
					return fmt.Errorf("seed: save section %q: %w", sd.name, err)
				}

				for _, d := range sd.lines {
					r := core.NewRecord(linesCol)
					r.Set("section", section.Id)
					r.Set("sort_order", d.sortOrder)
					r.Set("designation", d.designation)
					r.Set("unit", d.unit)
					r.Set("quantity", d.quantity)
					r.Set("unit_price", d.unitPrice)
					r.Set("variable_ref", d.variableRef)
					r.Set("formula", d.formula)
					if id, ok := priceIDs[d.priceCode]; ok {
						r.Set("price_item", id)
					}
					if err := txApp.Save(r); err != nil {
						return fmt.Errorf("seed: save line %q: %w", d.designation, err)
					}
				}
			}
		}

		zap.L().Info("seed: demo project inserted", zap.String("project", project.Id), zap.String("quote", quote.Id))
		return nil
	})
}
