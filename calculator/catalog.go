package calculator

import (
	"encoding/json"
	"fmt"
	"strings"

	"windquote/formula"
)

// Variable categories, used for display grouping only.
const (
	CategoryGlobal      = "Global"
	CategoryTurbines    = "Éoliennes"
	CategoryAccess      = "Accès"
	CategoryElectricity = "Électricité"
	CategoryFoundation  = "Fondation"
	CategoryTotals      = "Totaux"
)

// Variable is one named value a billed-line quantity can reference.
type Variable struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Label    string  `json:"label"`
	Category string  `json:"category"`
}

// Catalog is an immutable, ordered snapshot of variables with unique names.
// It is rebuilt wholesale from the engineering input, never patched.
type Catalog struct {
	vars  []Variable
	index map[string]int
}

// NewCatalog builds a catalog from vars in order. When a name repeats,
// the first occurrence wins and the others are dropped. BuildCatalog never
// produces repeats.
func NewCatalog(vars []Variable) Catalog {
	c := Catalog{index: make(map[string]int, len(vars))}
	for _, v := range vars {
		if _, dup := c.index[v.Name]; dup {
			continue
		}
		c.index[v.Name] = len(c.vars)
		c.vars = append(c.vars, v)
	}
	return c
}

// Lookup implements formula.Variables.
func (c Catalog) Lookup(name string) (float64, bool) {
	v, ok := c.Get(name)
	return v.Value, ok
}

func (c Catalog) Get(name string) (Variable, bool) {
	i, ok := c.index[name]
	if !ok {
		return Variable{}, false
	}
	return c.vars[i], true
}

func (c Catalog) Len() int {
	return len(c.vars)
}

func (c Catalog) IsEmpty() bool {
	return len(c.vars) == 0
}

// Variables returns a copy of the variables in catalog order.
func (c Catalog) Variables() []Variable {
	return append([]Variable(nil), c.vars...)
}

// Search returns the variables whose name or label contains query,
// case-insensitively. The leading sigil of query is ignored.
func (c Catalog) Search(query string) []Variable {
	q := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(query), "$"))
	var out []Variable
	for _, v := range c.vars {
		if q == "" ||
			strings.Contains(strings.ToLower(strings.TrimPrefix(v.Name, "$")), q) ||
			strings.Contains(strings.ToLower(v.Label), q) {
			out = append(out, v)
		}
	}
	return out
}

// CategoryGroup is a run of variables sharing a category.
type CategoryGroup struct {
	Category  string
	Variables []Variable
}

// Grouped groups variables by category, categories in order of first
// appearance.
func (c Catalog) Grouped() []CategoryGroup {
	var groups []CategoryGroup
	pos := make(map[string]int)
	for _, v := range c.vars {
		i, ok := pos[v.Category]
		if !ok {
			i = len(groups)
			pos[v.Category] = i
			groups = append(groups, CategoryGroup{Category: v.Category})
		}
		groups[i].Variables = append(groups[i].Variables, v)
	}
	return groups
}

// Unreferenceable lists names that are not a valid $identifier and so
// cannot appear in a formula.
func (c Catalog) Unreferenceable() []string {
	var out []string
	for _, v := range c.vars {
		if !formula.IsVariableName(v.Name) {
			out = append(out, v.Name)
		}
	}
	return out
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	if c.vars == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.vars)
}

// catalogBuilder accumulates variables in insertion order.
type catalogBuilder struct {
	vars []Variable
}

func (b *catalogBuilder) add(name string, value float64, label, category string) {
	b.vars = append(b.vars, Variable{Name: name, Value: value, Label: label, Category: category})
}

// addGeometry stores a geometry-derived value rounded to 2 decimals.
func (b *catalogBuilder) addGeometry(name string, value float64, label, category string) {
	b.add(name, formula.Round(value, 2), label, category)
}

// BuildCatalog derives the variable catalog from in. The order is global,
// foundation, per-turbine, turbine totals, access segments, access totals,
// cable segments, cable totals. A nil input yields an empty catalog.
func BuildCatalog(in *EngineeringInput) Catalog {
	if in == nil {
		return NewCatalog(nil)
	}

	var b catalogBuilder
	turbineCount := in.Global.TurbineCount.Float()

	b.add("$nb_eol", turbineCount, "Nombre d'éoliennes", CategoryGlobal)

	metrics, hasMetrics := ComputeFoundation(in.Design)
	if hasMetrics {
		b.add("$fond_diametre", in.Design.FoundationDiameter.Float(), "Diamètre de fondation (m)", CategoryFoundation)
		b.add("$fond_marge", in.Design.SafetyMargin.Float(), "Marge de sécurité (m)", CategoryFoundation)
		b.add("$fond_h_cage", in.Design.CageHeight.Float(), "Hauteur de cage (m)", CategoryFoundation)
		b.add("$fond_pente", metrics.SlopeCoefficient, "Coefficient de pente", CategoryFoundation)
		b.addGeometry("$fond_r_bas", metrics.BottomRadius, "Rayon en fond de fouille (m)", CategoryFoundation)
		b.addGeometry("$fond_r_haut", metrics.TopRadius, "Rayon en tête de fouille (m)", CategoryFoundation)
		b.addGeometry("$fond_surf_base", metrics.BaseSurfaceArea, "Surface en fond de fouille (m²)", CategoryFoundation)
		b.addGeometry("$fond_vol_terr", metrics.EarthworksVolume, "Volume de terrassement par fondation (m³)", CategoryFoundation)
		b.addGeometry("$fond_vol_terr_total", metrics.EarthworksVolume*turbineCount, "Volume de terrassement total (m³)", CategoryFoundation)
	}

	var sumPF, sumStock, sumSub float64
	var gravity, piled float64
	turbineSuffix := entitySuffixes("E", turbineNames(in))
	for i, t := range in.Turbines {
		n := turbineSuffix[i]
		b.add("$surf_PF_"+n, t.PlatformSurface.Float(), "Surface plateforme "+t.Name, CategoryTurbines)
		b.add("$surf_stock_"+n, t.StorageSurface.Float(), "Surface de stockage "+t.Name, CategoryTurbines)
		b.add("$h_sub_"+n, t.SubstitutionHeight.Float(), "Hauteur de substitution "+t.Name, CategoryTurbines)

		sumPF += t.PlatformSurface.Float()
		sumStock += t.StorageSurface.Float()

		if hasMetrics && t.SubstitutionHeight.Float() > 0 {
			vol := formula.Round(metrics.BaseSurfaceArea*t.SubstitutionHeight.Float(), 2)
			b.add("$vol_sub_"+n, vol, "Volume de substitution "+t.Name, CategoryTurbines)
			sumSub += vol
		}

		switch strings.ToLower(strings.TrimSpace(t.FoundationType)) {
		case FoundationGravity:
			gravity++
		case FoundationPiled:
			piled++
		}
	}
	b.add("$sum_surf_PF", sumPF, "Surface totale des plateformes", CategoryTotals)
	b.add("$sum_surf_stock", sumStock, "Surface totale de stockage", CategoryTotals)
	b.addGeometry("$sum_vol_sub", sumSub, "Volume total de substitution", CategoryTotals)
	b.add("$nb_fond_gravitaire", gravity, "Nombre de fondations gravitaires", CategoryTotals)
	b.add("$nb_fond_pieux", piled, "Nombre de fondations sur pieux", CategoryTotals)

	var sumLen, sumSurf, sumCreation, sumReinforcement float64
	accessSuffix := entitySuffixes("A", accessNames(in))
	for i, s := range in.AccessSegments {
		n := accessSuffix[i]
		length, width := s.Length.Float(), s.Width.Float()
		b.add("$l_acc_"+n, length, "Longueur accès "+s.Name, CategoryAccess)
		b.add("$larg_acc_"+n, width, "Largeur accès "+s.Name, CategoryAccess)
		b.add("$surf_acc_"+n, length*width, "Surface accès "+s.Name, CategoryAccess)

		sumLen += length
		sumSurf += length * width
		switch strings.ToLower(strings.TrimSpace(s.Kind)) {
		case AccessCreation:
			sumCreation += length
		case AccessReinforcement:
			sumReinforcement += length
		}
	}
	b.add("$sum_l_acc", sumLen, "Longueur totale des accès", CategoryTotals)
	b.add("$sum_surf_acc", sumSurf, "Surface totale des accès", CategoryTotals)
	b.add("$sum_l_acc_creation", sumCreation, "Longueur d'accès à créer", CategoryTotals)
	b.add("$sum_l_acc_renforcement", sumReinforcement, "Longueur d'accès à renforcer", CategoryTotals)

	var sumCable, sumTrench float64
	cableSuffix := entitySuffixes("C", cableNames(in))
	for i, c := range in.HTACables {
		n := cableSuffix[i]
		b.add("$l_hta_"+n, c.Length.Float(), "Longueur câble HTA "+c.Name, CategoryElectricity)
		b.add("$l_tr_"+n, c.TrenchLength.Float(), "Longueur de tranchée "+c.Name, CategoryElectricity)
		sumCable += c.Length.Float()
		sumTrench += c.TrenchLength.Float()
	}
	b.add("$sum_l_hta", sumCable, "Longueur totale de câble HTA", CategoryTotals)
	b.add("$sum_l_tr", sumTrench, "Longueur totale de tranchée", CategoryTotals)

	return NewCatalog(b.vars)
}

// suffix names an entity in its variables, falling back to a positional
// name like "E3" when the user left the name blank.
func suffix(name, prefix string, i int) string {
	if n := entityName(name); n != "" {
		return n
	}
	return fmt.Sprintf("%s%d", prefix, i+1)
}

// entitySuffixes names every entity of one kind uniquely. The first entity
// keeps a repeated name; later ones get "_2", "_3" and so on, skipping any
// name already in use.
func entitySuffixes(prefix string, names []string) []string {
	base := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for i, name := range names {
		base[i] = suffix(name, prefix, i)
		taken[base[i]] = true
	}

	out := make([]string, len(names))
	owned := make(map[string]bool, len(names))
	for i, n := range base {
		if !owned[n] {
			owned[n] = true
			out[i] = n
			continue
		}
		for k := 2; ; k++ {
			candidate := fmt.Sprintf("%s_%d", n, k)
			if !taken[candidate] {
				taken[candidate] = true
				owned[candidate] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}

func turbineNames(in *EngineeringInput) []string {
	names := make([]string, len(in.Turbines))
	for i, t := range in.Turbines {
		names[i] = t.Name
	}
	return names
}

func accessNames(in *EngineeringInput) []string {
	names := make([]string, len(in.AccessSegments))
	for i, s := range in.AccessSegments {
		names[i] = s.Name
	}
	return names
}

func cableNames(in *EngineeringInput) []string {
	names := make([]string, len(in.HTACables))
	for i, c := range in.HTACables {
		names[i] = c.Name
	}
	return names
}

// DuplicateEntityNames lists entity names used more than once within the
// same kind, once per extra use. The repeats are renamed in the catalog.
func DuplicateEntityNames(in *EngineeringInput) []string {
	if in == nil {
		return nil
	}
	var dups []string
	check := func(kind, prefix string, names []string) {
		seen := make(map[string]bool, len(names))
		for i, name := range names {
			n := suffix(name, prefix, i)
			if seen[n] {
				dups = append(dups, kind+":"+n)
			}
			seen[n] = true
		}
	}

	check("turbine", "E", turbineNames(in))
	check("access", "A", accessNames(in))
	check("cable", "C", cableNames(in))
	return dups
}
