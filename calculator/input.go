// Package calculator turns the engineering input of a quote version
// (turbines, access roads, HTA cables and foundation design) into the
// catalog of named variables that billed-line quantities can reference.
package calculator

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Number is a float that tolerates loosely typed JSON: numbers, numeric
// strings with a dot or comma decimal, booleans and null. Anything that
// cannot be read as a finite number becomes 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*n = 0
		return nil
	}
	*n = Number(ToFloat(raw))
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

// ToFloat coerces v to a finite float64, defaulting to 0.
func ToFloat(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Foundation types a turbine can carry.
const (
	FoundationGravity = "gravitaire"
	FoundationPiled   = "pieux"
)

// Access segment kinds.
const (
	AccessCreation      = "creation"
	AccessReinforcement = "renforcement"
)

// EngineeringInput is the calculator state of one quote version. It is
// persisted as a JSON blob on the quote record.
type EngineeringInput struct {
	Global         GlobalParams          `json:"global"`
	Turbines       []TurbineRecord       `json:"turbines"`
	AccessSegments []AccessSegmentRecord `json:"access_segments"`
	HTACables      []CableSegmentRecord  `json:"hta_cables"`
	Design         DesignParams          `json:"design"`
}

type GlobalParams struct {
	TurbineCount Number `json:"turbine_count"`
	TurbineType  string `json:"turbine_type"`
}

type TurbineRecord struct {
	Name               string `json:"name"`
	PlatformSurface    Number `json:"platform_surface"`
	StorageSurface     Number `json:"storage_surface"`
	SubstitutionHeight Number `json:"substitution_height"`
	FoundationType     string `json:"foundation_type"`
}

type AccessSegmentRecord struct {
	Name   string `json:"name"`
	Length Number `json:"length"`
	Width  Number `json:"width"`
	Kind   string `json:"kind"`
}

type CableSegmentRecord struct {
	Name         string `json:"name"`
	Length       Number `json:"length"`
	TrenchLength Number `json:"trench_length"`
	Section      string `json:"section"`
}

// DesignParams are the foundation design parameters. A nil or
// non-positive FoundationDiameter means the design is not configured.
type DesignParams struct {
	FoundationDiameter *Number `json:"foundation_diameter"`
	SafetyMargin       Number  `json:"safety_margin"`
	SlopeRatio         string  `json:"slope_ratio"`
	CageHeight         Number  `json:"cage_height"`
}

// DefaultDesign is the design of a freshly created quote.
func DefaultDesign() DesignParams {
	return DesignParams{
		SafetyMargin: 1,
		SlopeRatio:   "1:1",
		CageHeight:   3.5,
	}
}

// Clone returns a deep copy so edits never alias the caller's slices.
func (in EngineeringInput) Clone() EngineeringInput {
	out := in
	out.Turbines = append([]TurbineRecord(nil), in.Turbines...)
	out.AccessSegments = append([]AccessSegmentRecord(nil), in.AccessSegments...)
	out.HTACables = append([]CableSegmentRecord(nil), in.HTACables...)
	if in.Design.FoundationDiameter != nil {
		d := *in.Design.FoundationDiameter
		out.Design.FoundationDiameter = &d
	}
	return out
}

// entityName is the suffix an entity contributes to its variable names.
// Whitespace is stripped; other characters are kept as typed, so a name
// like "E-01" yields variables that formulas cannot reference.
func entityName(name string) string {
	return strings.Join(strings.Fields(name), "")
}
