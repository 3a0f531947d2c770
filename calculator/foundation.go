package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidSlopeRatio is returned under RejectOnParseFailure.
var ErrInvalidSlopeRatio = errors.New("invalid slope ratio")

// ParsePolicy decides what a field parser does with input it cannot read.
type ParsePolicy int

const (
	// DefaultOnParseFailure substitutes the field's default value.
	DefaultOnParseFailure ParsePolicy = iota
	// RejectOnParseFailure returns an error and leaves the decision to
	// the caller.
	RejectOnParseFailure
)

// ParsePolicyFromString maps a configuration value to a policy.
func ParsePolicyFromString(s string) (ParsePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultOnParseFailure, nil
	case "reject":
		return RejectOnParseFailure, nil
	}
	return DefaultOnParseFailure, fmt.Errorf("unknown parse policy %q", s)
}

// DefaultSlopeCoefficient is used when a slope ratio cannot be read.
const DefaultSlopeCoefficient = 1.0

// ParseSlopeRatio reads "x:y" (e.g. "1:1", "3:2") as x/y, falling back to
// DefaultSlopeCoefficient for anything unreadable or a zero denominator.
func ParseSlopeRatio(text string) float64 {
	v, _ := ParseSlopeRatioPolicy(text, DefaultOnParseFailure)
	return v
}

// ParseSlopeRatioPolicy is ParseSlopeRatio with an explicit failure policy.
func ParseSlopeRatioPolicy(text string, policy ParsePolicy) (float64, error) {
	v, ok := parseRatio(text)
	if ok {
		return v, nil
	}
	if policy == RejectOnParseFailure {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlopeRatio, text)
	}
	return DefaultSlopeCoefficient, nil
}

func parseRatio(text string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 {
		return 0, false
	}
	x, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(parts[0]), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	y, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(parts[1]), ",", "."), 64)
	if err != nil || y == 0 {
		return 0, false
	}
	v := x / y
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FoundationMetrics describes the excavation around one turbine
// foundation, modeled as a truncated cone: the bottom disc is the
// foundation plus its safety margin, the walls open up with the slope
// over the cage height.
type FoundationMetrics struct {
	BottomRadius     float64 `json:"bottom_radius"`
	TopRadius        float64 `json:"top_radius"`
	BaseSurfaceArea  float64 `json:"base_surface_area"`
	EarthworksVolume float64 `json:"earthworks_volume"`
	SlopeCoefficient float64 `json:"slope_coefficient"`
}

// ComputeFoundation returns the excavation metrics for d, or ok=false when
// the foundation diameter is unset or not positive. Margin, slope and
// cage height are used as given.
func ComputeFoundation(d DesignParams) (FoundationMetrics, bool) {
	if d.FoundationDiameter == nil || d.FoundationDiameter.Float() <= 0 {
		return FoundationMetrics{}, false
	}

	diameter := d.FoundationDiameter.Float()
	margin := d.SafetyMargin.Float()
	cageHeight := d.CageHeight.Float()
	slope := ParseSlopeRatio(d.SlopeRatio)

	bottom := (diameter + 2*margin) / 2
	top := bottom + cageHeight*slope

	return FoundationMetrics{
		BottomRadius:     bottom,
		TopRadius:        top,
		BaseSurfaceArea:  math.Pi * bottom * bottom,
		EarthworksVolume: (math.Pi * cageHeight / 3) * (bottom*bottom + top*top + bottom*top),
		SlopeCoefficient: slope,
	}, true
}

// ValidateDesign checks the fields of d that have a parse policy.
func ValidateDesign(d DesignParams, slopePolicy ParsePolicy) error {
	if d.SlopeRatio == "" {
		return nil
	}
	_, err := ParseSlopeRatioPolicy(d.SlopeRatio, slopePolicy)
	return err
}
