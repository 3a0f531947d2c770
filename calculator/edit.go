package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownEdit     = errors.New("unknown edit operation")
)

// Edit is one user change to the engineering input.
type Edit interface {
	apply(in EngineeringInput) (EngineeringInput, error)
}

// Apply returns the input that results from e. The argument is never
// modified; on error the zero value is returned alongside it.
func Apply(in EngineeringInput, e Edit) (EngineeringInput, error) {
	if e == nil {
		return EngineeringInput{}, ErrUnknownEdit
	}
	return e.apply(in.Clone())
}

type SetGlobal struct{ Global GlobalParams }

func (e SetGlobal) apply(in EngineeringInput) (EngineeringInput, error) {
	in.Global = e.Global
	return in, nil
}

type SetDesign struct{ Design DesignParams }

func (e SetDesign) apply(in EngineeringInput) (EngineeringInput, error) {
	in.Design = e.Design
	if e.Design.FoundationDiameter != nil {
		d := *e.Design.FoundationDiameter
		in.Design.FoundationDiameter = &d
	}
	return in, nil
}

type AddTurbine struct{ Turbine TurbineRecord }

func (e AddTurbine) apply(in EngineeringInput) (EngineeringInput, error) {
	in.Turbines = append(in.Turbines, e.Turbine)
	return in, nil
}

type UpdateTurbine struct {
	Index   int
	Turbine TurbineRecord
}

func (e UpdateTurbine) apply(in EngineeringInput) (EngineeringInput, error) {
	if err := checkIndex("turbine", e.Index, len(in.Turbines)); err != nil {
		return EngineeringInput{}, err
	}
	in.Turbines[e.Index] = e.Turbine
	return in, nil
}

type RemoveTurbine struct{ Index int }

func (e RemoveTurbine) apply(in EngineeringInput) (EngineeringInput, error) {
	if err := checkIndex("turbine", e.Index, len(in.Turbines)); err != nil {
		return EngineeringInput{}, err
	}
	in.Turbines = slices.Delete(in.Turbines, e.Index, e.Index+1)
	return in, nil
}

type AddAccessSegment struct{ Segment AccessSegmentRecord }

func (e AddAccessSegment) apply(in EngineeringInput) (EngineeringInput, error) {
	in.AccessSegments = append(in.AccessSegments, e.Segment)
	return in, nil
}

type UpdateAccessSegment struct {
	Index   int
	Segment AccessSegmentRecord
}

func (e UpdateAccessSegment) apply(in EngineeringInput) (EngineeringInput, error) {
	if err := checkIndex("access segment", e.Index, len(in.AccessSegments)); err != nil {
		return EngineeringInput{}, err
	}
	in.AccessSegments[e.Index] = e.Segment
	return in, nil
}

type RemoveAccessSegment struct{ Index int }

func (e RemoveAccessSegment) apply(in EngineeringInput) (EngineeringInput, error) {
	if err := checkIndex("access segment", e.Index, len(in.AccessSegments)); err != nil {
		return EngineeringInput{}, err
	}
	in.AccessSegments = slices.Delete(in.AccessSegments, e.Index, e.Index+1)
	return in, nil
}

type AddCable struct{ Cable CableSegmentRecord }

func (e AddCable) apply(in EngineeringInput) (EngineeringInput, error) {
	in.HTACables = append(in.HTACables, e.Cable)
	return in, nil
}

type UpdateCable struct {
	Index int
	Cable CableSegmentRecord
}

func (e UpdateCable) apply(in EngineeringInput) (EngineeringInput, error) {
	if err := checkIndex("cable", e.Index, len(in.HTACables)); err != nil {
		return EngineeringInput{}, err
	}
	in.HTACables[e.Index] = e.Cable
	return in, nil
}

type RemoveCable struct{ Index int }

func (e RemoveCable) apply(in EngineeringInput) (EngineeringInput, error) {
	if err := checkIndex("cable", e.Index, len(in.HTACables)); err != nil {
		return EngineeringInput{}, err
	}
	in.HTACables = slices.Delete(in.HTACables, e.Index, e.Index+1)
	return in, nil
}

func checkIndex(kind string, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %s %d of %d", ErrIndexOutOfRange, kind, i, n)
	}
	return nil
}

// EditRequest is the wire form of an Edit.
type EditRequest struct {
	Op      string               `json:"op"`
	Index   *int                 `json:"index,omitempty"`
	Global  *GlobalParams        `json:"global,omitempty"`
	Design  *DesignParams        `json:"design,omitempty"`
	Turbine *TurbineRecord       `json:"turbine,omitempty"`
	Segment *AccessSegmentRecord `json:"segment,omitempty"`
	Cable   *CableSegmentRecord  `json:"cable,omitempty"`
}

// DecodeEdit parses an EditRequest from JSON and converts it.
func DecodeEdit(data []byte) (Edit, error) {
	var req EditRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode edit: %w", err)
	}
	return req.Edit()
}

// Edit converts the request, checking that the payload for its op is present.
func (r EditRequest) Edit() (Edit, error) {
	missing := func(field string) error {
		return fmt.Errorf("edit %q requires %q", r.Op, field)
	}
	index := func() (int, error) {
		if r.Index == nil {
			return 0, missing("index")
		}
		return *r.Index, nil
	}

	switch r.Op {
	case "set_global":
		if r.Global == nil {
			return nil, missing("global")
		}
		return SetGlobal{Global: *r.Global}, nil
	case "set_design":
		if r.Design == nil {
			return nil, missing("design")
		}
		return SetDesign{Design: *r.Design}, nil
	case "add_turbine":
		if r.Turbine == nil {
			return nil, missing("turbine")
		}
		return AddTurbine{Turbine: *r.Turbine}, nil
	case "update_turbine":
		if r.Turbine == nil {
			return nil, missing("turbine")
		}
		i, err := index()
		if err != nil {
			return nil, err
		}
		return UpdateTurbine{Index: i, Turbine: *r.Turbine}, nil
	case "remove_turbine":
		i, err := index()
		if err != nil {
			return nil, err
		}
		return RemoveTurbine{Index: i}, nil
	case "add_access_segment":
		if r.Segment == nil {
			return nil, missing("segment")
		}
		return AddAccessSegment{Segment: *r.Segment}, nil
	case "update_access_segment":
		if r.Segment == nil {
			return nil, missing("segment")
		}
		i, err := index()
		if err != nil {
			return nil, err
		}
		return UpdateAccessSegment{Index: i, Segment: *r.Segment}, nil
	case "remove_access_segment":
		i, err := index()
		if err != nil {
			return nil, err
		}
		return RemoveAccessSegment{Index: i}, nil
	case "add_cable":
		if r.Cable == nil {
			return nil, missing("cable")
		}
		return AddCable{Cable: *r.Cable}, nil
	case "update_cable":
		if r.Cable == nil {
			return nil, missing("cable")
		}
		i, err := index()
		if err != nil {
			return nil, err
		}
		return UpdateCable{Index: i, Cable: *r.Cable}, nil
	case "remove_cable":
		i, err := index()
		if err != nil {
			return nil, err
		}
		return RemoveCable{Index: i}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEdit, r.Op)
}
