// Package quantity decides the authoritative quantity of a billed line.
//
// A line stores its quantity as one of three variants: a literal number, a
// reference to a calculator variable, or a formula that may reference
// variables. Every consumer (editor, summary, exports) resolves the
// variant with Resolve against the catalog snapshot it holds; nothing is
// cached, so two views holding different snapshots may disagree until
// both refetch.
package quantity

import (
	"strings"

	"github.com/shopspring/decimal"

	"windquote/formula"
)

type Kind int

const (
	KindLiteral Kind = iota
	KindVariableRef
	KindFormula
)

func (k Kind) String() string {
	switch k {
	case KindVariableRef:
		return "variable"
	case KindFormula:
		return "formula"
	}
	return "literal"
}

// Quantity is the stored quantity of a line. Literal is always set: for a
// reference or a formula it mirrors the last value seen at commit time.
type Quantity struct {
	Kind       Kind
	Literal    float64
	Variable   string
	Expression string
}

func Literal(v float64) Quantity {
	return Quantity{Kind: KindLiteral, Literal: v}
}

func Ref(name string, mirror float64) Quantity {
	return Quantity{Kind: KindVariableRef, Literal: mirror, Variable: name}
}

func Formula(expr string, mirror float64) Quantity {
	return Quantity{Kind: KindFormula, Literal: mirror, Expression: expr}
}

// FromStored classifies the persisted columns of a line. A line should
// never carry both a reference and a formula; if one does, the reference
// wins, matching resolution precedence.
func FromStored(literal float64, variableRef, expr string) Quantity {
	if ref := strings.TrimSpace(variableRef); ref != "" {
		return Ref(ref, literal)
	}
	if e := strings.TrimSpace(expr); e != "" {
		return Formula(e, literal)
	}
	return Literal(literal)
}

// Stored returns the persisted columns for q.
func (q Quantity) Stored() (literal float64, variableRef, expr string) {
	switch q.Kind {
	case KindVariableRef:
		return q.Literal, q.Variable, ""
	case KindFormula:
		return q.Literal, "", q.Expression
	}
	return q.Literal, "", ""
}

// Text is what the editor shows in the quantity cell.
func (q Quantity) Text() string {
	switch q.Kind {
	case KindVariableRef:
		return q.Variable
	case KindFormula:
		return q.Expression
	}
	return decimal.NewFromFloat(q.Literal).String()
}

// Resolve returns the quantity to price and display:
//  1. a reference to a variable present in vars yields that variable;
//  2. a formula with variables yields its evaluation, or the stored
//     literal if evaluation fails for any reason;
//  3. anything else yields the stored literal.
func Resolve(q Quantity, vars formula.Variables) float64 {
	switch q.Kind {
	case KindVariableRef:
		if vars != nil {
			if v, ok := vars.Lookup(q.Variable); ok {
				return v
			}
		}
	case KindFormula:
		if formula.HasVariables(q.Expression) {
			if v, ok := formula.EvaluateWithVariables(q.Expression, vars); ok {
				return v
			}
		}
	}
	return q.Literal
}

// LineTotal is the resolved quantity times the unit price. It never uses
// the stored literal when a reference or formula resolves.
func LineTotal(q Quantity, unitPrice float64, vars formula.Variables) decimal.Decimal {
	return decimal.NewFromFloat(Resolve(q, vars)).Mul(decimal.NewFromFloat(unitPrice))
}

// Classification describes raw cell text.
type Classification struct {
	IsFormula         bool `json:"is_formula"`
	HasVariables      bool `json:"has_variables"`
	IsPureVariableRef bool `json:"is_pure_variable_ref"`
}

func Classify(text string) Classification {
	return Classification{
		IsFormula:         formula.IsFormula(text),
		HasVariables:      formula.HasVariables(text),
		IsPureVariableRef: formula.IsPureVariableRef(text),
	}
}
