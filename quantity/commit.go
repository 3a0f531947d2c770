package quantity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"windquote/calculator"
	"windquote/formula"
)

var (
	ErrVariableNotFound = errors.New("variable not found")
	ErrInvalidFormula   = errors.New("invalid formula")
	ErrInvalidNumber    = errors.New("invalid number")
)

// Rejection is returned when an edit cannot be committed. The line keeps
// its previous quantity and Text holds what the user typed so it can be
// corrected in place.
type Rejection struct {
	Reason error
	Text   string
	Cause  error
}

func (r *Rejection) Error() string {
	if r.Cause != nil {
		return fmt.Sprintf("%v: %q (%v)", r.Reason, r.Text, r.Cause)
	}
	return fmt.Sprintf("%v: %q", r.Reason, r.Text)
}

func (r *Rejection) Unwrap() []error {
	if r.Cause != nil {
		return []error{r.Reason, r.Cause}
	}
	return []error{r.Reason}
}

// Catalog is what committing an edit needs from a variable catalog.
type Catalog interface {
	formula.Variables
	IsEmpty() bool
}

// Commit turns text typed into a quantity cell into the new quantity of
// a line whose current quantity is current. Unreadable numbers are
// rejected.
func Commit(text string, current Quantity, cat Catalog) (Quantity, error) {
	return CommitWithPolicy(text, current, cat, calculator.RejectOnParseFailure)
}

// CommitWithPolicy is Commit with an explicit policy for text that is
// neither a reference, a formula nor a number. DefaultOnParseFailure
// keeps current unchanged without an error.
func CommitWithPolicy(text string, current Quantity, cat Catalog, numberPolicy calculator.ParsePolicy) (Quantity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Literal(0), nil
	}

	if formula.IsPureVariableRef(text) {
		if cat != nil {
			if v, ok := cat.Lookup(text); ok {
				return Ref(text, v), nil
			}
		}
		// Without any catalog the calculator simply is not configured
		// yet: keep the reference pending on the previous value.
		if cat == nil || cat.IsEmpty() {
			return Ref(text, current.Literal), nil
		}
		return current, &Rejection{Reason: ErrVariableNotFound, Text: text}
	}

	if formula.IsFormula(text) {
		var (
			v   float64
			err error
		)
		if formula.HasVariables(text) {
			v, err = formula.EvalWith(text, cat)
		} else {
			v, err = formula.Eval(text)
		}
		if err != nil {
			return current, &Rejection{Reason: ErrInvalidFormula, Text: text, Cause: err}
		}
		return Formula(text, v), nil
	}

	if v, ok := ParseDecimal(text); ok {
		return Literal(v), nil
	}
	if numberPolicy == calculator.DefaultOnParseFailure {
		return current, nil
	}
	return current, &Rejection{Reason: ErrInvalidNumber, Text: text}
}

// ParseDecimal reads a plain number written with a dot or comma decimal.
// Spaces, including the narrow no-break space used as a French thousands
// separator, are ignored.
func ParseDecimal(text string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, strings.TrimSpace(text))
	if cleaned == "" {
		return 0, false
	}

	// ParseFloat accepts "NaN", "Inf" and hex floats; quantities are
	// plain decimals only.
	for _, r := range cleaned {
		if !(r >= '0' && r <= '9') && r != '.' && r != '-' && r != '+' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
