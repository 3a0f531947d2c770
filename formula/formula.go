// Package formula classifies and evaluates the arithmetic expressions users
// type into quantity cells: numbers with dot or comma decimals, + - * /,
// an infix x or ×, parentheses or square brackets, and $variable tokens
// that resolve against a calculator catalog.
package formula

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	// ErrMalformed reports a grammar violation: a disallowed character,
	// unbalanced parentheses or a dangling operator.
	ErrMalformed = errors.New("malformed formula")
	// ErrMissingVariable reports a $name absent from the catalog.
	ErrMissingVariable = errors.New("unknown variable")
	// ErrNonFinite reports a NaN or infinite result, e.g. a division by zero.
	ErrNonFinite = errors.New("formula result is not finite")
)

// Precision is the number of decimals kept on an evaluated result.
const Precision = 3

var (
	variableToken = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)
	variableName  = regexp.MustCompile(`^\$[A-Za-z_][A-Za-z0-9_]*$`)
)

// Variables resolves a "$name" to its value.
type Variables interface {
	Lookup(name string) (float64, bool)
}

// Map is a Variables backed by a plain map keyed by "$name".
type Map map[string]float64

func (m Map) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

// IsVariableName reports whether name is a single well-formed $identifier.
func IsVariableName(name string) bool {
	return variableName.MatchString(name)
}

// IsPureVariableRef reports whether s, trimmed, is one $identifier and
// nothing else.
func IsPureVariableRef(s string) bool {
	return IsVariableName(strings.TrimSpace(s))
}

// HasVariables reports whether s contains at least one $identifier token.
func HasVariables(s string) bool {
	return variableToken.MatchString(s)
}

// ExtractVariableNames returns every $identifier in s without its sigil,
// in order of appearance, duplicates included.
func ExtractVariableNames(s string) []string {
	matches := variableToken.FindAllString(s, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimPrefix(m, "$"))
	}
	return names
}

// IsFormula reports whether s holds at least one arithmetic operator (an
// infix x or × counts) and consists solely of formula grammar. A lone
// variable reference is not a formula.
func IsFormula(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxLength {
		return false
	}
	tokens, err := NewLexer(Normalize(s)).Tokenize()
	if err != nil {
		return false
	}
	for _, tok := range tokens {
		if tok.Type == TokenOperator {
			return true
		}
	}
	return false
}

// Eval evaluates s, which may not reference variables. The result is
// rounded to Precision decimals.
func Eval(s string) (float64, error) {
	return EvalWith(s, nil)
}

// EvalWith evaluates s against vars. Every referenced variable must exist
// or the whole evaluation fails with ErrMissingVariable; there is no
// partial evaluation.
func EvalWith(s string, vars Variables) (float64, error) {
	expr, err := Parse(s)
	if err != nil {
		return 0, err
	}

	var missing []string
	for _, name := range expr.Variables() {
		if vars == nil {
			missing = append(missing, name)
			continue
		}
		if _, ok := vars.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(missing, ", "))
	}

	v, err := expr.Root.Eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return Round(v, Precision), nil
}

// Evaluate is Eval with the error collapsed into ok=false.
func Evaluate(s string) (float64, bool) {
	v, err := Eval(s)
	return v, err == nil
}

// EvaluateWithVariables is EvalWith with the error collapsed into ok=false.
func EvaluateWithVariables(s string, vars Variables) (float64, bool) {
	v, err := EvalWith(s, vars)
	return v, err == nil
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
