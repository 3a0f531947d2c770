package quantity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windquote/calculator"
	"windquote/formula"
)

func testCatalog() calculator.Catalog {
	return calculator.NewCatalog([]calculator.Variable{
		{Name: "$x", Value: 42, Label: "Answer", Category: calculator.CategoryGlobal},
		{Name: "$surf_PF_E01", Value: 1200.5, Label: "Surface plateforme E01", Category: calculator.CategoryTurbines},
		{Name: "$surf_PF_E02", Value: 1100, Label: "Surface plateforme E02", Category: calculator.CategoryTurbines},
		{Name: "$nb_eol", Value: 4, Label: "Nombre d'éoliennes", Category: calculator.CategoryGlobal},
	})
}

func TestResolve_LiteralIgnoresCatalog(t *testing.T) {
	q := Literal(12.5)
	for _, cat := range []formula.Variables{nil, testCatalog(), calculator.NewCatalog(nil)} {
		assert.Equal(t, 12.5, Resolve(q, cat))
	}
}

func TestResolve_ReferenceWins(t *testing.T) {
	q := FromStored(5, "$x", "")
	assert.Equal(t, 42.0, Resolve(q, testCatalog()))
}

func TestResolve_ReferenceMissingFallsBack(t *testing.T) {
	q := Ref("$gone", 5)
	assert.Equal(t, 5.0, Resolve(q, testCatalog()))
	assert.Equal(t, 5.0, Resolve(q, calculator.NewCatalog(nil)))
	assert.Equal(t, 5.0, Resolve(q, nil))
}

func TestResolve_Formula(t *testing.T) {
	cat := testCatalog()

	assert.Equal(t, 2401.0, Resolve(Formula("$surf_PF_E01 * 2", 1), cat))
	assert.Equal(t, 7.0, Resolve(Formula("$missing * 2", 7), cat), "missing variable falls back")
	assert.Equal(t, 7.0, Resolve(Formula("$x / 0", 7), cat), "non finite falls back")
	assert.Equal(t, 9.0, Resolve(Formula("3 * 3", 9), cat), "formula without variables uses its mirror")
}

func TestFromStored(t *testing.T) {
	assert.Equal(t, KindLiteral, FromStored(3, "", "").Kind)
	assert.Equal(t, KindVariableRef, FromStored(3, " $x ", "").Kind)
	assert.Equal(t, KindFormula, FromStored(3, "", "1+2").Kind)
	assert.Equal(t, KindVariableRef, FromStored(3, "$x", "1+2").Kind)

	lit, ref, expr := Formula("1+2", 3).Stored()
	assert.Equal(t, 3.0, lit)
	assert.Empty(t, ref)
	assert.Equal(t, "1+2", expr)
}

func TestLineTotal(t *testing.T) {
	cat := testCatalog()

	total := LineTotal(FromStored(5, "$x", ""), 10.5, cat)
	assert.Equal(t, "441", total.String())

	total = LineTotal(Literal(0.1), 3, cat)
	assert.Equal(t, "0.3", total.String())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Classification{IsFormula: false, HasVariables: true, IsPureVariableRef: true}, Classify("$surf_PF_E01"))
	assert.Equal(t, Classification{IsFormula: true, HasVariables: true}, Classify("$surf_PF_E01 * 2"))
	assert.Equal(t, Classification{}, Classify("12.5"))
	assert.Equal(t, Classification{IsFormula: true}, Classify("3 + 4"))
}

func TestCommit(t *testing.T) {
	cat := testCatalog()
	current := Literal(3)

	tests := []struct {
		name   string
		input  string
		want   Quantity
		reason error
	}{
		{"empty clears", "   ", Literal(0), nil},
		{"pure reference", "$nb_eol", Ref("$nb_eol", 4), nil},
		{"unknown reference", "$nope", current, ErrVariableNotFound},
		{"formula with variables", "2,5 x $nb_eol", Formula("2,5 x $nb_eol", 10), nil},
		{"formula without variables", "3,5 + 1,5", Formula("3,5 + 1,5", 5), nil},
		{"formula with missing variable", "$nope * 2", current, ErrInvalidFormula},
		{"unbalanced formula", "(1 + 2", current, ErrInvalidFormula},
		{"division by zero", "1 / 0", current, ErrInvalidFormula},
		{"dot decimal", "12.5", Literal(12.5), nil},
		{"comma decimal", "12,5", Literal(12.5), nil},
		{"thousands separator", "1 200,5", Literal(1200.5), nil},
		{"garbage", "douze", current, ErrInvalidNumber},
		{"NaN is not a number", "NaN", current, ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Commit(tt.input, current, cat)
			if tt.reason != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.reason)
				var rej *Rejection
				require.True(t, errors.As(err, &rej))
				assert.NotEmpty(t, rej.Text)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommit_FormulaCauseIsWrapped(t *testing.T) {
	_, err := Commit("$nope * 2", Literal(1), testCatalog())
	assert.ErrorIs(t, err, formula.ErrMissingVariable)
}

func TestCommit_EmptyCatalogKeepsPendingReference(t *testing.T) {
	current := Literal(8)
	got, err := Commit("$surf_PF_E01", current, calculator.NewCatalog(nil))
	require.NoError(t, err)
	assert.Equal(t, Ref("$surf_PF_E01", 8), got)
	assert.Equal(t, 8.0, Resolve(got, calculator.NewCatalog(nil)))
}

func TestCommitWithPolicy_DefaultKeepsCurrent(t *testing.T) {
	current := Formula("1+1", 2)
	got, err := CommitWithPolicy("n/a", current, testCatalog(), calculator.DefaultOnParseFailure)
	require.NoError(t, err)
	assert.Equal(t, current, got)
}

func TestQuantityText(t *testing.T) {
	assert.Equal(t, "$x", Ref("$x", 1).Text())
	assert.Equal(t, "1+1", Formula("1+1", 2).Text())
	assert.Equal(t, "12.5", Literal(12.5).Text())
}

func TestSuggest(t *testing.T) {
	cat := testCatalog()

	s, ok := Suggest("2 * $surf_PF", 12, cat)
	require.True(t, ok)
	assert.Equal(t, 4, s.Start)
	assert.Equal(t, 12, s.End)
	assert.Equal(t, "surf_PF", s.Prefix)
	require.Len(t, s.Variables, 2)

	s, ok = Suggest("$", 1, cat)
	require.True(t, ok)
	assert.Len(t, s.Variables, 4)

	s, ok = Suggest("$ans + 1", 4, cat)
	require.True(t, ok)
	require.Len(t, s.Variables, 1)
	assert.Equal(t, "$x", s.Variables[0].Name, "label match")

	_, ok = Suggest("12 + 3", 6, cat)
	assert.False(t, ok)

	_, ok = Suggest("$x", 5, cat)
	assert.False(t, ok)
}

func TestInsert(t *testing.T) {
	text := "($surf_P + 2) × 3"
	s, ok := Suggest(text, 8, testCatalog())
	require.True(t, ok)

	got, cursor := Insert(text, s, "$surf_PF_E02")
	assert.Equal(t, "($surf_PF_E02 + 2) × 3", got)
	assert.Equal(t, 13, cursor)

	s, ok = Suggest("$su_tail * 2", 3, testCatalog())
	require.True(t, ok)
	got, _ = Insert("$su_tail * 2", s, "$nb_eol")
	assert.Equal(t, "$nb_eol * 2", got, "whole token is replaced")
}
