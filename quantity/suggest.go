package quantity

import (
	"windquote/calculator"
)

// Searcher finds variables by partial name or label.
type Searcher interface {
	Search(query string) []calculator.Variable
}

// Suggestion is the $token under the cursor and the variables it may
// complete to. Start and End are rune offsets spanning the whole token,
// sigil included.
type Suggestion struct {
	Start     int                   `json:"start"`
	End       int                   `json:"end"`
	Prefix    string                `json:"prefix"`
	Variables []calculator.Variable `json:"variables"`
}

// Suggest looks for a $token ending at cursor (a rune offset into text)
// and returns the catalog variables matching the part typed so far.
// ok is false when the cursor is not inside or right after a $token.
func Suggest(text string, cursor int, cat Searcher) (Suggestion, bool) {
	runes := []rune(text)
	if cursor < 0 || cursor > len(runes) {
		return Suggestion{}, false
	}

	start := cursor
	for start > 0 && isIdentRune(runes[start-1]) {
		start--
	}
	if start == 0 || runes[start-1] != '$' {
		return Suggestion{}, false
	}
	start--

	end := cursor
	for end < len(runes) && isIdentRune(runes[end]) {
		end++
	}

	prefix := string(runes[start+1 : cursor])
	s := Suggestion{Start: start, End: end, Prefix: prefix}
	if cat != nil {
		s.Variables = cat.Search(prefix)
	}
	return s, true
}

// Insert replaces the token span of s in text with name and returns the
// new text and the rune offset just after the inserted name. Nothing is
// evaluated; the edit is committed later like any other.
func Insert(text string, s Suggestion, name string) (string, int) {
	runes := []rune(text)
	if s.Start < 0 || s.End > len(runes) || s.Start > s.End {
		return text, len(runes)
	}
	inserted := []rune(name)
	out := make([]rune, 0, len(runes)-(s.End-s.Start)+len(inserted))
	out = append(out, runes[:s.Start]...)
	out = append(out, inserted...)
	out = append(out, runes[s.End:]...)
	return string(out), s.Start + len(inserted)
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
