package formula

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenType identifies a lexical token of a quantity formula.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenVariable
	TokenOperator
	TokenLeftParen
	TokenRightParen
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNumber:
		return "number"
	case TokenVariable:
		return "variable"
	case TokenOperator:
		return "operator"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	}
	return "unknown"
}

const (
	charSigil      = '$'
	charUnderscore = '_'
	charPeriod     = '.'
	charComma      = ','
	charLParen     = '('
	charRParen     = ')'
	charLBracket   = '['
	charRBracket   = ']'
	charPlus       = '+'
	charMinus      = '-'
	charAsterisk   = '*'
	charSlash      = '/'
	charTimesASCII = 'x'
	charTimes      = '×'
)

// Token is a lexeme with its byte offset in the normalized input.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer splits a normalized formula into tokens. Anything outside the
// arithmetic grammar is a lexing error, which is what keeps evaluation
// sandboxed: there are no function names, no strings and no assignment.
type Lexer struct {
	input string
	pos   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize returns every token up to and including TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == charPlus || ch == charMinus || ch == charAsterisk || ch == charSlash:
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: start}, nil
	case ch == charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: start}, nil
	case ch == charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: start}, nil
	case isDigit(ch) || ch == charPeriod:
		for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == charPeriod) {
			l.pos++
		}
		return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}, nil
	case ch == charSigil:
		l.pos++
		if l.pos >= len(l.input) || !isIdentStart(l.input[l.pos]) {
			return Token{}, fmt.Errorf("%w: bare %q at offset %d", ErrMalformed, charSigil, start)
		}
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TokenVariable, Value: l.input[start:l.pos], Pos: start}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, r, start)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

// Normalize rewrites the user-facing notation into the canonical one the
// lexer accepts: an infix x or × between operands becomes *, every
// remaining × becomes *, decimal commas become dots and square brackets
// become parentheses. Variable tokens are copied verbatim.
func Normalize(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == charSigil:
			b.WriteRune(r)
			for i+1 < len(runes) && runes[i+1] < utf8.RuneSelf && isIdentPart(byte(runes[i+1])) {
				i++
				b.WriteRune(runes[i])
			}
		case r == charTimesASCII && isInfixTimes(runes, i):
			b.WriteRune(charAsterisk)
		case r == charTimes:
			b.WriteRune(charAsterisk)
		case r == charComma:
			b.WriteRune(charPeriod)
		case r == charLBracket:
			b.WriteRune(charLParen)
		case r == charRBracket:
			b.WriteRune(charRParen)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isInfixTimes reports whether the x at index i sits between an operand
// end (digit or closing bracket) and an operand start (digit, opening
// bracket or variable sigil), whitespace aside.
func isInfixTimes(runes []rune, i int) bool {
	before := i - 1
	for before >= 0 && runes[before] < utf8.RuneSelf && isSpace(byte(runes[before])) {
		before--
	}
	after := i + 1
	for after < len(runes) && runes[after] < utf8.RuneSelf && isSpace(byte(runes[after])) {
		after++
	}
	if before < 0 || after >= len(runes) {
		return false
	}

	prev, next := runes[before], runes[after]
	prevOK := (prev >= '0' && prev <= '9') || prev == charRParen || prev == charRBracket
	nextOK := (next >= '0' && next <= '9') || next == charLParen || next == charLBracket || next == charSigil
	return prevOK && nextOK
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == charUnderscore || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
