package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is the byte span of a node in the normalized formula.
type Position struct {
	Start int
	End   int
}

// Node is an expression tree node. Variable leaves are resolved at
// evaluation time, so a name that is a prefix of another name can never
// be substituted into the wrong place.
type Node interface {
	Eval(vars Variables) (float64, error)
	Pos() Position
	String() string
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value    float64
	Position Position
}

func (n *NumberNode) Eval(Variables) (float64, error) { return n.Value, nil }
func (n *NumberNode) Pos() Position                   { return n.Position }
func (n *NumberNode) String() string                  { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

// VariableNode references a catalog variable by its full "$name".
type VariableNode struct {
	Name     string
	Position Position
}

func (n *VariableNode) Eval(vars Variables) (float64, error) {
	if vars == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingVariable, n.Name)
	}
	v, ok := vars.Lookup(n.Name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingVariable, n.Name)
	}
	return v, nil
}

func (n *VariableNode) Pos() Position  { return n.Position }
func (n *VariableNode) String() string { return n.Name }

// UnaryNode is a leading sign.
type UnaryNode struct {
	Op       byte
	Operand  Node
	Position Position
}

func (n *UnaryNode) Eval(vars Variables) (float64, error) {
	v, err := n.Operand.Eval(vars)
	if err != nil {
		return 0, err
	}
	if n.Op == charMinus {
		return -v, nil
	}
	return v, nil
}

func (n *UnaryNode) Pos() Position  { return n.Position }
func (n *UnaryNode) String() string { return string(n.Op) + n.Operand.String() }

// BinaryNode is one of + - * /.
type BinaryNode struct {
	Op       byte
	Left     Node
	Right    Node
	Position Position
}

func (n *BinaryNode) Eval(vars Variables) (float64, error) {
	left, err := n.Left.Eval(vars)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Eval(vars)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case charPlus:
		return left + right, nil
	case charMinus:
		return left - right, nil
	case charAsterisk:
		return left * right, nil
	case charSlash:
		// IEEE semantics: x/0 yields ±Inf or NaN and is rejected by the
		// finiteness check on the final result.
		return left / right, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrMalformed, n.Op)
}

func (n *BinaryNode) Pos() Position { return n.Position }

func (n *BinaryNode) String() string {
	return "(" + n.Left.String() + " " + string(n.Op) + " " + n.Right.String() + ")"
}

// Expr is a parsed formula.
type Expr struct {
	Source string
	Root   Node
}

// Variables returns the referenced variable names (with sigil) in order of
// appearance, duplicates preserved.
func (e *Expr) Variables() []string {
	var names []string
	var walk func(Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case *VariableNode:
			names = append(names, node.Name)
		case *UnaryNode:
			walk(node.Operand)
		case *BinaryNode:
			walk(node.Left)
			walk(node.Right)
		}
	}
	walk(e.Root)
	return names
}

func (e *Expr) String() string {
	return e.Root.String()
}

// Parser is a recursive-descent parser over lexer tokens:
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := ('+' | '-') unary | primary
//	primary := number | variable | '(' expr ')'
//
// Nesting through parentheses and leading signs is capped at MaxDepth so
// hostile input fails with ErrMalformed instead of exhausting the stack.
type Parser struct {
	tokens []Token
	pos    int
	depth  int
}

const (
	// MaxLength is the longest formula Parse accepts, in bytes. It also
	// bounds the length of left-associative operator chains.
	MaxLength = 4096
	// MaxDepth is the deepest nesting of parentheses and unary signs.
	MaxDepth = 256
)

// Parse normalizes and parses s.
func Parse(s string) (*Expr, error) {
	if len(s) > MaxLength {
		return nil, fmt.Errorf("%w: longer than %d bytes", ErrMalformed, MaxLength)
	}
	normalized := Normalize(strings.TrimSpace(s))
	tokens, err := NewLexer(normalized).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("%w: unexpected %s %q at offset %d", ErrMalformed, tok.Type, tok.Value, tok.Pos)
	}
	return &Expr{Source: s, Root: root}, nil
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) enter(tok Token) error {
	p.depth++
	if p.depth > MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d at offset %d", ErrMalformed, MaxDepth, tok.Pos)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) parseExpression() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenOperator || (tok.Value[0] != charPlus && tok.Value[0] != charMinus) {
			return left, nil
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{
			Op:       tok.Value[0],
			Left:     left,
			Right:    right,
			Position: Position{Start: left.Pos().Start, End: right.Pos().End},
		}
	}
}

func (p *Parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenOperator || (tok.Value[0] != charAsterisk && tok.Value[0] != charSlash) {
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{
			Op:       tok.Value[0],
			Left:     left,
			Right:    right,
			Position: Position{Start: left.Pos().Start, End: right.Pos().End},
		}
	}
}

func (p *Parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.Type == TokenOperator && (tok.Value[0] == charPlus || tok.Value[0] == charMinus) {
		p.advance()
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		p.leave()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{
			Op:       tok.Value[0],
			Operand:  operand,
			Position: Position{Start: tok.Pos, End: operand.Pos().End},
		}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.advance()

	switch tok.Type {
	case TokenNumber:
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q at offset %d", ErrMalformed, tok.Value, tok.Pos)
		}
		return &NumberNode{Value: v, Position: Position{Start: tok.Pos, End: tok.Pos + len(tok.Value)}}, nil
	case TokenVariable:
		return &VariableNode{Name: tok.Value, Position: Position{Start: tok.Pos, End: tok.Pos + len(tok.Value)}}, nil
	case TokenLeftParen:
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		inner, err := p.parseExpression()
		p.leave()
		if err != nil {
			return nil, err
		}
		closing := p.advance()
		if closing.Type != TokenRightParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis for offset %d", ErrMalformed, tok.Pos)
		}
		return inner, nil
	case TokenEOF:
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrMalformed)
	}
	return nil, fmt.Errorf("%w: unexpected %s %q at offset %d", ErrMalformed, tok.Type, tok.Value, tok.Pos)
}
