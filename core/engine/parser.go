package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Parser holds the state of the parsing process
type Parser struct {
	input string
	pos   int
}

// NewParser creates a new Parser instance
func NewParser(input string) *Parser {
	return &Parser{input: input, pos: 0}
}

// Parse parses the input into a Chain. The source must address the db
// binding as its root; bare shorthand is prefixed before parsing.
func (p *Parser) Parse() (*Chain, error) {
	p.skipWhitespace()
	root, err := p.parseIdentifier()
	if err != nil {
		return nil, fmt.Errorf("expected 'db' at start of script: %w", err)
	}
	if root != "db" {
		return nil, fmt.Errorf("script must start with 'db', got '%s'", root)
	}

	chain := &Chain{}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			break
		}
		if !p.consume(".") {
			return nil, fmt.Errorf("unexpected token at position %d: %s", p.pos, p.peek(10))
		}
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		chain.Segments = append(chain.Segments, seg)
	}
	return chain, nil
}

func (p *Parser) parseSegment() (Segment, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return Segment{}, fmt.Errorf("expected member name after '.': %w", err)
	}

	seg := Segment{Name: name}
	p.skipWhitespace()
	if !p.consume("(") {
		return seg, nil
	}

	seg.Call = true
	for {
		p.skipWhitespace()
		if p.consume(")") {
			break
		}
		if len(seg.Args) > 0 {
			if !p.consume(",") {
				return Segment{}, fmt.Errorf("expected ',' or ')' in arguments of %s", name)
			}
			p.skipWhitespace()
			// tolerate a trailing comma before the closing paren
			if p.consume(")") {
				break
			}
		}
		val, err := p.parseValue()
		if err != nil {
			return Segment{}, fmt.Errorf("in arguments of %s: %w", name, err)
		}
		seg.Args = append(seg.Args, val)
	}
	return seg, nil
}

// parseValue parses one relaxed-JSON literal: objects with unquoted keys,
// single- or double-quoted strings, numbers, booleans, null, arrays.
func (p *Parser) parseValue() (any, error) {
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of script, expected a value")
	}

	switch c := p.input[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		return p.parseStringLiteral()
	case c == '-' || unicode.IsDigit(rune(c)):
		return p.parseNumber()
	default:
		word, err := p.parseIdentifier()
		if err != nil {
			return nil, fmt.Errorf("unexpected token at position %d: %s", p.pos, p.peek(10))
		}
		switch word {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return nil, fmt.Errorf("unsupported expression '%s': only literal values are allowed", word)
	}
}

// parseObject parses an object literal into bson.D, preserving key order.
// Commands require the command name to be the first key, so plain maps
// cannot be used here.
func (p *Parser) parseObject() (bson.D, error) {
	if !p.consume("{") {
		return nil, fmt.Errorf("expected '{'")
	}
	doc := bson.D{}
	for {
		p.skipWhitespace()
		if p.consume("}") {
			return doc, nil
		}
		if len(doc) > 0 {
			if !p.consume(",") {
				return nil, fmt.Errorf("expected ',' or '}' in object")
			}
			p.skipWhitespace()
			if p.consume("}") {
				return doc, nil
			}
		}
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipWhitespace()
		if !p.consume(":") {
			return nil, fmt.Errorf("expected ':' after key '%s'", key)
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: key, Value: val})
	}
}

func (p *Parser) parseArray() (bson.A, error) {
	if !p.consume("[") {
		return nil, fmt.Errorf("expected '['")
	}
	arr := bson.A{}
	for {
		p.skipWhitespace()
		if p.consume("]") {
			return arr, nil
		}
		if len(arr) > 0 {
			if !p.consume(",") {
				return nil, fmt.Errorf("expected ',' or ']' in array")
			}
			p.skipWhitespace()
			if p.consume("]") {
				return arr, nil
			}
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
}

// parseKey parses an object key: a quoted string (needed for dotted field
// paths) or a bare identifier, which may start with $ for operators.
func (p *Parser) parseKey() (string, error) {
	p.skipWhitespace()
	if p.pos < len(p.input) && (p.input[p.pos] == '"' || p.input[p.pos] == '\'') {
		return p.parseStringLiteral()
	}
	return p.parseIdentifier()
}

// Helper methods

func (p *Parser) consume(token string) bool {
	if strings.HasPrefix(p.input[p.pos:], token) {
		p.pos += len(token)
		return true
	}
	return false
}

func (p *Parser) parseIdentifier() (string, error) {
	p.skipWhitespace()
	start := p.pos
	if p.pos >= len(p.input) {
		return "", fmt.Errorf("unexpected EOF")
	}
	// Identifiers start with a letter, _ or $ ($ for operators like $gt)
	r := rune(p.input[p.pos])
	if !unicode.IsLetter(r) && r != '_' && r != '$' {
		return "", fmt.Errorf("invalid identifier start")
	}
	p.pos++
	for p.pos < len(p.input) {
		r = rune(p.input[p.pos])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos], nil
}

func (p *Parser) parseStringLiteral() (string, error) {
	p.skipWhitespace()
	if p.pos >= len(p.input) || (p.input[p.pos] != '"' && p.input[p.pos] != '\'') {
		return "", fmt.Errorf("expected string literal")
	}
	quote := p.input[p.pos]
	p.pos++ // consume opening quote
	var sb strings.Builder
	for p.pos < len(p.input) {
		r := p.input[p.pos]
		if r == quote {
			p.pos++ // consume closing quote
			return sb.String(), nil
		}
		if r == '\\' {
			p.pos++
			if p.pos >= len(p.input) {
				return "", fmt.Errorf("unexpected EOF in string")
			}
			switch esc := p.input[p.pos]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(esc)
			}
			p.pos++
		} else {
			sb.WriteByte(r)
			p.pos++
		}
	}
	return "", fmt.Errorf("unclosed string literal")
}

func (p *Parser) parseNumber() (any, error) {
	start := p.pos
	if p.pos < len(p.input) && p.input[p.pos] == '-' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if unicode.IsDigit(rune(c)) {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			// exponent sign only valid directly after e/E; keep it simple
			// and let strconv reject malformed forms
			if c == '+' || c == '-' {
				prev := p.input[p.pos-1]
				if prev != 'e' && prev != 'E' {
					break
				}
			}
			if c == '.' || c == 'e' || c == 'E' {
				isFloat = true
			}
			p.pos++
			continue
		}
		break
	}
	text := p.input[start:p.pos]
	if text == "" || text == "-" {
		return nil, fmt.Errorf("invalid number at position %d", start)
	}
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number '%s'", text)
	}
	return f, nil
}

func (p *Parser) skipWhitespace() {
	// Loop to handle whitespace and comments
	for {
		startPos := p.pos
		for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
			p.pos++
		}

		// single line comment //
		if p.pos+2 <= len(p.input) && p.input[p.pos:p.pos+2] == "//" {
			p.pos += 2
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
		}

		// multi line comment /* */
		if p.pos+2 <= len(p.input) && p.input[p.pos:p.pos+2] == "/*" {
			p.pos += 2
			for p.pos+2 <= len(p.input) {
				if p.input[p.pos:p.pos+2] == "*/" {
					p.pos += 2
					break
				}
				p.pos++
			}
		}

		if p.pos == startPos {
			break
		}
	}
}

func (p *Parser) peek(n int) string {
	if p.pos+n > len(p.input) {
		return p.input[p.pos:]
	}
	return p.input[p.pos : p.pos+n]
}
