package ruleline

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/parser"
)

// Grammar, one rule per line. Alternatives are tried in order and the first
// match wins.
//
//	line     := index tofrom marker* action tofrom marker* EOI
//	index    := '[' NUMBER ']'
//	tofrom   := address addrsuff? portsuff?
//	address  := IPV4 | IPV6 | "Anywhere" | ε
//	addrsuff := '/' NUMBER '/' PROTO      (cidrproto)
//	          | '/' NUMBER                (cidr)
//	          | '/' PROTO                 (protosuffix)
//	portsuff := '/'? NUMBER '/' PROTO     (portproto)
//	          | '/'? NUMBER               (port)
//	marker   := "on" WORD | "(v6)"
//	action   := MODIFIER DIRECTION?
//
// '/' binds only to its neighbours without whitespace; portsuff must be
// separated from a written address by whitespace. The leading '/' of portsuff
// is only accepted when the address is omitted, so "/22/tcp" is a port while
// "10.0.0.0/22" stays a prefix length.

// SyntaxError reports a line the grammar does not recognize.
type SyntaxError struct {
	Line     string
	Column   int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at column %d: expected %s, found %s", model.ErrRuleSyntax, e.Column, e.Expected, e.Found)
}

func (e *SyntaxError) Unwrap() error {
	return model.ErrRuleSyntax
}

type grammar struct {
	line   string
	tokens []Token
	pos    int
}

// ParseTree recognizes line and returns its top-level elements. A line that
// does not match yields a *SyntaxError and no elements.
func ParseTree(line string) ([]Element, error) {
	g := &grammar{line: line, tokens: Lex(line)}
	return g.parseLine()
}

func (g *grammar) peek() Token {
	return g.tokens[g.pos]
}

func (g *grammar) peekAt(offset int) Token {
	if g.pos+offset >= len(g.tokens) {
		return g.tokens[len(g.tokens)-1]
	}
	return g.tokens[g.pos+offset]
}

func (g *grammar) next() Token {
	tok := g.tokens[g.pos]
	if tok.Type != TokenEOF {
		g.pos++
	}
	return tok
}

func (g *grammar) fail(expected string) error {
	tok := g.peek()
	return &SyntaxError{Line: g.line, Column: tok.Column, Expected: expected, Found: tok.String()}
}

func (g *grammar) parseLine() ([]Element, error) {
	var elements []Element

	index, err := g.parseIndex()
	if err != nil {
		return nil, err
	}
	elements = append(elements, index)
	elements = append(elements, g.parseToFrom())
	elements = append(elements, g.parseMarkers()...)

	action, err := g.parseAction()
	if err != nil {
		return nil, err
	}
	elements = append(elements, action)
	elements = append(elements, g.parseToFrom())
	elements = append(elements, g.parseMarkers()...)

	if g.peek().Type != TokenEOF {
		return nil, g.fail("end of line")
	}
	return append(elements, reduceEnd()), nil
}

func (g *grammar) parseIndex() (Element, error) {
	if g.peek().Type != TokenLBracket {
		return nil, g.fail("'['")
	}
	g.next()
	if tok := g.peek(); tok.Type != TokenWord || !isNumber(tok.Value) {
		return nil, g.fail("rule number")
	}
	number := g.next()
	if g.peek().Type != TokenRBracket {
		return nil, g.fail("']'")
	}
	g.next()
	return reduceIndex(number), nil
}

func (g *grammar) parseToFrom() Element {
	var children []Element
	written := false

	if tok := g.peek(); tok.Type == TokenWord && (isAddress(tok.Value) || tok.Value == "Anywhere") {
		g.next()
		children = append(children, reduceAddress(&tok))
		written = true
		if suffix := g.parseAddressSuffix(); suffix != nil {
			children = append(children, suffix)
		}
	} else {
		children = append(children, reduceAddress(nil))
	}

	if port := g.parsePortSuffix(written); port != nil {
		children = append(children, port)
	}
	return reduceToFrom(children)
}

func (g *grammar) parseAddressSuffix() Element {
	slash, word := g.peek(), g.peekAt(1)
	if slash.Type != TokenSlash || slash.SpaceBefore || word.Type != TokenWord || word.SpaceBefore {
		return nil
	}
	switch {
	case isNumber(word.Value):
		g.pos += 2
		slash2, proto := g.peek(), g.peekAt(1)
		if slash2.Type == TokenSlash && !slash2.SpaceBefore && proto.Type == TokenWord && !proto.SpaceBefore && isProtocolWord(proto.Value) {
			g.pos += 2
			return reduceCIDRProtocol(word, proto)
		}
		return reduceCIDR(word)
	case isProtocolWord(word.Value):
		g.pos += 2
		return reduceProtocol(word)
	}
	return nil
}

func (g *grammar) parsePortSuffix(afterAddress bool) Element {
	if !afterAddress {
		slash, word := g.peek(), g.peekAt(1)
		if slash.Type == TokenSlash && word.Type == TokenWord && !word.SpaceBefore && isNumber(word.Value) {
			g.next()
		}
	}
	port := g.peek()
	if port.Type != TokenWord || !isNumber(port.Value) {
		return nil
	}
	if afterAddress && !port.SpaceBefore {
		return nil
	}
	g.next()
	slash, proto := g.peek(), g.peekAt(1)
	if slash.Type == TokenSlash && !slash.SpaceBefore && proto.Type == TokenWord && !proto.SpaceBefore && isProtocolWord(proto.Value) {
		g.pos += 2
		return reducePortProtocol(port, proto)
	}
	return reducePort(port)
}

func (g *grammar) parseMarkers() []Element {
	var markers []Element
	for {
		tok := g.peek()
		switch {
		case tok.Type == TokenWord && tok.Value == "on" && g.peekAt(1).Type == TokenWord:
			g.next()
			markers = append(markers, reduceDevice(g.next()))
		case tok.Type == TokenWord && tok.Value == "(v6)":
			g.next()
			markers = append(markers, reduceV6())
		default:
			return markers
		}
	}
}

func (g *grammar) parseAction() (Element, error) {
	modifier := g.peek()
	if modifier.Type != TokenWord || !isKeyword(modifier.Value) {
		return nil, g.fail("action")
	}
	g.next()
	if dir := g.peek(); dir.Type == TokenWord && isKeyword(dir.Value) {
		g.next()
		return reduceAction(modifier, &dir), nil
	}
	return reduceAction(modifier, nil), nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isAddress is a syntactic check; reduceAddress validates the value.
func isAddress(s string) bool {
	if !strings.ContainsAny(s, ".:") {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F' || ch == '.' || ch == ':') {
			return false
		}
	}
	return true
}

func isProtocolWord(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !(ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}

func isKeyword(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// Reductions, one per grammar rule.

func reduceIndex(tok Token) Element {
	n, err := strconv.ParseUint(tok.Value, 10, 16)
	if err != nil {
		return IndexElement{Err: fmt.Errorf("%w: %s", model.ErrInvalidIndex, err.Error())}
	}
	return IndexElement{Number: uint16(n)}
}

func reduceAddress(tok *Token) Element {
	if tok == nil || tok.Value == "Anywhere" {
		return AddressElement{}
	}
	addr, err := netip.ParseAddr(tok.Value)
	if err != nil {
		return AddressElement{Err: fmt.Errorf("%w: %s", model.ErrInvalidAddress, err.Error())}
	}
	return AddressElement{Addr: addr}
}

func reduceCIDR(tok Token) Element {
	bits, err := parser.ParseCIDR(tok.Value)
	return CIDRElement{Bits: bits, Err: err}
}

func reduceCIDRProtocol(cidr, proto Token) Element {
	bits, err := parser.ParseCIDR(cidr.Value)
	if err != nil {
		return CIDRProtocolElement{Err: err}
	}
	p, err := parser.ParseProtocol(proto.Value)
	return CIDRProtocolElement{Bits: bits, Protocol: p, Err: err}
}

func reduceProtocol(tok Token) Element {
	p, err := parser.ParseProtocol(tok.Value)
	return ProtocolElement{Protocol: p, Err: err}
}

func reducePort(tok Token) Element {
	port, err := parser.ParsePort(tok.Value)
	return PortElement{Port: port, Err: err}
}

func reducePortProtocol(port, proto Token) Element {
	n, err := parser.ParsePort(port.Value)
	if err != nil {
		return PortProtocolElement{Err: err}
	}
	p, err := parser.ParseProtocol(proto.Value)
	return PortProtocolElement{Port: n, Protocol: p, Err: err}
}

func reduceToFrom(children []Element) Element {
	return ToFromElement{Children: children}
}

func reduceDevice(tok Token) Element {
	return DeviceElement{Name: tok.Value}
}

func reduceV6() Element {
	return IPv6Element{}
}

func reduceAction(modifier Token, direction *Token) Element {
	m, err := parser.ParseModifier(modifier.Value)
	if err != nil {
		return ActionElement{Err: err}
	}
	d := DefaultDirection
	if direction != nil {
		d, err = parser.ParseDirection(direction.Value)
		if err != nil {
			return ActionElement{Err: err}
		}
	}
	return ActionElement{Modifier: m, Direction: d}
}

func reduceEnd() Element {
	return EndElement{}
}
