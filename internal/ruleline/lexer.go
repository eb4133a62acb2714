// Package ruleline parses a single numbered ufw rule line, such as
//
//	[ 1] 192.168.1.0/24 22/udp on tun0 ALLOW IN 10.0.0.0/8
//
// into a model.Rule. Parsing runs in three steps: Lex splits the line into
// tokens, ParseTree recognizes the grammar and builds an Element tree, and
// Reduce folds the tree into the rule.
package ruleline

import "fmt"

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenLBracket TokenType = iota // [
	TokenRBracket                  // ]
	TokenSlash                     // /
	TokenWord                      // run of anything else except spaces
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenSlash:
		return "'/'"
	case TokenWord:
		return "word"
	case TokenEOF:
		return "end of line"
	default:
		return "unknown"
	}
}

// Token is a single lexer token. SpaceBefore is set when whitespace separates
// it from the previous token; the grammar uses it to tell "10.0.0.0/8" apart
// from "10.0.0.0 8".
type Token struct {
	Type        TokenType
	Value       string
	Column      int
	SpaceBefore bool
}

func (t Token) String() string {
	if t.Type == TokenWord {
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
	return t.Type.String()
}

// Lex splits line into tokens. The result always ends with a TokenEOF.
func Lex(line string) []Token {
	var tokens []Token
	space := false
	for i := 0; i < len(line); {
		ch := line[i]
		col := i + 1
		switch {
		case isSpace(ch):
			space = true
			i++
			continue
		case ch == '[':
			tokens = append(tokens, Token{Type: TokenLBracket, Value: "[", Column: col, SpaceBefore: space})
			i++
		case ch == ']':
			tokens = append(tokens, Token{Type: TokenRBracket, Value: "]", Column: col, SpaceBefore: space})
			i++
		case ch == '/':
			tokens = append(tokens, Token{Type: TokenSlash, Value: "/", Column: col, SpaceBefore: space})
			i++
		default:
			start := i
			for i < len(line) && isWordChar(line[i]) {
				i++
			}
			tokens = append(tokens, Token{Type: TokenWord, Value: line[start:i], Column: col, SpaceBefore: space})
		}
		space = false
	}
	return append(tokens, Token{Type: TokenEOF, Column: len(line) + 1, SpaceBefore: space})
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isWordChar(ch byte) bool {
	return !isSpace(ch) && ch != '[' && ch != ']' && ch != '/'
}
