package lexparse

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"asterisk", "*", []TokenType{ASTERISK, EOF}},
		{"atat", "@@", []TokenType{ATAT, EOF}},
		{"lone at is illegal", "@", []TokenType{ILLEGAL, EOF}},
		{"keyword open", "open", []TokenType{OPEN, EOF}},
		{"keyword include", "include", []TokenType{INCLUDE, EOF}},
		{"ident not a keyword", "opener", []TokenType{IDENT, EOF}},
		{"account", "Assets:Cash", []TokenType{ACCOUNT, EOF}},
		{"commodity ident", "USD", []TokenType{IDENT, EOF}},
		{"tag", "#travel", []TokenType{TAG, EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer([]byte(tt.input), "test")
			tokens, err := lexer.ScanAll()
			assert.NoError(t, err)
			assert.Equal(t, len(tt.want), len(tokens), "token count mismatch")
			for i, tok := range tokens {
				assert.Equal(t, tt.want[i], tok.Type)
			}
		})
	}
}

func TestLexerDate(t *testing.T) {
	lexer := NewLexer([]byte("2024-01-01"), "test")
	tokens, err := lexer.ScanAll()
	assert.NoError(t, err)
	assert.Equal(t, DATE, tokens[0].Type)
	assert.Equal(t, "2024-01-01", tokens[0].String([]byte("2024-01-01")))
}

func TestLexerInvalidDateFallsBackToIllegal(t *testing.T) {
	lexer := NewLexer([]byte("2024-13-01"), "test")
	tokens, err := lexer.ScanAll()
	assert.NoError(t, err)
	assert.Equal(t, ILLEGAL, tokens[0].Type)
}

func TestLexerNumber(t *testing.T) {
	src := []byte("-5.00")
	lexer := NewLexer(src, "test")
	tokens, err := lexer.ScanAll()
	assert.NoError(t, err)
	assert.Equal(t, NUMBER, tokens[0].Type)
	assert.Equal(t, "-5.00", tokens[0].String(src))
}

func TestLexerBlankLineEmitsSingleNewline(t *testing.T) {
	src := []byte("open\n\nclose\n")
	lexer := NewLexer(src, "test")
	tokens, err := lexer.ScanAll()
	assert.NoError(t, err)

	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{OPEN, NEWLINE, CLOSE, EOF}, types)
}

func TestLexerPostingIndentTrackedViaColumn(t *testing.T) {
	src := []byte("2024-01-01 * \"Coffee\"\n  Assets:Cash -5.00 USD\n")
	lexer := NewLexer(src, "test")
	tokens, err := lexer.ScanAll()
	assert.NoError(t, err)

	var accountTok Token
	for _, tok := range tokens {
		if tok.Type == ACCOUNT {
			accountTok = tok
			break
		}
	}
	assert.Equal(t, 3, accountTok.Column)
}

func TestLexerRejectsInvalidUTF8(t *testing.T) {
	lexer := NewLexer([]byte{0x00}, "test")
	_, err := lexer.ScanAll()
	assert.Error(t, err)
}
