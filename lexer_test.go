package hydra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexOK(t *testing.T, src string) []Line {
	t.Helper()
	lines, err := NewLexer("<test>", src).Lex()
	require.NoError(t, err)
	return lines
}

func kinds(line Line) []TokenKind {
	out := make([]TokenKind, len(line.Tokens))
	for i, tok := range line.Tokens {
		out[i] = tok.Value.Kind
	}
	return out
}

func TestLexerIndentAndBlankLines(t *testing.T) {
	lines := lexOK(t, "fn f()\n\n    return 1\n")
	require.Len(t, lines, 4) // trailing blank line from the final \n
	assert.Equal(t, 0, lines[0].Indent)
	assert.True(t, lines[1].Empty())
	assert.Equal(t, 4, lines[2].Indent)
	assert.True(t, lines[3].Empty())
}

func TestLexerKeywordsVsIdents(t *testing.T) {
	lines := lexOK(t, "let fnx = fn")
	require.Len(t, lines, 1)
	assert.Equal(t, []TokenKind{TLet, TIdent, TAssign, TFn}, kinds(lines[0]))
	assert.Equal(t, "fnx", lines[0].Tokens[1].Value.Text)
}

func TestLexerBooleanAndNullLiterals(t *testing.T) {
	lines := lexOK(t, "true false null")
	require.Len(t, lines, 1)
	toks := lines[0].Tokens
	assert.Equal(t, TBool, toks[0].Value.Kind)
	assert.True(t, toks[0].Value.Bool)
	assert.Equal(t, TBool, toks[1].Value.Kind)
	assert.False(t, toks[1].Value.Bool)
	assert.Equal(t, TNull, toks[2].Value.Kind)
}

func TestLexerNumbers(t *testing.T) {
	lines := lexOK(t, "1_000 3.14 0")
	require.Len(t, lines, 1)
	toks := lines[0].Tokens
	assert.Equal(t, TInt, toks[0].Value.Kind)
	assert.EqualValues(t, 1000, toks[0].Value.Int)
	assert.Equal(t, TFloat, toks[1].Value.Kind)
	assert.InDelta(t, 3.14, toks[1].Value.Float, 1e-9)
	assert.Equal(t, TInt, toks[2].Value.Kind)
}

func TestLexerOperatorsAndCompoundAssign(t *testing.T) {
	lines := lexOK(t, "+= -= *= /= %= ^= == != <= >= => ...")
	require.Len(t, lines, 1)
	assert.Equal(t, []TokenKind{
		TPlusEq, TMinusEq, TStarEq, TSlashEq, TPercentEq, TCaretEq,
		TEq, TNeq, TLe, TGe, TArrow, TDotDotDot,
	}, kinds(lines[0]))
}

func TestLexerStringEscapes(t *testing.T) {
	lines := lexOK(t, `"a\nb\tc\"d"`)
	require.Len(t, lines, 1)
	tok := lines[0].Tokens[0].Value
	assert.Equal(t, TString, tok.Kind)
	assert.Equal(t, "a\nb\tc\"d", tok.Str)
}

func TestLexerCharLiteral(t *testing.T) {
	lines := lexOK(t, `'a' '\n' '\''`)
	require.Len(t, lines, 1)
	toks := lines[0].Tokens
	assert.Equal(t, 'a', toks[0].Value.Char)
	assert.Equal(t, '\n', toks[1].Value.Char)
	assert.Equal(t, '\'', toks[2].Value.Char)
}

func TestLexerUnclosedStringError(t *testing.T) {
	_, err := NewLexer("<test>", `"unterminated`).Lex()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclosed string literal")
}

func TestLexerUnclosedCharError(t *testing.T) {
	_, err := NewLexer("<test>", `'a`).Lex()
	require.Error(t, err)
}

func TestLexerBadCharacterError(t *testing.T) {
	_, err := NewLexer("<test>", "let x = @").Lex()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad character")
}

func TestLexerSelfCallColon(t *testing.T) {
	lines := lexOK(t, "h:push(1)")
	require.Len(t, lines, 1)
	assert.Equal(t, []TokenKind{TIdent, TColon, TIdent, TLParen, TInt, TRParen}, kinds(lines[0]))
}

func TestLexerCRLFNormalized(t *testing.T) {
	lines := lexOK(t, "let a = 1\r\nlet b = 2\r\n")
	require.Len(t, lines, 3) // trailing blank line from the final \n
	assert.Equal(t, 0, lines[0].Indent)
	assert.Equal(t, 0, lines[1].Indent)
	assert.True(t, lines[2].Empty())
}
