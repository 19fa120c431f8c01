package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, source string) []Token {
	t.Helper()
	lex := NewLexer(source)
	var toks []Token
	for {
		tok, ok := lex.Next()
		toks = append(toks, tok)
		if !ok {
			break
		}
	}
	return toks
}

func TestLexerLiterals(t *testing.T) {
	toks := lexAll(t, "#3 @12 42 -7 0x2A 0")
	require.Equal(t, TokTemp, toks[0].Kind)
	require.EqualValues(t, 3, toks[0].Num)
	require.Equal(t, TokBlock, toks[1].Kind)
	require.EqualValues(t, 12, toks[1].Num)
	require.Equal(t, TokConst, toks[2].Kind)
	require.EqualValues(t, 42, toks[2].Num)
	require.Equal(t, TokConst, toks[3].Kind)
	require.EqualValues(t, -7, toks[3].Num)
	require.Equal(t, TokConst, toks[4].Kind)
	require.EqualValues(t, 42, toks[4].Num)
	require.Equal(t, TokConst, toks[5].Kind)
	require.EqualValues(t, 0, toks[5].Num)
}

func TestLexerKeywordsAndPunct(t *testing.T) {
	toks := lexAll(t, "ret jmp cmp phi call print dump nop >>> << >= !=")
	kinds := make([]TokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Contains(t, kinds, TokRet)
	require.Contains(t, kinds, TokPhi)
	require.Contains(t, kinds, TokRShiftLog)
	require.Contains(t, kinds, TokLShift)
	require.Contains(t, kinds, TokGeq)
	require.Contains(t, kinds, TokNeq)
}

func TestLexerIdentifierVsKeyword(t *testing.T) {
	toks := lexAll(t, "main retval")
	require.Equal(t, TokId, toks[0].Kind)
	require.Equal(t, "main", toks[0].Str)
	require.Equal(t, TokId, toks[1].Kind)
	require.Equal(t, "retval", toks[1].Str)
}

func TestLexerCommentsAndTrivia(t *testing.T) {
	toks := lexAll(t, "#1 // a comment\n#2")
	require.Equal(t, TokTemp, toks[0].Kind)
	require.Equal(t, TokNewLine, toks[1].Kind)
	require.Equal(t, TokTemp, toks[2].Kind)
}

func TestLexerOutOfRangeDecimalIsError(t *testing.T) {
	toks := lexAll(t, "99999999999")
	require.Equal(t, TokError, toks[0].Kind)
}

func TestLexerOversizedHexIsError(t *testing.T) {
	toks := lexAll(t, "0x1FFFFFFFF")
	require.Equal(t, TokError, toks[0].Kind)
}
