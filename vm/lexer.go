package vm

import (
	"strconv"
	"strings"
)

const (
	int32Min int64 = -2147483648
	int32Max int64 = 2147483647
)

// Lexer is a single-pass, longest-match, byte-oriented scanner. It never
// looks line-oriented itself — NewLine is just another token — and leaves
// line-number bookkeeping to the parser, keeping source-position tracking
// close to whoever actually needs it.
type Lexer struct {
	src []byte
	pos int
}

// NewLexer wraps the given source text for scanning.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []byte(src)}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// Next scans and returns the next token. At end of input it returns a
// TokEOF token and ok=false; callers should stop scanning at that point.
func (l *Lexer) Next() (Token, bool) {
	l.skipTrivia()

	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Span: Span{start, start}}, false
	}

	b := l.src[l.pos]

	switch {
	case b == '\n':
		l.pos++
		return l.tok(TokNewLine, start), true

	case b == '#':
		return l.lexSigil(TokTemp, start)

	case b == '@':
		return l.lexSigil(TokBlock, start)

	case b == '0' && l.pos+1 < len(l.src) && (l.src[l.pos+1] == 'x' || l.src[l.pos+1] == 'X'):
		return l.lexHex(start)

	case b == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.lexDecimal(start)

	case isDigit(b):
		return l.lexDecimal(start)

	case isIdentStart(b):
		return l.lexIdent(start)

	default:
		return l.lexPunct(start)
	}
}

// skipTrivia skips horizontal whitespace and `//` line comments, but never
// consumes a NewLine — that's a significant token.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v':
			l.pos++
		case b == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) tok(kind TokenKind, start int) Token {
	return Token{Kind: kind, Span: Span{start, l.pos}}
}

// lexSigil scans `#<dec>` or `@<dec>` — a fixed prefix byte followed by an
// unsigned decimal id.
func (l *Lexer) lexSigil(kind TokenKind, start int) (Token, bool) {
	l.pos++ // consume '#' or '@'
	digitsStart := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == digitsStart {
		return l.errorTok(start)
	}

	n, err := strconv.ParseUint(string(l.src[digitsStart:l.pos]), 10, 64)
	if err != nil {
		return l.errorTok(start)
	}
	t := l.tok(kind, start)
	t.Num = int64(n)
	return t, true
}

// lexDecimal scans an optionally-negative decimal constant: `(-?)(0|[1-9][0-9]*)`.
func (l *Lexer) lexDecimal(start int) (Token, bool) {
	if l.src[l.pos] == '-' {
		l.pos++
	}

	digitsStart := l.pos
	if l.pos < len(l.src) && l.src[l.pos] == '0' {
		l.pos++
	} else {
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos == digitsStart {
		return l.errorTok(start)
	}

	text := string(l.src[start:l.pos])
	val, err := strconv.ParseInt(text, 10, 64)
	if err != nil || val < int32Min || val > int32Max {
		return l.errorTok(start)
	}

	t := l.tok(TokConst, start)
	t.Num = val
	return t, true
}

// lexHex scans `0x`/`0X` followed by hex digits. More than 8 significant
// hex digits (after stripping leading zeros) is a lex error.
func (l *Lexer) lexHex(start int) (Token, bool) {
	l.pos += 2 // consume "0x"
	digitsStart := l.pos
	for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == digitsStart {
		return l.errorTok(start)
	}

	digits := string(l.src[digitsStart:l.pos])
	trimmed := strings.TrimLeft(digits, "0")
	if len(trimmed) > 8 {
		return l.errorTok(start)
	}
	if trimmed == "" {
		trimmed = "0"
	}

	bits, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return l.errorTok(start)
	}

	t := l.tok(TokConst, start)
	t.Num = int64(int32(uint32(bits)))
	return t, true
}

func (l *Lexer) lexIdent(start int) (Token, bool) {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])

	if kind, ok := keywords[text]; ok {
		return l.tok(kind, start), true
	}

	t := l.tok(TokId, start)
	t.Str = text
	return t, true
}

// lexPunct scans punctuation and operator lexemes, preferring the longest
// match (e.g. `>>>` over `>>` over `>`).
func (l *Lexer) lexPunct(start int) (Token, bool) {
	rest := l.src[l.pos:]
	try := func(lexeme string, kind TokenKind) (Token, bool, bool) {
		if strings.HasPrefix(string(rest), lexeme) {
			l.pos += len(lexeme)
			return l.tok(kind, start), true, true
		}
		return Token{}, false, false
	}

	// Longest lexemes first.
	for _, c := range []struct {
		lexeme string
		kind   TokenKind
	}{
		{">>>", TokRShiftLog},
		{"<<", TokLShift}, {">>", TokRShift},
		{"==", TokEq}, {"!=", TokNeq}, {"<=", TokLeq}, {">=", TokGeq},
		{"&&", TokLogAnd}, {"||", TokLogOr},
		{"(", TokLParen}, {")", TokRParen}, {":", TokColon}, {"=", TokAssign}, {",", TokComma},
		{"+", TokAdd}, {"-", TokSub}, {"*", TokMul}, {"/", TokDiv}, {"%", TokMod},
		{"<", TokLess}, {">", TokGreater},
		{"&", TokBitAnd}, {"|", TokBitOr}, {"^", TokBitXor}, {"~", TokBitNot}, {"!", TokLogNot},
	} {
		if tok, ok, matched := try(c.lexeme, c.kind); matched {
			return tok, ok
		}
	}

	return l.errorTok(start)
}

// Slice returns the raw source text a span covers, used by the parser to
// render the offending text in UnknownInstr errors.
func (l *Lexer) Slice(s Span) string { return string(l.src[s.Start:s.End]) }

func (l *Lexer) errorTok(start int) (Token, bool) {
	end := l.pos
	if end == start {
		end = start + 1
		l.pos = end
	}
	t := Token{Kind: TokError, Span: Span{start, end}, Str: string(l.src[start:end])}
	return t, true
}
