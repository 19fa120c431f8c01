package vm

import "fmt"

// TokenKind enumerates every lexeme class the lexer can produce. Keeping
// this as a single closed sum (instead of per-keyword types) mirrors the
// Rust `Token` enum this lexer is ported from and keeps the parser's
// one-token-lookahead dispatch a single exhaustive switch.
type TokenKind int

const (
	TokError TokenKind = iota
	TokEOF
	TokNewLine

	// Keywords
	TokRet
	TokJmp
	TokCmp
	TokIf
	TokCall
	TokPhi
	TokPrint
	TokDump
	TokNop

	// CPU-flag conditional jumps — accepted for grammar completeness only;
	// no flag semantics are modeled, so sema rejects any use of these.
	TokJz
	TokJnz
	TokJe
	TokJne
	TokJl
	TokJle
	TokJg
	TokJge
	TokJnl
	TokJnle
	TokJng
	TokJnge

	// Punctuation
	TokLParen
	TokRParen
	TokColon
	TokAssign
	TokComma

	// Arithmetic / bitwise / comparison / logical operators
	TokAdd
	TokSub
	TokMul
	TokDiv
	TokMod
	TokLShift
	TokRShift
	TokRShiftLog
	TokEq
	TokNeq
	TokLess
	TokLeq
	TokGreater
	TokGeq
	TokBitAnd
	TokBitOr
	TokBitXor
	TokBitNot
	TokLogAnd
	TokLogOr
	TokLogNot

	// Literals / identifiers
	TokTemp  // #<dec>
	TokBlock // @<dec>
	TokConst // decimal or 0x-hex i32
	TokId    // [A-Za-z_][A-Za-z0-9_]*
)

var tokenNames = map[TokenKind]string{
	TokError: "<error>", TokEOF: "<eof>", TokNewLine: "\\n",
	TokRet: "ret", TokJmp: "jmp", TokCmp: "cmp", TokIf: "if", TokCall: "call",
	TokPhi: "phi", TokPrint: "print", TokDump: "dump", TokNop: "nop",
	TokJz: "jz", TokJnz: "jnz", TokJe: "je", TokJne: "jne", TokJl: "jl",
	TokJle: "jle", TokJg: "jg", TokJge: "jge", TokJnl: "jnl", TokJnle: "jnle",
	TokJng: "jng", TokJnge: "jnge",
	TokLParen: "(", TokRParen: ")", TokColon: ":", TokAssign: "=", TokComma: ",",
	TokAdd: "+", TokSub: "-", TokMul: "*", TokDiv: "/", TokMod: "%",
	TokLShift: "<<", TokRShift: ">>", TokRShiftLog: ">>>",
	TokEq: "==", TokNeq: "!=", TokLess: "<", TokLeq: "<=", TokGreater: ">", TokGeq: ">=",
	TokBitAnd: "&", TokBitOr: "|", TokBitXor: "^", TokBitNot: "~",
	TokLogAnd: "&&", TokLogOr: "||", TokLogNot: "!",
	TokTemp: "#", TokBlock: "@", TokConst: "<const>", TokId: "<id>",
}

// keywords maps the fixed instruction/keyword vocabulary to its token kind.
// Identifiers that don't match fall through to TokId.
var keywords = map[string]TokenKind{
	"ret": TokRet, "jmp": TokJmp, "cmp": TokCmp, "if": TokIf, "call": TokCall,
	"phi": TokPhi, "print": TokPrint, "dump": TokDump, "nop": TokNop,
	"jz": TokJz, "jnz": TokJnz, "je": TokJe, "jne": TokJne,
	"jl": TokJl, "jle": TokJle, "jg": TokJg, "jge": TokJge,
	"jnl": TokJnl, "jnle": TokJnle, "jng": TokJng, "jnge": TokJnge,
}

// Span is a half-open byte range into the source text.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Token is a single lexed unit: its kind, source span, and (for Temp,
// Block, Const and Id) the decoded payload.
type Token struct {
	Kind TokenKind
	Span Span

	// Payload — only one of these is meaningful, chosen by Kind.
	Num int64  // TokTemp, TokBlock: unsigned id; TokConst: signed i32 value
	Str string // TokId: the identifier text; TokError: offending text
}

func (t Token) String() string {
	switch t.Kind {
	case TokTemp:
		return fmt.Sprintf("#%d", t.Num)
	case TokBlock:
		return fmt.Sprintf("@%d", t.Num)
	case TokConst:
		return fmt.Sprintf("%d", t.Num)
	case TokId:
		return t.Str
	default:
		if name, ok := tokenNames[t.Kind]; ok {
			return name
		}
		return "<unknown>"
	}
}
