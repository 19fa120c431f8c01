package vm

import (
	"github.com/dolthub/swiss"
)

// terminatorStarts is the set of tokens that end a block's instruction
// list and begin its terminator.
var terminatorStarts = map[TokenKind]bool{
	TokRet: true, TokJmp: true, TokCmp: true,
	TokJz: true, TokJnz: true, TokJe: true, TokJne: true,
	TokJl: true, TokJle: true, TokJg: true, TokJge: true,
	TokJnl: true, TokJnle: true, TokJng: true, TokJnge: true,
}

func binOpFromToken(t Token) (BinOp, *ParseError) {
	switch t.Kind {
	case TokAdd:
		return Add, nil
	case TokSub:
		return Sub, nil
	case TokMul:
		return Mul, nil
	case TokDiv:
		return Div, nil
	case TokMod:
		return Mod, nil
	case TokLShift:
		return LShift, nil
	case TokRShift:
		return RShift, nil
	case TokRShiftLog:
		return RShiftLog, nil
	case TokEq:
		return Eq, nil
	case TokNeq:
		return Neq, nil
	case TokLess:
		return Less, nil
	case TokLeq:
		return Leq, nil
	case TokGreater:
		return Greater, nil
	case TokGeq:
		return Geq, nil
	case TokBitAnd:
		return BitAnd, nil
	case TokBitXor:
		return BitXor, nil
	case TokBitOr:
		return BitOr, nil
	case TokLogAnd:
		return LogAnd, nil
	case TokLogOr:
		return LogOr, nil
	default:
		return 0, &ParseError{Kind: PEInvalidOperand, Span: t.Span}
	}
}

func unOpFromToken(t Token) (UnOp, *ParseError) {
	switch t.Kind {
	case TokSub:
		return Neg, nil
	case TokLogNot:
		return LogNot, nil
	case TokBitNot:
		return BitNot, nil
	default:
		return 0, &ParseError{Kind: PEInvalidOperand, Span: t.Span}
	}
}

func condJumpFromToken(k TokenKind) CondJumpKind {
	switch k {
	case TokJz:
		return CJZero
	case TokJnz:
		return CJNotZero
	case TokJe:
		return CJEqual
	case TokJne:
		return CJNotEqual
	case TokJl:
		return CJLess
	case TokJle:
		return CJLessEqual
	case TokJg:
		return CJGreater
	case TokJge:
		return CJGreaterEqual
	case TokJnl:
		return CJNotLess
	case TokJnle:
		return CJNotLessEqual
	case TokJng:
		return CJNotGreater
	default:
		return CJNotGreaterEqual
	}
}

// Parser is a hand-written recursive-descent parser with one token of
// lookahead, ported almost line-for-line from
// _examples/original_source/main/src/parser/mod.rs. curLine is a
// monotonic counter incremented on every consumed NewLine and attached to
// each emitted Instr/Branch.
type Parser struct {
	lex     *Lexer
	peeked  *Token
	curLine uint64
}

// Parse parses source text into a Program. Parsing stops at the first
// error — there is no error recovery.
func Parse(source string) (Program, *ParseError) {
	p := &Parser{lex: NewLexer(source), curLine: 1}
	return p.program()
}

// ---- token-stream helpers ----------------------------------------------

func (p *Parser) rawNext() Token {
	if p.peeked != nil {
		t := *p.peeked
		p.peeked = nil
		return t
	}
	t, ok := p.lex.Next()
	if !ok {
		t.Kind = TokEOF
	}
	return t
}

func (p *Parser) token() (Token, *ParseError) {
	t := p.rawNext()
	if t.Kind == TokEOF {
		return t, &ParseError{Kind: PEEOF, Span: t.Span}
	}
	return t, nil
}

func (p *Parser) peek() (Token, *ParseError) {
	if p.peeked == nil {
		t, ok := p.lex.Next()
		if !ok {
			return Token{Kind: TokEOF, Span: t.Span}, &ParseError{Kind: PEEOF, Span: t.Span}
		}
		p.peeked = &t
	}
	return *p.peeked, nil
}

func (p *Parser) skip() *ParseError {
	_, err := p.token()
	return err
}

func (p *Parser) munch(kind TokenKind) *ParseError {
	t, err := p.token()
	if err != nil {
		return err
	}
	if t.Kind != kind {
		return &ParseError{Kind: PENoMatch, Span: t.Span, Expected: Token{Kind: kind}, Got: t}
	}
	return nil
}

func (p *Parser) skipOptNewlines() {
	for {
		t, err := p.peek()
		if err != nil || t.Kind != TokNewLine {
			return
		}
		p.skip()
		p.curLine++
	}
}

func (p *Parser) skipNewlines() *ParseError {
	if err := p.munch(TokNewLine); err != nil {
		return err
	}
	p.curLine++
	p.skipOptNewlines()
	return nil
}

func (p *Parser) temp() (Temp, *ParseError) {
	t, err := p.token()
	if err != nil {
		return Temp{}, err
	}
	if t.Kind != TokTemp {
		return Temp{}, &ParseError{Kind: PENoTemp, Span: t.Span, Got: t}
	}
	return Temp{ID: NumTemp(uint64(t.Num))}, nil
}

func (p *Parser) block() (BlockID, *ParseError) {
	t, err := p.token()
	if err != nil {
		return 0, err
	}
	if t.Kind != TokBlock {
		return 0, &ParseError{Kind: PENoBlock, Span: t.Span, Got: t}
	}
	return BlockID(uint64(t.Num)), nil
}

func (p *Parser) name() (string, *ParseError) {
	t, err := p.token()
	if err != nil {
		return "", err
	}
	if t.Kind != TokId {
		return "", &ParseError{Kind: PENoName, Span: t.Span, Got: t}
	}
	return t.Str, nil
}

// errUnknownInstrToLineEnd extends the error span rightward to the next
// newline or EOF, so the whole offending line is highlighted.
func (p *Parser) errUnknownInstrToLineEnd(text string, span Span) *ParseError {
	for {
		t, err := p.peek()
		if err != nil || t.Kind == TokNewLine {
			break
		}
		p.skip()
		span.End = t.Span.End
	}
	return &ParseError{Kind: PEUnknownInstr, Span: span, Text: text}
}

// ---- grammar -------------------------------------------------------------

func (p *Parser) operand() (Operand, *ParseError) {
	t, err := p.token()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case TokTemp:
		return TempOperand{Temp: Temp{ID: NumTemp(uint64(t.Num))}}, nil
	case TokConst:
		return ConstOperand{Value: int32(t.Num)}, nil
	default:
		return nil, &ParseError{Kind: PEInvalidOperand, Span: t.Span}
	}
}

// movBinopInstr disambiguates Mov vs BinOp by looking at the token after
// the first operand: a NewLine means Mov, any BinOp lexeme means BinOp.
func (p *Parser) movBinopInstr(dest Temp, lsrc Operand) (Instr, *ParseError) {
	t, err := p.token()
	if err != nil {
		return Instr{}, err
	}
	if t.Kind == TokNewLine {
		p.curLine++
		return Instr{Line: p.curLine - 1, Kind: MovInstr{Dest: dest, Src: lsrc}}, nil
	}

	op, err := binOpFromToken(t)
	if err != nil {
		return Instr{}, err
	}
	src2, err := p.operand()
	if err != nil {
		return Instr{}, err
	}
	if err := p.munch(TokNewLine); err != nil {
		return Instr{}, err
	}
	p.curLine++
	return Instr{Line: p.curLine - 1, Kind: BinOpInstr{Dest: dest, Op: op, Src1: lsrc, Src2: src2}}, nil
}

func (p *Parser) operandListUntilNewline() ([]Operand, *ParseError) {
	var ops []Operand
	for {
		t, err := p.peek()
		if err != nil || t.Kind == TokNewLine {
			return ops, nil
		}
		op, err := p.operand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
}

func (p *Parser) instr() (Instr, *ParseError) {
	t, err := p.token()
	if err != nil {
		return Instr{}, err
	}

	switch t.Kind {
	case TokTemp:
		dest := Temp{ID: NumTemp(uint64(t.Num))}
		if err := p.munch(TokAssign); err != nil {
			return Instr{}, err
		}

		rhs, err := p.token()
		if err != nil {
			return Instr{}, err
		}

		switch rhs.Kind {
		case TokSub, TokLogNot, TokBitNot:
			op, err := unOpFromToken(rhs)
			if err != nil {
				return Instr{}, err
			}
			src, err := p.operand()
			if err != nil {
				return Instr{}, err
			}
			if err := p.munch(TokNewLine); err != nil {
				return Instr{}, err
			}
			p.curLine++
			return Instr{Line: p.curLine - 1, Kind: UnOpInstr{Dest: dest, Op: op, Src: src}}, nil

		case TokPhi:
			srcs, err := p.operandListUntilNewline()
			if err != nil {
				return Instr{}, err
			}
			return Instr{Line: p.curLine, Kind: PhiInstr{Dest: dest, Srcs: srcs}}, nil

		case TokCall:
			name, err := p.name()
			if err != nil {
				return Instr{}, err
			}
			args, err := p.operandListUntilNewline()
			if err != nil {
				return Instr{}, err
			}
			d := dest
			return Instr{Line: p.curLine, Kind: CallInstr{Name: name, Dest: &d, Srcs: args}}, nil

		case TokTemp:
			return p.movBinopInstr(dest, TempOperand{Temp: Temp{ID: NumTemp(uint64(rhs.Num))}})

		case TokConst:
			return p.movBinopInstr(dest, ConstOperand{Value: int32(rhs.Num)})

		default:
			return Instr{}, p.errUnknownInstrToLineEnd(p.lex.Slice(t.Span), t.Span)
		}

	case TokIf:
		cond, err := p.operand()
		if err != nil {
			return Instr{}, err
		}
		target, err := p.block()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Line: p.curLine, Kind: IfInstr{Cond: cond, Target: target}}, nil

	case TokPrint:
		val, err := p.operand()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Line: p.curLine, Kind: PrintInstr{Value: val}}, nil

	case TokDump:
		return Instr{Line: p.curLine, Kind: DumpInstr{}}, nil

	case TokNop:
		return Instr{Line: p.curLine, Kind: NopInstr{}}, nil

	case TokCall:
		name, err := p.name()
		if err != nil {
			return Instr{}, err
		}
		args, err := p.operandListUntilNewline()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Line: p.curLine, Kind: CallInstr{Name: name, Dest: nil, Srcs: args}}, nil

	default:
		return Instr{}, p.errUnknownInstrToLineEnd(p.lex.Slice(t.Span), t.Span)
	}
}

func (p *Parser) twoBlocks() (BlockID, BlockID, *ParseError) {
	a, err := p.block()
	if err != nil {
		return 0, 0, err
	}
	b, err := p.block()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (p *Parser) blockInner() ([]Instr, Branch, *ParseError) {
	var instrs []Instr
	for {
		t, err := p.peek()
		if err != nil {
			return nil, Branch{}, err
		}
		if terminatorStarts[t.Kind] {
			break
		}
		instr, err := p.instr()
		if err != nil {
			return nil, Branch{}, err
		}
		instrs = append(instrs, instr)
		p.skipOptNewlines()
	}

	branchLine := p.curLine
	tt, err := p.token()
	if err != nil {
		return nil, Branch{}, err
	}

	var kind BranchKind
	switch tt.Kind {
	case TokRet:
		nt, perr := p.peek()
		if perr != nil {
			return nil, Branch{}, perr
		}
		if nt.Kind == TokNewLine {
			kind = RetBranch{Value: nil}
		} else {
			val, operr := p.operand()
			if operr != nil {
				return nil, Branch{}, operr
			}
			kind = RetBranch{Value: val}
		}

	case TokCmp:
		lhs, operr := p.operand()
		if operr != nil {
			return nil, Branch{}, operr
		}
		nt, perr := p.peek()
		if perr != nil {
			return nil, Branch{}, perr
		}
		var cond Cond
		if nt.Kind == TokBlock {
			cond = ValueCond{Value: lhs}
		} else {
			opTok, terr := p.token()
			if terr != nil {
				return nil, Branch{}, terr
			}
			op, operr2 := binOpFromToken(opTok)
			if operr2 != nil {
				return nil, Branch{}, operr2
			}
			rhs, operr3 := p.operand()
			if operr3 != nil {
				return nil, Branch{}, operr3
			}
			cond = BinOpCond{Src1: lhs, Op: op, Src2: rhs}
		}
		tBlk, fBlk, berr := p.twoBlocks()
		if berr != nil {
			return nil, Branch{}, berr
		}
		kind = CondBranch{Cond: cond, TrueTarget: tBlk, FalseTarget: fBlk}

	case TokJmp:
		target, berr := p.block()
		if berr != nil {
			return nil, Branch{}, berr
		}
		kind = JumpBranch{Target: target}

	case TokJz, TokJnz, TokJe, TokJne, TokJl, TokJle, TokJg, TokJge, TokJnl, TokJnle, TokJng, TokJnge:
		tBlk, fBlk, berr := p.twoBlocks()
		if berr != nil {
			return nil, Branch{}, berr
		}
		kind = CondJumpBranch{Kind: condJumpFromToken(tt.Kind), TrueTarget: tBlk, FalseTarget: fBlk}

	default:
		return nil, Branch{}, &ParseError{Kind: PENoMatch, Span: tt.Span, Got: tt}
	}

	if err := p.skipNewlines(); err != nil {
		return nil, Branch{}, err
	}

	return instrs, Branch{Line: branchLine, Kind: kind}, nil
}

func (p *Parser) blocks() (*swiss.Map[BlockID, *BasicBlock], *ParseError) {
	blocks := swiss.NewMap[BlockID, *BasicBlock](4)
	count := 0

	for {
		t, perr := p.peek()
		if perr != nil || t.Kind == TokId {
			if count == 0 {
				span := t.Span
				return nil, &ParseError{Kind: PEFuncNeedBlock, Span: span}
			}
			return blocks, nil
		}

		if t.Kind != TokBlock {
			return nil, &ParseError{Kind: PENoBlock, Span: t.Span, Got: t}
		}

		lineStart := p.curLine
		id, err := p.block()
		if err != nil {
			return nil, err
		}

		var preds []BlockID
		for {
			pt, pe := p.peek()
			if pe != nil {
				return nil, pe
			}
			if pt.Kind == TokNewLine {
				break
			}
			b, be := p.block()
			if be != nil {
				return nil, be
			}
			preds = append(preds, b)
		}

		if err := p.skipNewlines(); err != nil {
			return nil, err
		}

		instrs, branch, err := p.blockInner()
		if err != nil {
			return nil, err
		}

		blocks.Put(id, &BasicBlock{ID: id, Preds: preds, Instrs: instrs, Branch: branch, LineStart: lineStart})
		count++
	}
}

func (p *Parser) function() (*Func, *ParseError) {
	lineStart := p.curLine
	name, err := p.name()
	if err != nil {
		return nil, err
	}

	var params []Temp
	for {
		t, perr := p.peek()
		if perr != nil {
			return nil, perr
		}
		if t.Kind == TokNewLine {
			break
		}
		param, terr := p.temp()
		if terr != nil {
			return nil, terr
		}
		params = append(params, param)
	}

	if err := p.skipNewlines(); err != nil {
		return nil, err
	}

	t, perr := p.peek()
	if perr != nil {
		return nil, perr
	}

	var blocks *swiss.Map[BlockID, *BasicBlock]
	if t.Kind == TokTemp || t.Kind == TokRet {
		blockLineStart := p.curLine
		instrs, branch, berr := p.blockInner()
		if berr != nil {
			return nil, berr
		}
		blocks = swiss.NewMap[BlockID, *BasicBlock](1)
		blocks.Put(BlockID(0), &BasicBlock{ID: BlockID(0), Preds: nil, Instrs: instrs, Branch: branch, LineStart: blockLineStart})
	} else {
		blocks, err = p.blocks()
		if err != nil {
			return nil, err
		}
	}

	return &Func{Name: name, Params: params, Blocks: blocks, LineStart: lineStart}, nil
}

func (p *Parser) program() (Program, *ParseError) {
	prog := NewProgram()
	p.skipOptNewlines()

	for {
		t, err := p.peek()
		if err != nil {
			return prog, nil
		}
		_ = t
		fn, ferr := p.function()
		if ferr != nil {
			return Program{}, ferr
		}
		prog.Funcs.Put(fn.Name, fn)
	}
}
