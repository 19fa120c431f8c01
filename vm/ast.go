package vm

import (
	"fmt"
	"strings"

	"github.com/dolthub/swiss"
)

// Operand is either a Temp reference or a 32-bit constant. Like Instr/
// Branch below, it's a closed sum expressed as an interface with an
// unexported marker method — the same shape go/ast uses for Expr/Stmt —
// rather than one struct with unused fields per variant.
type Operand interface {
	operand()
	fmt.Stringer
}

type TempOperand struct{ Temp Temp }

func (TempOperand) operand()         {}
func (o TempOperand) String() string { return o.Temp.String() }
func Op(t Temp) Operand              { return TempOperand{Temp: t} }

type ConstOperand struct{ Value int32 }

func (ConstOperand) operand()         {}
func (o ConstOperand) String() string { return fmt.Sprintf("%d", o.Value) }
func Const(v int32) Operand           { return ConstOperand{Value: v} }

// BlockID identifies a basic block within a function; the entry block is
// whichever id compares minimal.
type BlockID uint64

func (b BlockID) String() string { return fmt.Sprintf("@%d", uint64(b)) }

// InstrKind is the closed sum of instruction bodies a line in a block can
// hold. Every variant carries no line number itself — that lives on the
// enclosing Instr, tracked once at the outermost wrapper.
type InstrKind interface {
	instrKind()
	fmt.Stringer
}

type BinOpInstr struct {
	Dest       Temp
	Op         BinOp
	Src1, Src2 Operand
}

func (BinOpInstr) instrKind() {}
func (i BinOpInstr) String() string {
	return fmt.Sprintf("%s = %s %s %s", i.Dest, i.Src1, i.Op, i.Src2)
}

type UnOpInstr struct {
	Dest Temp
	Op   UnOp
	Src  Operand
}

func (UnOpInstr) instrKind() {}
func (i UnOpInstr) String() string {
	return fmt.Sprintf("%s = %s%s", i.Dest, i.Op, i.Src)
}

type MovInstr struct {
	Dest Temp
	Src  Operand
}

func (MovInstr) instrKind() {}
func (i MovInstr) String() string {
	return fmt.Sprintf("%s = %s", i.Dest, i.Src)
}

// PhiInstr's Srcs is parallel to the containing block's Preds — Srcs[i]
// is the value to take when control arrived from Preds[i].
type PhiInstr struct {
	Dest Temp
	Srcs []Operand
}

func (PhiInstr) instrKind() {}
func (i PhiInstr) String() string {
	parts := make([]string, len(i.Srcs))
	for idx, s := range i.Srcs {
		parts[idx] = s.String()
	}
	return fmt.Sprintf("%s = phi %s", i.Dest, strings.Join(parts, " "))
}

// CallInstr.Dest is nil when the call's result is discarded.
type CallInstr struct {
	Name string
	Dest *Temp
	Srcs []Operand
}

func (CallInstr) instrKind() {}
func (i CallInstr) String() string {
	parts := make([]string, len(i.Srcs))
	for idx, s := range i.Srcs {
		parts[idx] = s.String()
	}
	args := strings.Join(parts, " ")
	if i.Dest != nil {
		return fmt.Sprintf("%s = call %s %s", *i.Dest, i.Name, args)
	}
	return fmt.Sprintf("call %s %s", i.Name, args)
}

// IfInstr is a conditional mid-block jump, distinct from the block's
// trailing Branch terminator.
type IfInstr struct {
	Cond   Operand
	Target BlockID
}

func (IfInstr) instrKind() {}
func (i IfInstr) String() string {
	return fmt.Sprintf("if %s %s", i.Cond, i.Target)
}

type PrintInstr struct{ Value Operand }

func (PrintInstr) instrKind()       {}
func (i PrintInstr) String() string { return fmt.Sprintf("print %s", i.Value) }

type DumpInstr struct{}

func (DumpInstr) instrKind()      {}
func (DumpInstr) String() string { return "dump" }

// NopInstr is a zero-effect instruction, available as an explicit keyword.
type NopInstr struct{}

func (NopInstr) instrKind()      {}
func (NopInstr) String() string { return "nop" }

// Instr pairs an instruction body with the source line it was parsed from.
type Instr struct {
	Line uint64
	Kind InstrKind
}

func (i Instr) String() string { return i.Kind.String() }

// Dest returns the temp this instruction defines, if any. Call's dest is
// optional; If/Print/Dump/Nop never define anything.
func (i Instr) Dest() (Temp, bool) {
	switch k := i.Kind.(type) {
	case BinOpInstr:
		return k.Dest, true
	case UnOpInstr:
		return k.Dest, true
	case MovInstr:
		return k.Dest, true
	case PhiInstr:
		return k.Dest, true
	case CallInstr:
		if k.Dest != nil {
			return *k.Dest, true
		}
	}
	return Temp{}, false
}

// Cond is either a bare operand or a binary comparison, used by the Cond
// branch form (`cmp`).
type Cond interface {
	cond()
	fmt.Stringer
}

type ValueCond struct{ Value Operand }

func (ValueCond) cond()           {}
func (c ValueCond) String() string { return c.Value.String() }

type BinOpCond struct {
	Src1 Operand
	Op   BinOp
	Src2 Operand
}

func (BinOpCond) cond() {}
func (c BinOpCond) String() string {
	return fmt.Sprintf("%s %s %s", c.Src1, c.Op, c.Src2)
}

// CondJumpKind names the x86-flag-style conditional jump variants the
// lexer/parser accept for grammar completeness but that sema.go rejects.
type CondJumpKind int

const (
	CJZero CondJumpKind = iota
	CJNotZero
	CJEqual
	CJNotEqual
	CJLess
	CJLessEqual
	CJGreater
	CJGreaterEqual
	CJNotLess
	CJNotLessEqual
	CJNotGreater
	CJNotGreaterEqual
)

var condJumpLexemes = map[CondJumpKind]string{
	CJZero: "z", CJNotZero: "nz", CJEqual: "e", CJNotEqual: "ne",
	CJLess: "l", CJLessEqual: "le", CJGreater: "g", CJGreaterEqual: "ge",
	CJNotLess: "nl", CJNotLessEqual: "nle", CJNotGreater: "ng", CJNotGreaterEqual: "nge",
}

func (k CondJumpKind) String() string { return "j" + condJumpLexemes[k] }

// BranchKind is the closed sum of block terminators.
type BranchKind interface {
	branchKind()
	fmt.Stringer
}

// RetBranch.Value is nil for a bare `ret`, which returns 0.
type RetBranch struct{ Value Operand }

func (RetBranch) branchKind() {}
func (b RetBranch) String() string {
	if b.Value == nil {
		return "ret"
	}
	return fmt.Sprintf("ret %s", b.Value)
}

type JumpBranch struct{ Target BlockID }

func (JumpBranch) branchKind()      {}
func (b JumpBranch) String() string { return fmt.Sprintf("jmp %s", b.Target) }

type CondBranch struct {
	Cond                    Cond
	TrueTarget, FalseTarget BlockID
}

func (CondBranch) branchKind() {}
func (b CondBranch) String() string {
	return fmt.Sprintf("cmp %s %s %s", b.Cond, b.TrueTarget, b.FalseTarget)
}

// CondJumpBranch is never executable — see CondJumpKind.
type CondJumpBranch struct {
	Kind                    CondJumpKind
	TrueTarget, FalseTarget BlockID
}

func (CondJumpBranch) branchKind() {}
func (b CondJumpBranch) String() string {
	return fmt.Sprintf("%s %s %s", b.Kind, b.TrueTarget, b.FalseTarget)
}

// Branch is a basic block's terminator, paired with its source line.
type Branch struct {
	Line uint64
	Kind BranchKind
}

func (b Branch) String() string { return b.Kind.String() }

// BasicBlock is a maximal straight-line instruction sequence ending in one
// Branch. Preds is ordered and semantically significant: Phi instructions
// in this block pick their source by position in Preds.
type BasicBlock struct {
	ID        BlockID
	Preds     []BlockID
	Instrs    []Instr
	Branch    Branch
	LineStart uint64
}

func (b *BasicBlock) String() string {
	var sb strings.Builder
	preds := make([]string, len(b.Preds))
	for i, p := range b.Preds {
		preds[i] = p.String()
	}
	fmt.Fprintf(&sb, "%02d    %s (%s):\n", b.LineStart, b.ID, strings.Join(preds, ", "))
	for _, instr := range b.Instrs {
		fmt.Fprintf(&sb, "%02d      %s\n", instr.Line, instr)
	}
	fmt.Fprintf(&sb, "%02d      %s\n", b.Branch.Line, b.Branch)
	return sb.String()
}

// Func is a labeled sequence of basic blocks forming one function's CFG.
// Count is set by the optional renaming pass (vm/rename.go); when present
// the interpreter uses a dense numeric-temp store instead of a map.
type Func struct {
	Name      string
	Params    []Temp
	Blocks    *swiss.Map[BlockID, *BasicBlock]
	LineStart uint64
	Count     *uint64
}

// EntryBlockID returns the block whose id compares minimal — the function's
// entry point.
func (f *Func) EntryBlockID() (BlockID, bool) {
	var min BlockID
	found := false
	f.Blocks.Iter(func(id BlockID, _ *BasicBlock) bool {
		if !found || id < min {
			min = id
			found = true
		}
		return false
	})
	return min, found
}

func (f *Func) String() string {
	var sb strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	fmt.Fprintf(&sb, "%02d  %s %s\n", f.LineStart, f.Name, strings.Join(params, " "))
	f.Blocks.Iter(func(_ BlockID, block *BasicBlock) bool {
		sb.WriteString(block.String())
		return false
	})
	return sb.String()
}

// Program maps function name to Function; an entry named "main" is the
// execution entry point.
type Program struct {
	Funcs *swiss.Map[string, *Func]
}

func NewProgram() Program {
	return Program{Funcs: swiss.NewMap[string, *Func](8)}
}

func (p Program) Get(name string) (*Func, bool) {
	return p.Funcs.Get(name)
}
