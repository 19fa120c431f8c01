package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kr/pretty"
)

// Config holds everything the interpreter needs to know that isn't part
// of the program text itself — built from cobra flags in main.go.
type Config struct {
	SSA     bool
	Timeout time.Duration // 0 disables the wall-clock check
	Debug   bool
	Stdout  io.Writer
}

// DefaultConfig returns a Config suitable for programmatic use (tests,
// library callers): SSA off, no timeout, writing to os.Stdout.
func DefaultConfig() Config {
	return Config{Stdout: os.Stdout}
}

// Outcome is the closed sum of ways running a function can end. Unlike
// ParseError/SemError these are not reported through the error
// interface: Return is the normal case, and DivByZero/Timeout are
// control-flow events that unwind every frame on the call stack back to
// the top-level Run caller, mirroring
// _examples/original_source/main/src/exec.rs's ReturnType.
type Outcome interface{ outcome() }

type ReturnOutcome struct{ Value int32 }

func (ReturnOutcome) outcome() {}

type DivByZeroOutcome struct{}

func (DivByZeroOutcome) outcome() {}

type TimeoutOutcome struct{}

func (TimeoutOutcome) outcome() {}

// ProgContext is the shared, read-only execution environment passed down
// every call frame: the program being run, its Config, and the wall-clock
// deadline.
type ProgContext struct {
	Prog     Program
	Config   Config
	deadline time.Time
	hasLimit bool
}

func newContext(prog Program, cfg Config) *ProgContext {
	ctx := &ProgContext{Prog: prog, Config: cfg}
	if cfg.Timeout > 0 {
		ctx.deadline = time.Now().Add(cfg.Timeout)
		ctx.hasLimit = true
	}
	if ctx.Config.Stdout == nil {
		ctx.Config.Stdout = os.Stdout
	}
	return ctx
}

func (ctx *ProgContext) timedOut() bool {
	return ctx.hasLimit && time.Now().After(ctx.deadline)
}

// Run interprets prog starting at its "main" function with no arguments.
// err is non-nil only for setup failures (missing main); a well-formed
// run always ends in a ReturnOutcome, DivByZeroOutcome, or
// TimeoutOutcome.
func Run(prog Program, cfg Config) (Outcome, error) {
	main, ok := prog.Get("main")
	if !ok {
		return nil, &SemError{Kind: SENoMain}
	}
	ctx := newContext(prog, cfg)
	return runFunc(ctx, main, nil), nil
}

func evalOperand(store *TempStore, op Operand) int32 {
	switch o := op.(type) {
	case TempOperand:
		v, _ := store.Get(o.Temp)
		return v
	case ConstOperand:
		return o.Value
	default:
		return 0
	}
}

func evalCond(store *TempStore, cond Cond) (bool, Outcome) {
	switch c := cond.(type) {
	case ValueCond:
		return evalOperand(store, c.Value) != 0, nil
	case BinOpCond:
		a, b := evalOperand(store, c.Src1), evalOperand(store, c.Src2)
		v, ok := c.Op.Eval(a, b)
		if !ok {
			return false, DivByZeroOutcome{}
		}
		return v != 0, nil
	default:
		return false, nil
	}
}

// runFunc is the block-dispatch loop: resolve one block's instructions
// in order, then follow its Branch (or an early IfInstr jump) to the
// next block, until a ret, a checked-arithmetic failure, or a timeout
// ends the call. Ported from
// _examples/original_source/main/src/exec.rs's run_func.
func runFunc(ctx *ProgContext, fn *Func, args []int32) Outcome {
	store := NewTempStore(fn)
	for i, p := range fn.Params {
		if i < len(args) {
			store.Save(p, args[i])
		}
	}

	curID, ok := fn.EntryBlockID()
	if !ok {
		return ReturnOutcome{Value: 0}
	}
	var prevID BlockID
	havePrev := false

blockLoop:
	for {
		if ctx.timedOut() {
			return TimeoutOutcome{}
		}

		block, _ := fn.Blocks.Get(curID)

		predIdx := -1
		if havePrev {
			for i, p := range block.Preds {
				if p == prevID {
					predIdx = i
					break
				}
			}
		}

		for _, instr := range block.Instrs {
			switch k := instr.Kind.(type) {
			case BinOpInstr:
				a, b := evalOperand(store, k.Src1), evalOperand(store, k.Src2)
				v, ok := k.Op.Eval(a, b)
				if !ok {
					return DivByZeroOutcome{}
				}
				store.Save(k.Dest, v)

			case UnOpInstr:
				store.Save(k.Dest, k.Op.Eval(evalOperand(store, k.Src)))

			case MovInstr:
				store.Save(k.Dest, evalOperand(store, k.Src))

			case PhiInstr:
				if predIdx < 0 || predIdx >= len(k.Srcs) {
					// CFG/pred-count consistency is enforced by Analyze before
					// execution ever starts; reaching here means the caller
					// skipped semantic analysis on a malformed program.
					return DivByZeroOutcome{}
				}
				store.Save(k.Dest, evalOperand(store, k.Srcs[predIdx]))

			case CallInstr:
				callee, ok := ctx.Prog.Get(k.Name)
				if !ok {
					return DivByZeroOutcome{}
				}
				callArgs := make([]int32, len(k.Srcs))
				for i, s := range k.Srcs {
					callArgs[i] = evalOperand(store, s)
				}
				switch out := runFunc(ctx, callee, callArgs).(type) {
				case ReturnOutcome:
					if k.Dest != nil {
						store.Save(*k.Dest, out.Value)
					}
				default:
					return out
				}

			case IfInstr:
				if evalOperand(store, k.Cond) != 0 {
					prevID, curID, havePrev = block.ID, k.Target, true
					continue blockLoop
				}

			case PrintInstr:
				fmt.Fprintf(ctx.Config.Stdout, "[%s] Line %d: %s = %d\n",
					time.Now().Format("15:04:05"), instr.Line, k.Value, evalOperand(store, k.Value))

			case DumpInstr:
				fmt.Fprintf(ctx.Config.Stdout, "[%s] Line %d: Dump of All Temps\n", time.Now().Format("15:04:05"), instr.Line)
				fmt.Fprint(ctx.Config.Stdout, store.Dump())
				if ctx.Config.Debug {
					fmt.Fprintf(ctx.Config.Stdout, "%# v\n", pretty.Formatter(store))
				}

			case NopInstr:
				// no effect

			default:
				return DivByZeroOutcome{}
			}
		}

		switch k := block.Branch.Kind.(type) {
		case RetBranch:
			if k.Value == nil {
				return ReturnOutcome{Value: 0}
			}
			return ReturnOutcome{Value: evalOperand(store, k.Value)}

		case JumpBranch:
			prevID, curID, havePrev = block.ID, k.Target, true
			continue blockLoop

		case CondBranch:
			taken, abort := evalCond(store, k.Cond)
			if abort != nil {
				return abort
			}
			prevID = block.ID
			havePrev = true
			if taken {
				curID = k.TrueTarget
			} else {
				curID = k.FalseTarget
			}
			continue blockLoop

		default:
			// CondJumpBranch is rejected by Analyze before execution starts.
			return DivByZeroOutcome{}
		}
	}
}
