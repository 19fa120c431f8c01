package vm

import "fmt"

// BlockPos locates a definition within a block: either its Branch
// terminator, or one of its Instrs by index.
type BlockPos struct {
	IsBranch bool
	Index    int
}

func instrPos(i int) BlockPos { return BlockPos{Index: i} }

// Loc pinpoints a single definition site: a function, a block within it,
// and a position within that block. Used by SemError.MultiDefs to report
// both the first and the conflicting redefinition.
type Loc struct {
	Func  string
	Block BlockID
	Pos   BlockPos
}

func (l Loc) String() string {
	if l.Pos.IsBranch {
		return fmt.Sprintf("%s:%s(branch)", l.Func, l.Block)
	}
	return fmt.Sprintf("%s:%s:%d", l.Func, l.Block, l.Pos.Index)
}

// checkMain verifies the program has an entry point named "main".
func checkMain(prog Program) *SemError {
	if _, ok := prog.Get("main"); !ok {
		return &SemError{Kind: SENoMain}
	}
	return nil
}

// checkCondJumps rejects any CondJumpBranch terminator — the lexer/parser
// accept jz/jnz/... for grammar completeness, but no flag semantics are
// defined anywhere in this IR, so sema refuses them outright rather than
// silently treating them as always-false.
func checkCondJumps(prog Program) *SemError {
	var bad *SemError
	prog.Funcs.Iter(func(name string, fn *Func) bool {
		fn.Blocks.Iter(func(id BlockID, block *BasicBlock) bool {
			if _, ok := block.Branch.Kind.(CondJumpBranch); ok {
				bad = &SemError{
					Kind:   SEUnsupportedCondJump,
					Detail: fmt.Sprintf("%s:%s", name, id),
				}
				return true
			}
			return false
		})
		return bad != nil
	})
	return bad
}

// checkCFG verifies that every block's declared Preds set is exactly the
// set of blocks that actually branch to it, that every branch target and
// declared pred names a block that exists, and that every phi has exactly
// one source per declared pred.
func checkCFG(fn *Func) *SemError {
	actualPreds := make(map[BlockID]map[BlockID]bool)
	fn.Blocks.Iter(func(id BlockID, _ *BasicBlock) bool {
		actualPreds[id] = map[BlockID]bool{}
		return false
	})

	edge := func(from, to BlockID) *SemError {
		if _, ok := fn.Blocks.Get(to); !ok {
			return &SemError{Kind: SEInvalidCFG, Detail: fmt.Sprintf("%s: branch target %s does not exist", from, to)}
		}
		actualPreds[to][from] = true
		return nil
	}

	var failure *SemError
	fn.Blocks.Iter(func(id BlockID, block *BasicBlock) bool {
		switch k := block.Branch.Kind.(type) {
		case JumpBranch:
			if err := edge(id, k.Target); err != nil {
				failure = err
			}
		case CondBranch:
			if err := edge(id, k.TrueTarget); err != nil {
				failure = err
				return true
			}
			if err := edge(id, k.FalseTarget); err != nil {
				failure = err
			}
		case RetBranch:
			// no successors
		}
		for _, instr := range block.Instrs {
			if ifInstr, ok := instr.Kind.(IfInstr); ok {
				if err := edge(id, ifInstr.Target); err != nil {
					failure = err
					return true
				}
			}
		}
		return failure != nil
	})
	if failure != nil {
		return failure
	}

	fn.Blocks.Iter(func(id BlockID, block *BasicBlock) bool {
		declared := map[BlockID]bool{}
		for _, p := range block.Preds {
			if _, ok := fn.Blocks.Get(p); !ok {
				failure = &SemError{Kind: SEInvalidCFG, Detail: fmt.Sprintf("%s: declared pred %s does not exist", id, p)}
				return true
			}
			declared[p] = true
		}
		actual := actualPreds[id]
		if len(declared) != len(actual) {
			failure = &SemError{Kind: SEInvalidCFG, Detail: fmt.Sprintf("%s: declared preds do not match actual branches in", id)}
			return true
		}
		for p := range declared {
			if !actual[p] {
				failure = &SemError{Kind: SEInvalidCFG, Detail: fmt.Sprintf("%s: declared pred %s never actually branches here", id, p)}
				return true
			}
		}
		for _, instr := range block.Instrs {
			if phi, ok := instr.Kind.(PhiInstr); ok && len(phi.Srcs) != len(block.Preds) {
				failure = &SemError{Kind: SEInvalidCFG, Detail: fmt.Sprintf("%s: phi %s has %d sources but block has %d preds", id, phi.Dest, len(phi.Srcs), len(block.Preds))}
				return true
			}
		}
		return false
	})
	return failure
}

// checkNoPhiInEntry rejects a Phi instruction in a function's entry block:
// entry has no predecessors, so a Phi there can never resolve a source.
// Resolved as a fatal InvalidProgram diagnostic rather than a panic.
func checkNoPhiInEntry(fn *Func) *SemError {
	entry, ok := fn.EntryBlockID()
	if !ok {
		return nil
	}
	block, _ := fn.Blocks.Get(entry)
	for _, instr := range block.Instrs {
		if _, ok := instr.Kind.(PhiInstr); ok {
			return &SemError{Kind: SEInvalidProgram, Detail: fmt.Sprintf("%s: phi in entry block %s has no predecessor to resolve from", fn.Name, entry)}
		}
	}
	return nil
}

// checkCallsResolve verifies every call instruction names a function
// that actually exists in the program, so the interpreter never has to
// decide what a call to a missing function means.
func checkCallsResolve(prog Program) *SemError {
	var failure *SemError
	prog.Funcs.Iter(func(name string, fn *Func) bool {
		fn.Blocks.Iter(func(id BlockID, block *BasicBlock) bool {
			for _, instr := range block.Instrs {
				call, ok := instr.Kind.(CallInstr)
				if !ok {
					continue
				}
				if _, ok := prog.Get(call.Name); !ok {
					failure = &SemError{Kind: SEInvalidProgram, Detail: fmt.Sprintf("%s:%s: call to undefined function %q", name, id, call.Name)}
					return true
				}
			}
			return false
		})
		return failure != nil
	})
	return failure
}

// Analyze runs every semantic check, gating the strict-SSA pass
// (vm/ssa.go) behind ssa. It stops at the first failure, matching the
// parser's no-recovery convention.
func Analyze(prog Program, ssa bool) *SemError {
	if err := checkMain(prog); err != nil {
		return err
	}
	if err := checkCondJumps(prog); err != nil {
		return err
	}
	if err := checkCallsResolve(prog); err != nil {
		return err
	}

	var failure *SemError
	prog.Funcs.Iter(func(_ string, fn *Func) bool {
		if err := checkNoPhiInEntry(fn); err != nil {
			failure = err
			return true
		}
		if err := checkCFG(fn); err != nil {
			failure = err
			return true
		}
		return false
	})
	if failure != nil {
		return failure
	}

	if ssa {
		prog.Funcs.Iter(func(_ string, fn *Func) bool {
			if err := verifySSA(fn); err != nil {
				failure = err
				return true
			}
			return false
		})
	}
	return failure
}
