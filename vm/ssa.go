package vm

import "github.com/dolthub/swiss"

// verifySSA enforces strict single-definition SSA form for one function:
// every numeric temporary may be the Dest of at most one instruction in
// the whole function. Register temps are exempt — they're pre-seeded
// storage slots, not SSA values, and are freely reassignable. This only
// runs when the caller asked for --ssa; SSA-ness is optional, not a
// universal requirement.
func verifySSA(fn *Func) *SemError {
	defined := swiss.NewMap[Temp, Loc](8)
	var failure *SemError

	fn.Blocks.Iter(func(id BlockID, block *BasicBlock) bool {
		for i, instr := range block.Instrs {
			dest, ok := instr.Dest()
			if !ok || dest.ID.IsRegister() {
				continue
			}
			here := Loc{Func: fn.Name, Block: id, Pos: instrPos(i)}
			if first, seen := defined.Get(dest); seen {
				failure = &SemError{Kind: SEMultiDefs, Temp: dest, First: first, Second: here}
				return true
			}
			defined.Put(dest, here)
		}
		return false
	})

	return failure
}
