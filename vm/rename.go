package vm

// Rename walks every numeric temp defined in fn and assigns it a dense
// index starting at 0, storing the resulting count in fn.Count. Once set,
// NewTempStore backs the function's numeric temps with a flat slice
// instead of a hash map — ported from the storage half of
// _examples/original_source/main/src/rename.rs; the other half of that
// pass (renaming ahead of x86 emission) has no analog here since this VM
// never emits machine code.
//
// Rename is optional: an unrenamed Func still runs correctly through the
// map-backed TempStore, just with one more hash lookup per access.
func Rename(fn *Func) {
	next := uint64(0)
	seen := make(map[uint64]uint64)

	remap := func(t Temp) Temp {
		if t.ID.IsRegister() {
			return t
		}
		n := t.ID.Num()
		dense, ok := seen[n]
		if !ok {
			dense = next
			seen[n] = dense
			next++
		}
		return Temp{ID: NumTemp(dense)}
	}

	remapOperand := func(op Operand) Operand {
		if to, ok := op.(TempOperand); ok {
			return TempOperand{Temp: remap(to.Temp)}
		}
		return op
	}

	fn.Blocks.Iter(func(_ BlockID, block *BasicBlock) bool {
		for i, instr := range block.Instrs {
			switch k := instr.Kind.(type) {
			case BinOpInstr:
				k.Dest = remap(k.Dest)
				k.Src1 = remapOperand(k.Src1)
				k.Src2 = remapOperand(k.Src2)
				block.Instrs[i].Kind = k
			case UnOpInstr:
				k.Dest = remap(k.Dest)
				k.Src = remapOperand(k.Src)
				block.Instrs[i].Kind = k
			case MovInstr:
				k.Dest = remap(k.Dest)
				k.Src = remapOperand(k.Src)
				block.Instrs[i].Kind = k
			case PhiInstr:
				k.Dest = remap(k.Dest)
				for j, s := range k.Srcs {
					k.Srcs[j] = remapOperand(s)
				}
				block.Instrs[i].Kind = k
			case CallInstr:
				if k.Dest != nil {
					d := remap(*k.Dest)
					k.Dest = &d
				}
				for j, s := range k.Srcs {
					k.Srcs[j] = remapOperand(s)
				}
				block.Instrs[i].Kind = k
			case IfInstr:
				k.Cond = remapOperand(k.Cond)
				block.Instrs[i].Kind = k
			case PrintInstr:
				k.Value = remapOperand(k.Value)
				block.Instrs[i].Kind = k
			}
		}

		switch k := block.Branch.Kind.(type) {
		case RetBranch:
			if k.Value != nil {
				k.Value = remapOperand(k.Value)
				block.Branch.Kind = k
			}
		case CondBranch:
			switch c := k.Cond.(type) {
			case ValueCond:
				c.Value = remapOperand(c.Value)
				k.Cond = c
			case BinOpCond:
				c.Src1 = remapOperand(c.Src1)
				c.Src2 = remapOperand(c.Src2)
				k.Cond = c
			}
			block.Branch.Kind = k
		}
		return false
	})

	for i, p := range fn.Params {
		fn.Params[i] = remap(p)
	}

	fn.Count = &next
}
