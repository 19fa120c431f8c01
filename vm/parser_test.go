package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMinimalReturn(t *testing.T) {
	prog, err := Parse("main\n#0 = 5\nret #0\n")
	require.Nil(t, err)

	fn, ok := prog.Get("main")
	require.True(t, ok)
	entry, ok := fn.EntryBlockID()
	require.True(t, ok)

	block, ok := fn.Blocks.Get(entry)
	require.True(t, ok)
	require.Len(t, block.Instrs, 1)

	mov, ok := block.Instrs[0].Kind.(MovInstr)
	require.True(t, ok)
	require.Equal(t, ConstOperand{Value: 5}, mov.Src)

	ret, ok := block.Branch.Kind.(RetBranch)
	require.True(t, ok)
	require.Equal(t, TempOperand{Temp: Temp{ID: NumTemp(0)}}, ret.Value)
}

func TestParseBinOpAndUnOp(t *testing.T) {
	prog, err := Parse("main\n#0 = 3 + 4\n#1 = -#0\nret #1\n")
	require.Nil(t, err)

	fn, _ := prog.Get("main")
	entry, _ := fn.EntryBlockID()
	block, _ := fn.Blocks.Get(entry)
	require.Len(t, block.Instrs, 2)

	bin := block.Instrs[0].Kind.(BinOpInstr)
	require.Equal(t, Add, bin.Op)
	require.Equal(t, ConstOperand{Value: 3}, bin.Src1)
	require.Equal(t, ConstOperand{Value: 4}, bin.Src2)

	un := block.Instrs[1].Kind.(UnOpInstr)
	require.Equal(t, Neg, un.Op)
}

func TestParseMultiBlockWithPhi(t *testing.T) {
	source := `main
@0
cmp #0 @1 @2
@1 @0
#1 = 1
jmp @3
@2 @0
#1 = 2
jmp @3
@3 @1 @2
#2 = phi #1 #1
ret #2
`
	prog, err := Parse(source)
	require.Nil(t, err)

	fn, ok := prog.Get("main")
	require.True(t, ok)
	require.Equal(t, 4, fn.Blocks.Count())

	last, ok := fn.Blocks.Get(BlockID(3))
	require.True(t, ok)
	require.Equal(t, []BlockID{1, 2}, last.Preds)

	phi, ok := last.Instrs[0].Kind.(PhiInstr)
	require.True(t, ok)
	require.Len(t, phi.Srcs, 2)
}

func TestParseCallWithAndWithoutDest(t *testing.T) {
	prog, err := Parse("main\n#0 = call helper 1 2\ncall helper 3\nret #0\nhelper #0 #1\nret #0\n")
	require.Nil(t, err)

	fn, _ := prog.Get("main")
	entry, _ := fn.EntryBlockID()
	block, _ := fn.Blocks.Get(entry)

	withDest := block.Instrs[0].Kind.(CallInstr)
	require.NotNil(t, withDest.Dest)
	require.Len(t, withDest.Srcs, 2)

	withoutDest := block.Instrs[1].Kind.(CallInstr)
	require.Nil(t, withoutDest.Dest)
}

func TestParseUnknownInstructionReported(t *testing.T) {
	_, err := Parse("main\n@0\ngarbage token here\nret #0\n")
	require.NotNil(t, err)
	require.Equal(t, PEUnknownInstr, err.Kind)
}

func TestParseMissingBlockRequired(t *testing.T) {
	_, err := Parse("main\nhelper\n@0\nret 0\n")
	require.NotNil(t, err)
	require.Equal(t, PEFuncNeedBlock, err.Kind)
}
