package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeRejectsBadCFGPreds(t *testing.T) {
	source := `main
@0
jmp @1
@1
ret 0
` // @1 declares no preds, but @0 actually branches to it
	prog, perr := Parse(source)
	require.Nil(t, perr)

	err := Analyze(prog, false)
	require.NotNil(t, err)
	require.Equal(t, SEInvalidCFG, err.Kind)
}

func TestAnalyzeRejectsPhiInEntryBlock(t *testing.T) {
	source := "main\n@0\n#0 = phi 1\nret #0\n"
	prog, perr := Parse(source)
	require.Nil(t, perr)

	err := Analyze(prog, false)
	require.NotNil(t, err)
	require.Equal(t, SEInvalidProgram, err.Kind)
}

func TestAnalyzeRejectsUnknownCallee(t *testing.T) {
	prog, perr := Parse("main\n@0\ncall nonexistent\nret 0\n")
	require.Nil(t, perr)

	err := Analyze(prog, false)
	require.NotNil(t, err)
	require.Equal(t, SEInvalidProgram, err.Kind)
}

func TestRenameProducesDenseCount(t *testing.T) {
	prog, perr := Parse("main\n@0\n#5 = 1\n#2 = #5 + 1\nret #2\n")
	require.Nil(t, perr)

	fn, _ := prog.Get("main")
	require.Nil(t, Analyze(prog, false))
	Rename(fn)

	require.NotNil(t, fn.Count)
	require.EqualValues(t, 2, *fn.Count)
}

func TestRenamedFunctionRunsOnDenseStore(t *testing.T) {
	prog, perr := Parse("main\n@0\n#5 = 1\n#2 = #5 + 1\nret #2\n")
	require.Nil(t, perr)

	fn, _ := prog.Get("main")
	require.Nil(t, Analyze(prog, false))
	Rename(fn)

	ctx := newContext(prog, DefaultConfig())
	outcome := runFunc(ctx, fn, nil)
	require.Equal(t, ReturnOutcome{Value: 2}, outcome)
}
