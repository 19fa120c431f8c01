package vm

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func runSource(t *testing.T, source string, cfg Config) Outcome {
	t.Helper()
	prog, perr := Parse(source)
	require.Nil(t, perr)
	require.Nil(t, Analyze(prog, cfg.SSA))
	outcome, err := Run(prog, cfg)
	require.Nil(t, err)
	return outcome
}

func TestInterpMinimalReturn(t *testing.T) {
	outcome := runSource(t, "main\n@0\nret 7\n", DefaultConfig())
	require.Equal(t, ReturnOutcome{Value: 7}, outcome)
}

func TestInterpArithmeticWrapping(t *testing.T) {
	outcome := runSource(t, "main\n@0\n#0 = 2147483647 + 1\nret #0\n", DefaultConfig())
	require.Equal(t, ReturnOutcome{Value: -2147483648}, outcome)
}

func TestInterpDivideByZero(t *testing.T) {
	outcome := runSource(t, "main\n@0\n#0 = 10 / 0\nret #0\n", DefaultConfig())
	require.Equal(t, DivByZeroOutcome{}, outcome)
}

func TestInterpPhiSelection(t *testing.T) {
	source := `main #3
@0
cmp #3 @1 @2
@1 @0
#0 = 1
jmp @3
@2 @0
#0 = 2
jmp @3
@3 @1 @2
#1 = phi #0 #0
ret #1
`
	prog, perr := Parse(source)
	require.Nil(t, perr)
	require.Nil(t, Analyze(prog, false))

	fn, ok := prog.Get("main")
	require.True(t, ok)
	ctx := newContext(prog, DefaultConfig())

	require.Equal(t, ReturnOutcome{Value: 2}, runFunc(ctx, fn, []int32{0}))
	require.Equal(t, ReturnOutcome{Value: 1}, runFunc(ctx, fn, []int32{5}))
}

func TestInterpCallWithReturn(t *testing.T) {
	source := "main\n#0 = call helper 3 4\nret #0\nhelper #0 #1\n#2 = #0 + #1\nret #2\n"
	outcome := runSource(t, source, DefaultConfig())
	require.Equal(t, ReturnOutcome{Value: 7}, outcome)
}

func TestInterpTimeout(t *testing.T) {
	outcome := runSource(t, "main\n@0 @0\njmp @0\n", Config{Timeout: 20 * time.Millisecond, Stdout: &bytes.Buffer{}})
	require.Equal(t, TimeoutOutcome{}, outcome)
}

func TestInterpPrintAndDump(t *testing.T) {
	var out bytes.Buffer
	outcome := runSource(t, "main\n@0\n#0 = 9\nprint #0\ndump\nret #0\n", Config{Stdout: &out})
	require.Equal(t, ReturnOutcome{Value: 9}, outcome)
	require.Contains(t, out.String(), "Dump of All Temps")
	require.Contains(t, out.String(), "#0 = 9")
}

func TestAnalyzeRejectsMissingMain(t *testing.T) {
	prog, perr := Parse("helper\n@0\nret 0\n")
	require.Nil(t, perr)
	err := Analyze(prog, false)
	require.NotNil(t, err)
	require.Equal(t, SENoMain, err.Kind)
}

func TestAnalyzeRejectsMultiDefUnderSSA(t *testing.T) {
	source := `main
@0
#0 = 1
cmp #0 @1 @2
@1 @0
#0 = 2
jmp @3
@2 @0
jmp @3
@3 @1 @2
ret #0
`
	prog, perr := Parse(source)
	require.Nil(t, perr)
	require.Nil(t, Analyze(prog, false))
	err := Analyze(prog, true)
	require.NotNil(t, err)
	require.Equal(t, SEMultiDefs, err.Kind)
}

func TestAnalyzeRejectsUnsupportedCondJump(t *testing.T) {
	prog, perr := Parse("main\n@0\njz @0 @0\n")
	require.Nil(t, perr)
	err := Analyze(prog, false)
	require.NotNil(t, err)
	require.Equal(t, SEUnsupportedCondJump, err.Kind)
}
