package vm

import "fmt"

// Register names the fixed 15-member hardware-register set. Registers are
// always live (default 0) and re-assignable, unlike numeric temporaries.
type Register int

const (
	EAX Register = iota
	EBX
	ECX
	EDX
	EDI
	ESI
	EBP
	R8D
	R9D
	R10D
	R11D
	R12D
	R13D
	R14D
	R15D
)

// AllRegisters lists every register in declaration order — the order Dump
// uses after exhausting numeric temps.
var AllRegisters = [15]Register{EAX, EBX, ECX, EDX, EDI, ESI, EBP, R8D, R9D, R10D, R11D, R12D, R13D, R14D, R15D}

var registerNames = map[Register]string{
	EAX: "eax", EBX: "ebx", ECX: "ecx", EDX: "edx", EDI: "edi", ESI: "esi", EBP: "ebp",
	R8D: "r8d", R9D: "r9d", R10D: "r10d", R11D: "r11d", R12D: "r12d", R13D: "r13d", R14D: "r14d", R15D: "r15d",
}

var registersByName = func() map[string]Register {
	m := make(map[string]Register, len(registerNames))
	for reg, name := range registerNames {
		m[name] = reg
	}
	return m
}()

func (r Register) String() string { return registerNames[r] }

// RegisterFromString looks up a register by its lowercase name.
func RegisterFromString(s string) (Register, bool) {
	r, ok := registersByName[s]
	return r, ok
}

// TempID discriminates a numeric temporary (`#n`, created by first
// definition) from a named hardware register (always live).
type TempID struct {
	isReg bool
	num   uint64
	reg   Register
}

// NumTemp builds a numeric temporary id.
func NumTemp(n uint64) TempID { return TempID{num: n} }

// RegTemp builds a register temporary id.
func RegTemp(r Register) TempID { return TempID{isReg: true, reg: r} }

func (t TempID) IsRegister() bool { return t.isReg }
func (t TempID) Num() uint64      { return t.num }
func (t TempID) Register() Register {
	return t.reg
}

func (t TempID) String() string {
	if t.isReg {
		return t.reg.String()
	}
	return fmt.Sprintf("%d", t.num)
}

// Temp is a virtual register reference, rendered as `#<id>`.
type Temp struct {
	ID TempID
}

func (t Temp) String() string { return fmt.Sprintf("#%s", t.ID) }
