package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dolthub/swiss"
)

// TempStore holds one function call's live temporaries: the fixed
// register file (always present, default 0) plus numeric temps, which
// spring into existence on first definition — ported from
// _examples/original_source/main/src/exec.rs's TempStore.
//
// When fn.Count is set (the optional renaming pass in vm/rename.go has
// run), numerics live in a dense slice instead of the map; Get/Save
// branch on which backing is active.
type TempStore struct {
	registers [15]int32
	numerics  *swiss.Map[uint64, int32]
	dense     []int32
	useDense  bool
}

// NewTempStore builds an empty store for one function activation. If fn
// has been through the renaming pass (fn.Count != nil), numeric temps use
// a pre-sized dense slice; otherwise they're allocated lazily in a map.
func NewTempStore(fn *Func) *TempStore {
	s := &TempStore{numerics: swiss.NewMap[uint64, int32](16)}
	if fn.Count != nil {
		s.dense = make([]int32, *fn.Count)
		s.useDense = true
	}
	return s
}

// Get reads a temp's current value. With the map backing, reading an
// undefined numeric temp returns (0, false); with the dense backing, an
// unwritten slot below the count returns (0, true). The interpreter's
// evalOperand does not check the flag, so an undefined temp reads as 0
// and no error is reported.
func (s *TempStore) Get(t Temp) (int32, bool) {
	if t.ID.IsRegister() {
		return s.registers[t.ID.Register()], true
	}
	if s.useDense {
		n := t.ID.Num()
		if n >= uint64(len(s.dense)) {
			return 0, false
		}
		return s.dense[n], true
	}
	return s.numerics.Get(t.ID.Num())
}

// Save writes a temp's value, creating the slot on first write for
// map-backed numerics.
func (s *TempStore) Save(t Temp, v int32) {
	if t.ID.IsRegister() {
		s.registers[t.ID.Register()] = v
		return
	}
	if s.useDense {
		n := t.ID.Num()
		if n >= uint64(len(s.dense)) {
			grown := make([]int32, n+1)
			copy(grown, s.dense)
			s.dense = grown
		}
		s.dense[n] = v
		return
	}
	s.numerics.Put(t.ID.Num(), v)
}

// Dump renders every live temp for the `dump` instruction: numeric temps
// first in ascending id order, then every register in declaration order —
// matching the original's deterministic dump ordering.
func (s *TempStore) Dump() string {
	var nums []uint64
	if s.useDense {
		for i := range s.dense {
			nums = append(nums, uint64(i))
		}
	} else {
		s.numerics.Iter(func(k uint64, _ int32) bool {
			nums = append(nums, k)
			return false
		})
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	var sb strings.Builder
	for _, n := range nums {
		v, _ := s.Get(Temp{ID: NumTemp(n)})
		fmt.Fprintf(&sb, "#%d = %d\n", n, v)
	}
	for _, r := range AllRegisters {
		fmt.Fprintf(&sb, "%s = %d\n", r, s.registers[r])
	}
	return sb.String()
}
