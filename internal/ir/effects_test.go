package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPureExpressionHasNoSideEffects(t *testing.T) {
	e := EffectsOf(Bin(OpAdd, Get(0), NewConst(1)))
	assert.False(t, e.HasSideEffects())
	assert.False(t, e.TransfersControlFlow())
}

func TestLocalSetHasSideEffects(t *testing.T) {
	e := EffectsOf(Set(0, NewConst(1)))
	assert.True(t, e.HasSideEffects())
}

func TestTrappingOperatorsHaveSideEffects(t *testing.T) {
	assert.True(t, EffectsOf(Bin(OpDivS, Get(0), Get(1))).HasSideEffects())
	assert.True(t, EffectsOf(&Load{Addr: Get(0)}).HasSideEffects())
	assert.True(t, EffectsOf(&Unreachable{}).HasSideEffects())
}

func TestCallIsOpaque(t *testing.T) {
	e := EffectsOf(NewCall("f"))
	assert.True(t, e.HasSideEffects())
	// a call conflicts with any global state access
	assert.True(t, e.Conflicts(EffectsOf(&GlobalGet{Name: "g"})))
	assert.True(t, e.Conflicts(EffectsOf(&Load{Addr: NewConst(0)})))
	assert.True(t, e.Conflicts(EffectsOf(NewCall("h"))))
	// but not with pure local traffic
	assert.False(t, e.Conflicts(EffectsOf(Set(1, NewConst(1)))))
}

func TestInternalBreakIsNotATransfer(t *testing.T) {
	internal := EffectsOf(NewBlockNamed("l", BrIf("l", Get(0))))
	assert.False(t, internal.TransfersControlFlow())

	external := EffectsOf(BrIf("out", Get(0)))
	assert.True(t, external.TransfersControlFlow())
	assert.True(t, external.HasSideEffects())
}

func TestLocalReadWriteConflicts(t *testing.T) {
	write0 := EffectsOf(Set(0, NewConst(1)))
	read0 := EffectsOf(Get(0))
	write1 := EffectsOf(Set(1, NewConst(1)))

	assert.True(t, write0.Conflicts(read0))
	assert.True(t, read0.Conflicts(write0))
	assert.True(t, write0.Conflicts(write0))
	assert.False(t, write0.Conflicts(write1))
	assert.False(t, read0.Conflicts(read0))
}

func TestGlobalAndMemoryConflicts(t *testing.T) {
	writeG := EffectsOf(&GlobalSet{Name: "g", Value: NewConst(1)})
	readG := EffectsOf(&GlobalGet{Name: "g"})
	readH := EffectsOf(&GlobalGet{Name: "h"})
	store := EffectsOf(&Store{Addr: NewConst(0), Value: NewConst(1)})
	load := EffectsOf(&Load{Addr: NewConst(0)})

	assert.True(t, writeG.Conflicts(readG))
	assert.False(t, writeG.Conflicts(readH))
	assert.True(t, store.Conflicts(load))
	assert.True(t, load.Conflicts(store))
	assert.True(t, store.Conflicts(store))
}

func TestBranchConflictsWithSideEffects(t *testing.T) {
	branch := EffectsOf(BrIf("out", Get(0)))
	localWrite := EffectsOf(Set(1, NewConst(1)))
	pureRead := EffectsOf(Get(1))

	assert.True(t, branch.Conflicts(localWrite))
	assert.False(t, branch.Conflicts(pureRead))
}

func TestIgnoreControlFlowTransfers(t *testing.T) {
	branch := EffectsOf(BrIf("out", Get(0)))
	localWrite := EffectsOf(Set(1, NewConst(1)))
	assert.True(t, branch.Conflicts(localWrite))

	branch.IgnoreControlFlowTransfers()
	assert.False(t, branch.TransfersControlFlow())
	assert.False(t, branch.Conflicts(localWrite))

	// merging in more branching code must not re-introduce the transfer
	branch.Merge(EffectsOf(&Return{}))
	assert.False(t, branch.TransfersControlFlow())

	branch.Scan(Br("elsewhere"))
	assert.False(t, branch.TransfersControlFlow())
}

func TestMergeUnionsEffects(t *testing.T) {
	e := EffectsOf(Get(0))
	e.Merge(EffectsOf(Set(1, NewConst(1))))
	e.Merge(EffectsOf(&GlobalGet{Name: "g"}))

	assert.True(t, e.HasSideEffects())
	assert.True(t, e.Conflicts(EffectsOf(Get(1))))
	assert.True(t, e.Conflicts(EffectsOf(&GlobalSet{Name: "g", Value: NewConst(0)})))
	assert.False(t, e.Conflicts(EffectsOf(Get(2))))
}

func TestTrapConflictsWithTransfersAndGlobalWrites(t *testing.T) {
	trap := EffectsOf(Bin(OpDivS, Get(0), Get(1)))
	branch := EffectsOf(&Return{})
	globalWrite := EffectsOf(&GlobalSet{Name: "g", Value: NewConst(1)})
	localWrite := EffectsOf(Set(2, NewConst(1)))

	assert.True(t, trap.Conflicts(branch))
	assert.True(t, trap.Conflicts(globalWrite))
	// a trap may reorder with a pure local write: if the trap hits, the
	// local is never observed
	assert.False(t, trap.Conflicts(localWrite))
}
