package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaizen/internal/ir"
)

func newTestModule(fns ...*ir.Function) *ir.Module {
	return &ir.Module{
		Imports:   []string{"use", "log"},
		Functions: fns,
	}
}

func lines(block *ir.Block) []string {
	out := make([]string, len(block.List))
	for i, item := range block.List {
		out[i] = item.String()
	}
	return out
}

func TestPushPastConditionalBreak(t *testing.T) {
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.Bin(ir.OpAdd, ir.Get(0), ir.NewConst(1))),
		ir.BrIf("exit", ir.Get(0)),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}
	m := newTestModule(fn)

	changed := (&PushCode{}).Run(m, fn)

	require.True(t, changed)
	assert.Equal(t, []string{
		"br_if exit $0",
		"$1 = add($0, 1)",
		"drop call use($1)",
	}, lines(block))
}

func TestPushPastIf(t *testing.T) {
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(7)),
		ir.IfThen(ir.Get(0), ir.NewDrop(ir.NewCall("log"))),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	require.True(t, changed)
	assert.Equal(t, "$1 = 7", block.List[1].String())
	assert.Equal(t, "if ($0) { drop call log() }", block.List[0].String())
}

func TestPushPastDroppedIf(t *testing.T) {
	// A push point hides behind one discard wrapper.
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(3)),
		ir.NewDrop(&ir.If{Cond: ir.Get(0), Then: ir.NewConst(1), Else: ir.NewConst(2)}),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	require.True(t, changed)
	assert.Equal(t, "$1 = 3", block.List[1].String())
}

func TestSideEffectfulValueIsNeverPushed(t *testing.T) {
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewCall("log")),
		ir.BrIf("exit", ir.Get(0)),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}
	before := lines(block)

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	assert.False(t, changed)
	assert.Equal(t, before, lines(block))
}

func TestMinimumBlockSizeGate(t *testing.T) {
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(1)),
		ir.BrIf("exit", ir.Get(0)),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}
	before := lines(block)

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	assert.False(t, changed)
	assert.Equal(t, before, lines(block))
}

func TestNeverPushedPastOwnUse(t *testing.T) {
	// The push point itself reads the candidate's slot, so the assignment
	// must stay where it is.
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(1)),
		ir.BrIf("exit", ir.Get(1)),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 0, Locals: 2, Body: block}
	before := lines(block)

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	assert.False(t, changed)
	assert.Equal(t, before, lines(block))
}

func TestUnconditionalBreakIsNotAPushPoint(t *testing.T) {
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(1)),
		ir.Br("exit"),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 0, Locals: 2, Body: block}
	before := lines(block)

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	assert.False(t, changed)
	assert.Equal(t, before, lines(block))
}

func TestUnconfinedSlotStaysPutButDependentMoves(t *testing.T) {
	// $1 is read outside the inner block, so it fails confinement there;
	// $2 is confined and pure and moves past the conditional.
	inner := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(5)),
		ir.Set(2, ir.Bin(ir.OpAdd, ir.Get(1), ir.NewConst(1))),
		ir.BrIf("exit", ir.Get(0)),
		ir.NewDrop(ir.NewCall("use", ir.Get(2))),
	)
	body := ir.NewBlock(
		inner,
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 2, Body: body}

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	require.True(t, changed)
	assert.Equal(t, []string{
		"$1 = 5",
		"br_if exit $0",
		"$2 = add($1, 1)",
		"drop call use($2)",
	}, lines(inner))
}

func TestConflictingBarrierBlocksEarlierCandidate(t *testing.T) {
	// $2 reads @g, and a write to @g sits between it and the push point;
	// $1 has no such conflict and moves past everything.
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(1)),
		ir.Set(2, &ir.GlobalGet{Name: "g"}),
		&ir.GlobalSet{Name: "g", Value: ir.NewConst(7)},
		ir.BrIf("exit", ir.Get(0)),
		ir.NewDrop(ir.NewCall("use", ir.Get(1), ir.Get(2))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 2, Body: block}
	m := newTestModule(fn)
	m.Globals = []string{"g"}

	changed := (&PushCode{}).Run(m, fn)

	require.True(t, changed)
	assert.Equal(t, []string{
		"$2 = @g",
		"@g = 7",
		"br_if exit $0",
		"$1 = 1",
		"drop call use($1, $2)",
	}, lines(block))
}

func TestRelativeOrderPreserved(t *testing.T) {
	// Both pushables move; their order among themselves and the order of
	// the retained instructions must survive.
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(1)),
		ir.NewDrop(ir.NewCall("log")),
		ir.Set(2, ir.NewConst(2)),
		ir.BrIf("exit", ir.Get(0)),
		ir.NewDrop(ir.NewCall("use", ir.Get(1), ir.Get(2))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 2, Body: block}

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	require.True(t, changed)
	assert.Equal(t, []string{
		"drop call log()",
		"br_if exit $0",
		"$1 = 1",
		"$2 = 2",
		"drop call use($1, $2)",
	}, lines(block))
}

func TestPushedTwicePastLaterPushPoint(t *testing.T) {
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(1)),
		ir.BrIf("exit", ir.Get(0)),
		ir.BrIf("exit", ir.Un(ir.OpEqz, ir.Get(0))),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	require.True(t, changed)
	assert.Equal(t, []string{
		"br_if exit $0",
		"br_if exit eqz($0)",
		"$1 = 1",
		"drop call use($1)",
	}, lines(block))
}

func TestIdempotence(t *testing.T) {
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.Bin(ir.OpAdd, ir.Get(0), ir.NewConst(1))),
		ir.BrIf("exit", ir.Get(0)),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}
	m := newTestModule(fn)

	require.True(t, (&PushCode{}).Run(m, fn))
	once := lines(block)

	assert.False(t, (&PushCode{}).Run(m, fn))
	assert.Equal(t, once, lines(block))
}

func TestParameterIsNeverPushed(t *testing.T) {
	// A parameter holds a value before the body runs, so even a lone
	// assignment to it is not a single first assignment.
	block := ir.NewBlockNamed("exit",
		ir.Set(0, ir.NewConst(1)),
		ir.BrIf("exit", ir.Get(1)),
		ir.NewDrop(ir.NewCall("use", ir.Get(0))),
	)
	fn := &ir.Function{Name: "f", Params: 2, Locals: 0, Body: block}
	before := lines(block)

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	assert.False(t, changed)
	assert.Equal(t, before, lines(block))
}

func TestPushPastTrappingBarrier(t *testing.T) {
	// A possibly-trapping store between the assignment and the push point
	// does not block a pure local assignment: if the store traps, the
	// confined slot is never observed.
	block := ir.NewBlockNamed("exit",
		ir.Set(1, ir.NewConst(1)),
		&ir.Store{Addr: ir.Get(0), Value: ir.NewConst(0)},
		ir.BrIf("exit", ir.Get(0)),
		ir.NewDrop(ir.NewCall("use", ir.Get(1))),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 1, Body: block}

	changed := (&PushCode{}).Run(newTestModule(fn), fn)

	require.True(t, changed)
	assert.Equal(t, []string{
		"store($0, 0)",
		"br_if exit $0",
		"$1 = 1",
		"drop call use($1)",
	}, lines(block))
}

func TestAnalyzeLocals(t *testing.T) {
	// Slot layout: $0 param, $1..$4 locals.
	body := ir.NewBlock(
		ir.Set(1, ir.NewConst(1)),             // single set: CSA
		ir.Set(2, ir.Get(2)),                  // get before set in post-order: not CSA
		ir.Set(3, ir.NewConst(1)),             // two sets: not CSA
		ir.Set(3, ir.NewConst(2)),
		ir.NewDrop(ir.Get(4)),                 // never set: not CSA
		ir.NewDrop(ir.Get(1)),
	)
	fn := &ir.Function{Name: "f", Params: 1, Locals: 4, Body: body}

	u := analyzeLocals(fn)

	assert.False(t, u.csa[0], "parameters are never CSA")
	assert.True(t, u.csa[1])
	assert.False(t, u.csa[2])
	assert.False(t, u.csa[3])
	assert.False(t, u.csa[4])
	assert.Equal(t, 1, u.numSets[1])
	assert.Equal(t, 2, u.numSets[3])
	assert.Equal(t, 1, u.numGets[1])
	assert.Equal(t, 1, u.numGets[2])
}

func TestSegmentBoundsAssertion(t *testing.T) {
	p := &pusher{list: make([]ir.Expression, 4), effects: make([]*ir.EffectSet, 4)}
	assert.Panics(t, func() { p.optimizeSegment(2, 2) })
	assert.Panics(t, func() { p.optimizeSegment(-1, 2) })
}
