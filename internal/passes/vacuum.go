package passes

import (
	"kaizen/internal/ir"
)

// Vacuum removes code that cannot matter: instructions whose whole subtree
// has no observable effect, and anything in a block list after an
// unconditional exit.
type Vacuum struct{}

func (*Vacuum) Name() string {
	return "vacuum"
}

func (*Vacuum) Description() string {
	return "Removes effect-free instructions and code after unconditional exits"
}

func (*Vacuum) FunctionParallel() bool {
	return true
}

func (*Vacuum) Run(m *ir.Module, fn *ir.Function) bool {
	changed := false
	ir.Walk(fn.Body, func(expr ir.Expression) {
		block, ok := expr.(*ir.Block)
		if !ok {
			return
		}
		kept := block.List[:0]
		dead := false
		for _, item := range block.List {
			if dead {
				changed = true
				continue
			}
			if !ir.EffectsOf(item).HasSideEffects() {
				changed = true
				continue
			}
			kept = append(kept, item)
			if isUnconditionalExit(item) {
				dead = true
			}
		}
		block.List = kept
	})
	return changed
}

// isUnconditionalExit reports whether control never continues past this
// instruction within the same list.
func isUnconditionalExit(expr ir.Expression) bool {
	switch e := expr.(type) {
	case *ir.Break:
		return e.Cond == nil
	case *ir.Return, *ir.Unreachable:
		return true
	}
	return false
}
