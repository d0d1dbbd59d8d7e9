package ir

// Effect analysis: summarizes what an expression tree can observably do, so
// passes can decide whether two pieces of code may be reordered. The
// summary is deliberately conservative; anything the analysis cannot
// classify precisely is treated as touching everything.

// EffectSet describes the observable effects of one expression tree.
// Merge and Conflicts behave as lattice join and interference test:
// accumulation order does not matter.
type EffectSet struct {
	localsRead     map[int]struct{}
	localsWritten  map[int]struct{}
	globalsRead    map[string]struct{}
	globalsWritten map[string]struct{}

	readsMemory  bool
	writesMemory bool

	// calls is set for opaque calls; a call is assumed to read and write
	// both memory and globals, and to possibly trap.
	calls bool

	// implicitTrap marks expressions that can trap at runtime (division,
	// memory access, unreachable, calls).
	implicitTrap bool

	// branchesOut marks transfers of control leaving the analyzed tree:
	// a return, or a break whose target label is not defined inside it.
	branchesOut bool

	// ignoreBranches excludes control-flow transfers from conflicts and
	// from any later Scan or Merge into this set. Used when the caller
	// has proven that branching away is harmless.
	ignoreBranches bool
}

// NewEffectSet returns an empty effect summary.
func NewEffectSet() *EffectSet {
	return &EffectSet{
		localsRead:     make(map[int]struct{}),
		localsWritten:  make(map[int]struct{}),
		globalsRead:    make(map[string]struct{}),
		globalsWritten: make(map[string]struct{}),
	}
}

// EffectsOf analyzes a whole expression tree.
func EffectsOf(expr Expression) *EffectSet {
	e := NewEffectSet()
	e.Scan(expr)
	return e
}

// Scan folds the effects of an expression tree into the set. Break targets
// that resolve to labels inside the scanned tree are internal control flow
// and do not count as branching out.
func (e *EffectSet) Scan(expr Expression) {
	labels := make(map[string]int)
	e.scan(expr, labels)
}

func (e *EffectSet) scan(expr Expression, labels map[string]int) {
	if expr == nil {
		return
	}
	switch n := expr.(type) {
	case *Nop, *Const:
	case *LocalGet:
		e.localsRead[n.Index] = struct{}{}
	case *LocalSet:
		e.scan(n.Value, labels)
		e.localsWritten[n.Index] = struct{}{}
	case *GlobalGet:
		e.globalsRead[n.Name] = struct{}{}
	case *GlobalSet:
		e.scan(n.Value, labels)
		e.globalsWritten[n.Name] = struct{}{}
	case *Unary:
		e.scan(n.Value, labels)
	case *Binary:
		e.scan(n.Left, labels)
		e.scan(n.Right, labels)
		if n.Op.MayTrap() {
			e.implicitTrap = true
		}
	case *Load:
		e.scan(n.Addr, labels)
		e.readsMemory = true
		e.implicitTrap = true
	case *Store:
		e.scan(n.Addr, labels)
		e.scan(n.Value, labels)
		e.writesMemory = true
		e.implicitTrap = true
	case *Call:
		for _, arg := range n.Args {
			e.scan(arg, labels)
		}
		e.calls = true
		e.implicitTrap = true
	case *Drop:
		e.scan(n.Value, labels)
	case *Block:
		if n.Label != "" {
			labels[n.Label]++
		}
		for _, item := range n.List {
			e.scan(item, labels)
		}
		if n.Label != "" {
			labels[n.Label]--
		}
	case *If:
		e.scan(n.Cond, labels)
		e.scan(n.Then, labels)
		e.scan(n.Else, labels)
	case *Loop:
		if n.Label != "" {
			labels[n.Label]++
		}
		e.scan(n.Body, labels)
		if n.Label != "" {
			labels[n.Label]--
		}
	case *Break:
		e.scan(n.Cond, labels)
		if labels[n.Target] == 0 && !e.ignoreBranches {
			e.branchesOut = true
		}
	case *Return:
		e.scan(n.Value, labels)
		if !e.ignoreBranches {
			e.branchesOut = true
		}
	case *Unreachable:
		e.implicitTrap = true
	default:
		// An unknown variant is treated as maximally effectful.
		e.calls = true
		e.implicitTrap = true
		e.readsMemory = true
		e.writesMemory = true
	}
}

// IgnoreControlFlowTransfers switches the set into the mode where branching
// away is not considered an effect, for itself and for everything scanned
// or merged into it afterwards.
func (e *EffectSet) IgnoreControlFlowTransfers() {
	e.ignoreBranches = true
	e.branchesOut = false
}

// TransfersControlFlow reports whether the summarized code can leave the
// analyzed tree through a branch or return.
func (e *EffectSet) TransfersControlFlow() bool {
	return e.branchesOut
}

// HasSideEffects reports whether the summarized code does anything
// observable beyond producing a value: writes of any kind, opaque calls,
// possible traps, or control transfers.
func (e *EffectSet) HasSideEffects() bool {
	return len(e.localsWritten) > 0 ||
		len(e.globalsWritten) > 0 ||
		e.writesMemory ||
		e.calls ||
		e.implicitTrap ||
		e.branchesOut
}

func (e *EffectSet) readsGlobalState() bool {
	return len(e.globalsRead) > 0 || e.readsMemory || e.calls
}

func (e *EffectSet) writesGlobalState() bool {
	return len(e.globalsWritten) > 0 || e.writesMemory || e.calls
}

// Conflicts reports whether the two effect sets may not be reordered with
// respect to each other. The relation is symmetric.
func (e *EffectSet) Conflicts(other *EffectSet) bool {
	for i := range e.localsWritten {
		if _, ok := other.localsRead[i]; ok {
			return true
		}
		if _, ok := other.localsWritten[i]; ok {
			return true
		}
	}
	for i := range other.localsWritten {
		if _, ok := e.localsRead[i]; ok {
			return true
		}
	}

	if e.calls || other.calls {
		// An opaque call interferes with any global or memory access and
		// with another call.
		if e.calls && (other.calls || other.readsGlobalState() || other.writesGlobalState()) {
			return true
		}
		if other.calls && (e.readsGlobalState() || e.writesGlobalState()) {
			return true
		}
	} else {
		for g := range e.globalsWritten {
			if _, ok := other.globalsRead[g]; ok {
				return true
			}
			if _, ok := other.globalsWritten[g]; ok {
				return true
			}
		}
		for g := range other.globalsWritten {
			if _, ok := e.globalsRead[g]; ok {
				return true
			}
		}
		if e.writesMemory && (other.readsMemory || other.writesMemory) {
			return true
		}
		if other.writesMemory && e.readsMemory {
			return true
		}
	}

	// Nothing with side effects may move across a control transfer.
	if e.branchesOut && other.HasSideEffects() {
		return true
	}
	if other.branchesOut && e.HasSideEffects() {
		return true
	}

	// A possible trap may not change order with respect to control
	// transfers or writes to global state; local writes are fine, a local
	// skipped by a trap is never observed.
	if e.implicitTrap && (other.branchesOut || other.writesGlobalState()) {
		return true
	}
	if other.implicitTrap && (e.branchesOut || e.writesGlobalState()) {
		return true
	}

	return false
}

// Merge folds the other set into this one.
func (e *EffectSet) Merge(other *EffectSet) {
	for i := range other.localsRead {
		e.localsRead[i] = struct{}{}
	}
	for i := range other.localsWritten {
		e.localsWritten[i] = struct{}{}
	}
	for g := range other.globalsRead {
		e.globalsRead[g] = struct{}{}
	}
	for g := range other.globalsWritten {
		e.globalsWritten[g] = struct{}{}
	}
	e.readsMemory = e.readsMemory || other.readsMemory
	e.writesMemory = e.writesMemory || other.writesMemory
	e.calls = e.calls || other.calls
	e.implicitTrap = e.implicitTrap || other.implicitTrap
	if !e.ignoreBranches {
		e.branchesOut = e.branchesOut || other.branchesOut
	}
}
