package ir

// Walk visits every node of an expression tree depth-first, children before
// parents, left to right within a node. This is the traversal order every
// analysis in this package is defined against: by the time a node is
// visited, everything it contains has already been seen.
//
// The callback may mutate a Block's instruction list in place; the walk has
// already finished with the list by then and will not revisit it.
func Walk(expr Expression, visit func(Expression)) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *Nop, *Const, *LocalGet, *GlobalGet, *Unreachable:
		// leaves
	case *LocalSet:
		Walk(e.Value, visit)
	case *GlobalSet:
		Walk(e.Value, visit)
	case *Unary:
		Walk(e.Value, visit)
	case *Binary:
		Walk(e.Left, visit)
		Walk(e.Right, visit)
	case *Load:
		Walk(e.Addr, visit)
	case *Store:
		Walk(e.Addr, visit)
		Walk(e.Value, visit)
	case *Call:
		for _, arg := range e.Args {
			Walk(arg, visit)
		}
	case *Drop:
		Walk(e.Value, visit)
	case *Block:
		for _, item := range e.List {
			Walk(item, visit)
		}
	case *If:
		Walk(e.Cond, visit)
		Walk(e.Then, visit)
		Walk(e.Else, visit)
	case *Loop:
		Walk(e.Body, visit)
	case *Break:
		Walk(e.Cond, visit)
	case *Return:
		Walk(e.Value, visit)
	}
	visit(expr)
}
