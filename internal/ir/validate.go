package ir

import "fmt"

// Validate checks the structural invariants passes rely on: local indices
// in range, break targets resolving to an enclosing label, referenced
// globals and call targets declared. It returns every violation found.
func Validate(m *Module) []error {
	var errs []error
	for _, f := range m.Functions {
		v := &validator{module: m, fn: f, labels: make(map[string]int)}
		v.check(f.Body)
		errs = append(errs, v.errs...)
	}
	return errs
}

type validator struct {
	module *Module
	fn     *Function
	labels map[string]int
	errs   []error
}

func (v *validator) errorf(format string, args ...interface{}) {
	prefixed := fmt.Sprintf("func %s: ", v.fn.Name) + fmt.Sprintf(format, args...)
	v.errs = append(v.errs, fmt.Errorf("%s", prefixed))
}

func (v *validator) checkLocal(index int) {
	if index < 0 || index >= v.fn.NumLocals() {
		v.errorf("local index %d out of range (have %d slots)", index, v.fn.NumLocals())
	}
}

func (v *validator) checkGlobal(name string) {
	if !v.module.HasGlobal(name) {
		v.errorf("undeclared global @%s", name)
	}
}

func (v *validator) check(expr Expression) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *Nop, *Const, *Unreachable:
	case *LocalGet:
		v.checkLocal(e.Index)
	case *LocalSet:
		v.checkLocal(e.Index)
		v.check(e.Value)
	case *GlobalGet:
		v.checkGlobal(e.Name)
	case *GlobalSet:
		v.checkGlobal(e.Name)
		v.check(e.Value)
	case *Unary:
		v.check(e.Value)
	case *Binary:
		v.check(e.Left)
		v.check(e.Right)
	case *Load:
		v.check(e.Addr)
	case *Store:
		v.check(e.Addr)
		v.check(e.Value)
	case *Call:
		if v.module.Function(e.Target) == nil && !v.module.HasImport(e.Target) {
			v.errorf("call to undefined function %s", e.Target)
		}
		for _, arg := range e.Args {
			v.check(arg)
		}
	case *Drop:
		v.check(e.Value)
	case *Block:
		if e.Label != "" {
			v.labels[e.Label]++
		}
		for _, item := range e.List {
			v.check(item)
		}
		if e.Label != "" {
			v.labels[e.Label]--
		}
	case *If:
		v.check(e.Cond)
		v.check(e.Then)
		v.check(e.Else)
	case *Loop:
		if e.Label != "" {
			v.labels[e.Label]++
		}
		v.check(e.Body)
		if e.Label != "" {
			v.labels[e.Label]--
		}
	case *Break:
		if v.labels[e.Target] == 0 {
			v.errorf("break to unknown label %s", e.Target)
		}
		v.check(e.Cond)
	case *Return:
		v.check(e.Value)
	default:
		v.errorf("unknown expression kind %d", expr.Kind())
	}
}
