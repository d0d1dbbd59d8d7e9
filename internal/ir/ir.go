package ir

// This file defines the structured IR: a tree of expressions owned by
// functions. Control flow is expressed with nested blocks, ifs and loops
// rather than a flat CFG, so passes that only care about straight-line
// sequences can work on a block's instruction list in place.

// Kind tags the closed set of expression variants. Passes dispatch by
// switching on the tag instead of growing per-node virtual methods.
type Kind uint8

const (
	KindNop Kind = iota
	KindConst
	KindLocalGet
	KindLocalSet
	KindGlobalGet
	KindGlobalSet
	KindUnary
	KindBinary
	KindLoad
	KindStore
	KindCall
	KindDrop
	KindBlock
	KindIf
	KindLoop
	KindBreak
	KindReturn
	KindUnreachable
)

// Expression is a node in a function body tree.
type Expression interface {
	Kind() Kind
	String() string
}

// Op names a primitive operator. Signed division and remainder may trap.
type Op string

const (
	OpAdd  Op = "add"
	OpSub  Op = "sub"
	OpMul  Op = "mul"
	OpDivS Op = "div_s"
	OpRemS Op = "rem_s"
	OpAnd  Op = "and"
	OpOr   Op = "or"
	OpXor  Op = "xor"
	OpShl  Op = "shl"
	OpShrS Op = "shr_s"
	OpEq   Op = "eq"
	OpNe   Op = "ne"
	OpLtS  Op = "lt_s"
	OpLeS  Op = "le_s"
	OpGtS  Op = "gt_s"
	OpGeS  Op = "ge_s"

	OpEqz Op = "eqz"
	OpNeg Op = "neg"
)

// MayTrap reports whether the operator itself can trap at runtime.
func (op Op) MayTrap() bool {
	return op == OpDivS || op == OpRemS
}

// Nop does nothing.
type Nop struct{}

// Const produces a constant value.
type Const struct {
	Value int64
}

// LocalGet reads the current value of a local slot.
type LocalGet struct {
	Index int
}

// LocalSet assigns the result of Value to a local slot.
type LocalSet struct {
	Index int
	Value Expression
}

// GlobalGet reads a module global.
type GlobalGet struct {
	Name string
}

// GlobalSet writes a module global.
type GlobalSet struct {
	Name  string
	Value Expression
}

// Unary applies a one-operand operator.
type Unary struct {
	Op    Op
	Value Expression
}

// Binary applies a two-operand operator.
type Binary struct {
	Op    Op
	Left  Expression
	Right Expression
}

// Load reads linear memory at Addr. Out-of-bounds addresses trap.
type Load struct {
	Addr Expression
}

// Store writes Value to linear memory at Addr. Out-of-bounds addresses trap.
type Store struct {
	Addr  Expression
	Value Expression
}

// Call invokes another function or import. Its effects are opaque.
type Call struct {
	Target string
	Args   []Expression
}

// Drop evaluates Value and discards the result.
type Drop struct {
	Value Expression
}

// Block executes its list in order. A labeled block is a break target;
// breaking to it continues after the block. The list is the only piece of
// IR that optimization passes mutate in place.
type Block struct {
	Label string
	List  []Expression
}

// If executes Then or Else depending on Cond. Else may be nil.
type If struct {
	Cond Expression
	Then Expression
	Else Expression
}

// Loop executes Body; breaking to its label restarts the iteration.
type Loop struct {
	Label string
	Body  Expression
}

// Break jumps out to the enclosing block (or loop head) named Target.
// With a non-nil Cond the jump is taken only if Cond is nonzero.
type Break struct {
	Target string
	Cond   Expression
}

// Return exits the function. Value may be nil.
type Return struct {
	Value Expression
}

// Unreachable traps immediately.
type Unreachable struct{}

func (*Nop) Kind() Kind         { return KindNop }
func (*Const) Kind() Kind       { return KindConst }
func (*LocalGet) Kind() Kind    { return KindLocalGet }
func (*LocalSet) Kind() Kind    { return KindLocalSet }
func (*GlobalGet) Kind() Kind   { return KindGlobalGet }
func (*GlobalSet) Kind() Kind   { return KindGlobalSet }
func (*Unary) Kind() Kind       { return KindUnary }
func (*Binary) Kind() Kind      { return KindBinary }
func (*Load) Kind() Kind        { return KindLoad }
func (*Store) Kind() Kind       { return KindStore }
func (*Call) Kind() Kind        { return KindCall }
func (*Drop) Kind() Kind        { return KindDrop }
func (*Block) Kind() Kind       { return KindBlock }
func (*If) Kind() Kind          { return KindIf }
func (*Loop) Kind() Kind        { return KindLoop }
func (*Break) Kind() Kind       { return KindBreak }
func (*Return) Kind() Kind      { return KindReturn }
func (*Unreachable) Kind() Kind { return KindUnreachable }

// Function is one compilation unit's body. Local slots are numbered with
// parameters first, then locals; the numbering is fixed at creation.
type Function struct {
	Name   string
	Params int
	Locals int
	Body   Expression
}

// NumLocals returns the total slot count, parameters included.
func (f *Function) NumLocals() int {
	return f.Params + f.Locals
}

// IsParam reports whether slot i holds an incoming parameter.
func (f *Function) IsParam(i int) bool {
	return i < f.Params
}

// Module is a set of functions plus the globals and imports they reference.
type Module struct {
	Globals   []string
	Imports   []string
	Functions []*Function
}

// Function looks up a function by name, or nil.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasGlobal reports whether the module declares the named global.
func (m *Module) HasGlobal(name string) bool {
	for _, g := range m.Globals {
		if g == name {
			return true
		}
	}
	return false
}

// HasImport reports whether the module declares the named import.
func (m *Module) HasImport(name string) bool {
	for _, imp := range m.Imports {
		if imp == name {
			return true
		}
	}
	return false
}
