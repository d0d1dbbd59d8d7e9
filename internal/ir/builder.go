package ir

// Construction helpers. Mostly used by tests and by the parser's lowering
// step; they keep tree-building call sites readable.

// NewConst builds a constant.
func NewConst(v int64) *Const {
	return &Const{Value: v}
}

// Get reads local slot i.
func Get(i int) *LocalGet {
	return &LocalGet{Index: i}
}

// Set assigns value to local slot i.
func Set(i int, value Expression) *LocalSet {
	return &LocalSet{Index: i, Value: value}
}

// Bin builds a binary operation.
func Bin(op Op, left, right Expression) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

// Un builds a unary operation.
func Un(op Op, value Expression) *Unary {
	return &Unary{Op: op, Value: value}
}

// NewBlock builds an unlabeled block.
func NewBlock(list ...Expression) *Block {
	return &Block{List: list}
}

// NewBlockNamed builds a labeled block.
func NewBlockNamed(label string, list ...Expression) *Block {
	return &Block{Label: label, List: list}
}

// BrIf builds a conditional break.
func BrIf(target string, cond Expression) *Break {
	return &Break{Target: target, Cond: cond}
}

// Br builds an unconditional break.
func Br(target string) *Break {
	return &Break{Target: target}
}

// IfThen builds an if without an else arm.
func IfThen(cond, then Expression) *If {
	return &If{Cond: cond, Then: then}
}

// NewCall builds a call.
func NewCall(target string, args ...Expression) *Call {
	return &Call{Target: target, Args: args}
}

// NewDrop wraps an expression in a discard.
func NewDrop(value Expression) *Drop {
	return &Drop{Value: value}
}
