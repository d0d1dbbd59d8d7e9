package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Printer renders modules back into the textual IR form accepted by the
// parser, so optimized output can be fed straight back in.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer.
func NewPrinter() *Printer {
	return &Printer{}
}

// Print returns the textual representation of a module.
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("    ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printModule(m *Module) {
	p.writeLine("module {")
	p.indent++
	for _, imp := range m.Imports {
		p.writeLine("import %s", imp)
	}
	for _, g := range m.Globals {
		p.writeLine("global %s", g)
	}
	for _, f := range m.Functions {
		p.printFunction(f)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printFunction(f *Function) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf("func %s(params %d, locals %d) ", f.Name, f.Params, f.Locals))
	if body, ok := f.Body.(*Block); ok {
		p.printBlock(body)
	} else {
		// The grammar requires a block body; wrap anything else.
		p.printBlock(&Block{List: []Expression{f.Body}})
	}
	p.output.WriteString("\n")
}

// printBlock writes a block starting at the cursor position and ending
// without a trailing newline.
func (p *Printer) printBlock(b *Block) {
	if b.Label != "" {
		p.output.WriteString("block " + b.Label + " {")
	} else {
		p.output.WriteString("block {")
	}
	p.output.WriteString("\n")
	p.indent++
	for _, item := range b.List {
		p.printStatement(item)
	}
	p.indent--
	p.writeIndent()
	p.output.WriteString("}")
}

func (p *Printer) printStatement(expr Expression) {
	switch e := expr.(type) {
	case *Block:
		p.writeIndent()
		p.printBlock(e)
		p.output.WriteString("\n")
	case *Loop:
		p.writeIndent()
		if e.Label != "" {
			p.output.WriteString("loop " + e.Label + " {")
		} else {
			p.output.WriteString("loop {")
		}
		p.output.WriteString("\n")
		p.indent++
		if body, ok := e.Body.(*Block); ok && body.Label == "" {
			for _, item := range body.List {
				p.printStatement(item)
			}
		} else if e.Body != nil {
			p.printStatement(e.Body)
		}
		p.indent--
		p.writeIndent()
		p.output.WriteString("}\n")
	case *If:
		p.writeIndent()
		p.output.WriteString("if (" + compact(e.Cond) + ") {")
		p.output.WriteString("\n")
		p.indent++
		p.printBranch(e.Then)
		p.indent--
		if e.Else != nil {
			p.writeIndent()
			p.output.WriteString("} else {\n")
			p.indent++
			p.printBranch(e.Else)
			p.indent--
		}
		p.writeIndent()
		p.output.WriteString("}\n")
	default:
		p.writeLine("%s", compact(expr))
	}
}

// printBranch renders one arm of an if. Unlabeled blocks are flattened into
// the surrounding braces.
func (p *Printer) printBranch(expr Expression) {
	if b, ok := expr.(*Block); ok && b.Label == "" {
		for _, item := range b.List {
			p.printStatement(item)
		}
		return
	}
	if expr != nil {
		p.printStatement(expr)
	}
}

// compact renders an expression on a single line.
func compact(expr Expression) string {
	if expr == nil {
		return "nop"
	}
	switch e := expr.(type) {
	case *Nop:
		return "nop"
	case *Const:
		return strconv.FormatInt(e.Value, 10)
	case *LocalGet:
		return "$" + strconv.Itoa(e.Index)
	case *LocalSet:
		return "$" + strconv.Itoa(e.Index) + " = " + compact(e.Value)
	case *GlobalGet:
		return "@" + e.Name
	case *GlobalSet:
		return "@" + e.Name + " = " + compact(e.Value)
	case *Unary:
		return string(e.Op) + "(" + compact(e.Value) + ")"
	case *Binary:
		return string(e.Op) + "(" + compact(e.Left) + ", " + compact(e.Right) + ")"
	case *Load:
		return "load(" + compact(e.Addr) + ")"
	case *Store:
		return "store(" + compact(e.Addr) + ", " + compact(e.Value) + ")"
	case *Call:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = compact(arg)
		}
		return "call " + e.Target + "(" + strings.Join(args, ", ") + ")"
	case *Drop:
		return "drop " + compact(e.Value)
	case *Break:
		if e.Cond != nil {
			return "br_if " + e.Target + " " + compact(e.Cond)
		}
		return "br " + e.Target
	case *Return:
		if e.Value != nil {
			return "return (" + compact(e.Value) + ")"
		}
		return "return"
	case *Unreachable:
		return "unreachable"
	case *Block:
		items := make([]string, len(e.List))
		for i, item := range e.List {
			items[i] = compact(item)
		}
		head := "block"
		if e.Label != "" {
			head += " " + e.Label
		}
		return head + " { " + strings.Join(items, "; ") + " }"
	case *If:
		s := "if (" + compact(e.Cond) + ") { " + compact(e.Then) + " }"
		if e.Else != nil {
			s += " else { " + compact(e.Else) + " }"
		}
		return s
	case *Loop:
		head := "loop"
		if e.Label != "" {
			head += " " + e.Label
		}
		return head + " { " + compact(e.Body) + " }"
	}
	return "?"
}

func (e *Nop) String() string         { return compact(e) }
func (e *Const) String() string       { return compact(e) }
func (e *LocalGet) String() string    { return compact(e) }
func (e *LocalSet) String() string    { return compact(e) }
func (e *GlobalGet) String() string   { return compact(e) }
func (e *GlobalSet) String() string   { return compact(e) }
func (e *Unary) String() string       { return compact(e) }
func (e *Binary) String() string      { return compact(e) }
func (e *Load) String() string        { return compact(e) }
func (e *Store) String() string       { return compact(e) }
func (e *Call) String() string        { return compact(e) }
func (e *Drop) String() string        { return compact(e) }
func (e *Block) String() string       { return compact(e) }
func (e *If) String() string          { return compact(e) }
func (e *Loop) String() string        { return compact(e) }
func (e *Break) String() string       { return compact(e) }
func (e *Return) String() string      { return compact(e) }
func (e *Unreachable) String() string { return compact(e) }
