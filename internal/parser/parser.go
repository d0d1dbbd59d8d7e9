package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"kaizen/internal/ir"
)

var kirParser = participle.MustBuild[ModuleNode](
	participle.Lexer(kirLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// ParseSource parses .kir text into an IR module.
func ParseSource(path, source string) (*ir.Module, error) {
	node, err := kirParser.ParseString(path, source)
	if err != nil {
		return nil, err
	}
	return lowerModule(node), nil
}

// ParseFile parses a .kir file, printing a friendly caret-style message on
// syntax errors.
func ParseFile(path string) (*ir.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	module, err := ParseSource(path, string(source))
	if err != nil {
		reportParseError(string(source), err)
		return nil, err
	}
	return module, nil
}

// reportParseError prints a friendly caret-style parse error message.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max(0, pos.Column-1)) + "^"

	color.Red("Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}

// Lowering from grammar nodes to IR.

func lowerModule(node *ModuleNode) *ir.Module {
	m := &ir.Module{}
	for _, imp := range node.Imports {
		m.Imports = append(m.Imports, imp.Name)
	}
	for _, g := range node.Globals {
		m.Globals = append(m.Globals, g.Name)
	}
	for _, f := range node.Functions {
		m.Functions = append(m.Functions, &ir.Function{
			Name:   f.Name,
			Params: f.Params,
			Locals: f.Locals,
			Body:   lowerBlock(f.Body),
		})
	}
	return m
}

func lowerBlock(node *BlockNode) *ir.Block {
	return &ir.Block{Label: node.Label, List: lowerList(node.List)}
}

func lowerList(nodes []*ExprNode) []ir.Expression {
	list := make([]ir.Expression, 0, len(nodes))
	for _, n := range nodes {
		list = append(list, lowerExpr(n))
	}
	return list
}

func lowerExpr(node *ExprNode) ir.Expression {
	switch {
	case node.Block != nil:
		return lowerBlock(node.Block)
	case node.Loop != nil:
		return &ir.Loop{
			Label: node.Loop.Label,
			Body:  &ir.Block{List: lowerList(node.Loop.List)},
		}
	case node.If != nil:
		out := &ir.If{
			Cond: lowerExpr(node.If.Cond),
			Then: &ir.Block{List: lowerList(node.If.Then)},
		}
		if node.If.HasElse {
			out.Else = &ir.Block{List: lowerList(node.If.Else)}
		}
		return out
	case node.BrIf != nil:
		return &ir.Break{Target: node.BrIf.Target, Cond: lowerExpr(node.BrIf.Cond)}
	case node.Br != nil:
		return &ir.Break{Target: node.Br.Target}
	case node.Return != nil:
		ret := &ir.Return{}
		if node.Return.Value != nil {
			ret.Value = lowerExpr(node.Return.Value)
		}
		return ret
	case node.Drop != nil:
		return &ir.Drop{Value: lowerExpr(node.Drop)}
	case node.Nop:
		return &ir.Nop{}
	case node.Unreachable:
		return &ir.Unreachable{}
	case node.Store != nil:
		return &ir.Store{Addr: lowerExpr(node.Store.Addr), Value: lowerExpr(node.Store.Value)}
	case node.Load != nil:
		return &ir.Load{Addr: lowerExpr(node.Load.Addr)}
	case node.Unary != nil:
		return &ir.Unary{Op: ir.Op(node.Unary.Op), Value: lowerExpr(node.Unary.Value)}
	case node.Binary != nil:
		return &ir.Binary{
			Op:    ir.Op(node.Binary.Op),
			Left:  lowerExpr(node.Binary.Left),
			Right: lowerExpr(node.Binary.Right),
		}
	case node.Call != nil:
		return &ir.Call{Target: node.Call.Target, Args: lowerList(node.Call.Args)}
	case node.Local != nil:
		if node.Local.Value != nil {
			return &ir.LocalSet{Index: node.Local.Index, Value: lowerExpr(node.Local.Value)}
		}
		return &ir.LocalGet{Index: node.Local.Index}
	case node.Global != nil:
		if node.Global.Value != nil {
			return &ir.GlobalSet{Name: node.Global.Name, Value: lowerExpr(node.Global.Value)}
		}
		return &ir.GlobalGet{Name: node.Global.Name}
	case node.Const != nil:
		return &ir.Const{Value: *node.Const}
	}
	return &ir.Nop{}
}
