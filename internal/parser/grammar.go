package parser

// Grammar for the .kir textual IR. Each struct maps one production; the
// lowering into IR nodes lives in parser.go.

type ModuleNode struct {
	Imports   []*ImportNode `"module" "{" @@*`
	Globals   []*GlobalNode `@@*`
	Functions []*FuncNode   `@@* "}"`
}

type ImportNode struct {
	Name string `"import" @Ident`
}

type GlobalNode struct {
	Name string `"global" @Ident`
}

type FuncNode struct {
	Name   string     `"func" @Ident`
	Params int        `"(" "params" @Integer`
	Locals int        `"," "locals" @Integer ")"`
	Body   *BlockNode `@@`
}

type BlockNode struct {
	Label string      `"block" @Ident?`
	List  []*ExprNode `"{" @@* "}"`
}

type LoopNode struct {
	Label string      `"loop" @Ident?`
	List  []*ExprNode `"{" @@* "}"`
}

type IfNode struct {
	Cond    *ExprNode   `"if" "(" @@ ")"`
	Then    []*ExprNode `"{" @@* "}"`
	HasElse bool        `( @"else"`
	Else    []*ExprNode `"{" @@* "}" )?`
}

type BrIfNode struct {
	Target string    `"br_if" @Ident`
	Cond   *ExprNode `@@`
}

type BrNode struct {
	Target string `"br" @Ident`
}

type ReturnNode struct {
	Value *ExprNode `"return" ( "(" @@ ")" )?`
}

type StoreNode struct {
	Addr  *ExprNode `"store" "(" @@`
	Value *ExprNode `"," @@ ")"`
}

type LoadNode struct {
	Addr *ExprNode `"load" "(" @@ ")"`
}

type UnaryNode struct {
	Op    string    `@("eqz" | "neg")`
	Value *ExprNode `"(" @@ ")"`
}

type BinaryNode struct {
	Op    string    `@("add" | "sub" | "mul" | "div_s" | "rem_s" | "and" | "or" | "xor" | "shl" | "shr_s" | "eq" | "ne" | "lt_s" | "le_s" | "gt_s" | "ge_s")`
	Left  *ExprNode `"(" @@`
	Right *ExprNode `"," @@ ")"`
}

type CallNode struct {
	Target string      `"call" @Ident "("`
	Args   []*ExprNode `( @@ ( "," @@ )* )? ")"`
}

type LocalNode struct {
	Index int       `"$" @Integer`
	Value *ExprNode `( "=" @@ )?`
}

type GlobalRefNode struct {
	Name  string    `"@" @Ident`
	Value *ExprNode `( "=" @@ )?`
}

type ExprNode struct {
	Block       *BlockNode     `  @@`
	Loop        *LoopNode      `| @@`
	If          *IfNode        `| @@`
	BrIf        *BrIfNode      `| @@`
	Br          *BrNode        `| @@`
	Return      *ReturnNode    `| @@`
	Drop        *ExprNode      `| "drop" @@`
	Nop         bool           `| @"nop"`
	Unreachable bool           `| @"unreachable"`
	Store       *StoreNode     `| @@`
	Load        *LoadNode      `| @@`
	Unary       *UnaryNode     `| @@`
	Binary      *BinaryNode    `| @@`
	Call        *CallNode      `| @@`
	Local       *LocalNode     `| @@`
	Global      *GlobalRefNode `| @@`
	Const       *int64         `| @Integer`
}
