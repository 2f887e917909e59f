package ast

// Stmt is the tagged-variant statement representation.
type Stmt interface {
	stmtNode()
	Meta() *StmtMeta
}

type StmtMeta struct {
	Span Span
}

func (m *StmtMeta) stmtNode()       {}
func (m *StmtMeta) Meta() *StmtMeta { return m }

type VarDeclStmt struct {
	StmtMeta
	Name  StringId
	Type  TypeId // InvalidTypeId if inferred
	Value ExprId // InvalidExprId for `let x: number` with no initializer
	Const bool
}

type AssignOp int

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignConcat
)

type AssignStmt struct {
	StmtMeta
	Target ExprId // Identifier, Member, or Index expr
	Op     AssignOp
	Value  ExprId
}

type FunctionDeclStmt struct {
	StmtMeta
	Name       StringId
	Params     []FunctionParam
	Returns    TypeId
	TypeParams []StringId
	Body       StmtId // Block
	IsTailPos  bool   // set by the tail-call-optimization pass when the body ends in `return <call>`
}

type ClassMember struct {
	Name       StringId
	Type       TypeId // field type, or method's FunctionType
	IsMethod   bool
	Body       StmtId // Block, valid when IsMethod
	Params     []FunctionParam
	Static     bool
	Private    bool
	Final      bool // non-overridable method; enables devirtualization
}

type ClassDeclStmt struct {
	StmtMeta
	Name       StringId
	Extends    StringId // InvalidStringId if no superclass
	Implements []StringId
	Members    []ClassMember
	Sealed     bool // no further subclassing permitted; enables devirtualization
	TypeParams []StringId
}

type InterfaceMember struct {
	Name   StringId
	Type   TypeId
	IsMethod bool
	Default  StmtId // InvalidStmtId unless this member has a default-method body
	Params   []FunctionParam
}

type InterfaceDeclStmt struct {
	StmtMeta
	Name       StringId
	Extends    []StringId
	Members    []InterfaceMember
	TypeParams []StringId
}

type EnumVariant struct {
	Name  StringId
	Value ExprId   // InvalidExprId for a plain ordinal variant
	Args  []TypeId // non-empty for a rich/tagged variant, e.g. `Some(T)`
}

type EnumDeclStmt struct {
	StmtMeta
	Name     StringId
	Variants []EnumVariant
	Rich     bool // true if any variant carries associated data
}

type TypeAliasDeclStmt struct {
	StmtMeta
	Name       StringId
	TypeParams []StringId
	Aliased    TypeId
}

// ImportSpecifier is one named binding in an import clause; Name == Alias
// for `import { x } from M`, Name != Alias for `import { x as y } from M`.
type ImportSpecifier struct {
	Name    StringId
	Alias   StringId
	TypeOnly bool
}

type ImportStmt struct {
	StmtMeta
	Module      StringId
	Specifiers  []ImportSpecifier
	Default     StringId // InvalidStringId if no default import bound
	Namespace   StringId // InvalidStringId unless `import * as ns from M`
	TypeOnly    bool     // `import type { ... }`
}

// ExportKind distinguishes a local declaration export from a re-export.
type ExportKind int

const (
	ExportDecl ExportKind = iota
	ExportReExportNamed
	ExportReExportAll
)

type ExportStmt struct {
	StmtMeta
	Kind       ExportKind
	Decl       StmtId           // valid for ExportDecl
	FromModule StringId         // valid for re-exports
	Specifiers []ImportSpecifier // reuse {Name,Alias} shape for re-export lists
	Default    bool
	TypeOnly   bool
}

type ElseIfClause struct {
	Cond  ExprId
	Block StmtId // Block
}

type IfStmt struct {
	StmtMeta
	Cond      ExprId
	ThenBlock StmtId // Block
	ElseIfs   []ElseIfClause
	ElseBlock StmtId // InvalidStmtId if absent
}

type WhileStmt struct {
	StmtMeta
	Cond ExprId
	Body StmtId // Block
}

type RepeatStmt struct {
	StmtMeta
	Body StmtId // Block
	Cond ExprId // `until` condition
}

type ForKind int

const (
	ForNumeric ForKind = iota
	ForGeneric
)

type ForStmt struct {
	StmtMeta
	Kind ForKind

	// Numeric form: for i = Start, Stop, Step do ... end
	Var   StringId
	Start ExprId
	Stop  ExprId
	Step  ExprId // InvalidExprId for implicit step of 1

	// Generic form: for k, v in Iterable do ... end
	Names    []StringId
	Iterable ExprId

	Body StmtId // Block
}

type ReturnStmt struct {
	StmtMeta
	Values []ExprId
}

type BreakStmt struct {
	StmtMeta
	Label StringId // InvalidStringId for an unlabeled break
}

type ContinueStmt struct {
	StmtMeta
	Label StringId
}

type ThrowStmt struct {
	StmtMeta
	Value ExprId
}

type CatchClause struct {
	Param StringId // InvalidStringId for a parameterless catch
	Block StmtId   // Block
}

type TryStmt struct {
	StmtMeta
	Block   StmtId // Block
	Catch   *CatchClause
	Finally StmtId // InvalidStmtId if absent
}

type LabeledStmt struct {
	StmtMeta
	Label StringId
	Body  StmtId
}

type ExprStmt struct {
	StmtMeta
	Value ExprId
}

type BlockStmt struct {
	StmtMeta
	Statements []StmtId
}
