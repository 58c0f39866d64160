package ast

import (
	"github.com/isachard/solcheck/internal/sourcecode"
)

// A Node represents an immutable AST node, all node types embed NodeBase that implements the Node interface.
// Nodes are produced by the solcast package from the compiler's JSON output; annotation fields (resolved
// references, declaring contract, linearized bases) are filled by the same package before analysis.
type Node interface {
	Base() NodeBase
	BasePtr() *NodeBase
}

// NodeBase implements the Node interface. ID is the compiler-assigned node id,
// it is stable and unique within a source unit (0 for synthetic nodes).
type NodeBase struct {
	ID   int64               `json:"id"`
	Span sourcecode.NodeSpan `json:"span"`
}

func (base NodeBase) Base() NodeBase {
	return base
}

func (base *NodeBase) BasePtr() *NodeBase {
	return base
}

// A Declaration is a named node that identifier references can resolve to.
type Declaration interface {
	Node
	DeclarationName() string
}

// A CallableDeclaration is a declaration that call sites can resolve to.
// This is a closed set: *FunctionDefinition and *ModifierDefinition are the
// only two variants, every dispatch over a CallableDeclaration should be
// exhaustive and panic on anything else.
type CallableDeclaration interface {
	Declaration
	callableDeclaration()
}

var _ = []Declaration{
	(*ContractDefinition)(nil), (*VariableDeclaration)(nil),
	(*FunctionDefinition)(nil), (*ModifierDefinition)(nil),
}

var _ = []CallableDeclaration{(*FunctionDefinition)(nil), (*ModifierDefinition)(nil)}

// ---------------------------------------------------------------------------
// source unit & declarations
// ---------------------------------------------------------------------------

type SourceUnit struct {
	NodeBase
	Pragmas   []*PragmaDirective
	Contracts []*ContractDefinition
}

// A PragmaDirective stores the compiler-tokenized pragma,
// e.g. `pragma solidity ^0.8.0;` gives ["solidity", "^", "0.8", ".0"].
type PragmaDirective struct {
	NodeBase
	Literals []string
}

// IsSolidityVersionPragma returns true if the directive constrains the compiler version,
// and the constraint expression (e.g. "^0.8.0").
func (p *PragmaDirective) IsSolidityVersionPragma() (string, bool) {
	if len(p.Literals) < 2 || p.Literals[0] != "solidity" {
		return "", false
	}
	expr := ""
	for _, lit := range p.Literals[1:] {
		expr += lit
	}
	return expr, true
}

type ContractKind int

const (
	KindContract ContractKind = iota
	KindInterface
	KindLibrary
)

type ContractDefinition struct {
	NodeBase
	Name     string
	Kind     ContractKind
	Abstract bool

	BaseSpecifiers []*InheritanceSpecifier

	//members defined directly in this contract
	StateVariables []*VariableDeclaration
	Functions      []*FunctionDefinition
	Modifiers      []*ModifierDefinition

	//annotation: C3-linearized ancestor list computed by the compiler,
	//most-derived first, the contract itself at index 0
	LinearizedBases []*ContractDefinition
}

func (c *ContractDefinition) DeclarationName() string {
	return c.Name
}

func (c *ContractDefinition) Constructor() *FunctionDefinition {
	for _, fn := range c.Functions {
		if fn.IsConstructor() {
			return fn
		}
	}
	return nil
}

// StateVariablesIncludingInherited returns the contract's own state variables and the
// inherited ones, most-base contract's variables first (declaration order within a contract).
func (c *ContractDefinition) StateVariablesIncludingInherited() []*VariableDeclaration {
	var vars []*VariableDeclaration
	for i := len(c.LinearizedBases) - 1; i >= 0; i-- {
		vars = append(vars, c.LinearizedBases[i].StateVariables...)
	}
	return vars
}

type InheritanceSpecifier struct {
	NodeBase
	BaseName *Identifier
	//`contract B is A(1)` passes base-constructor arguments here
	Arguments []Node
	//true if the specifier has an argument list, even an empty one
	HasArguments bool
}

type VarMutability int

const (
	VarMutable VarMutability = iota
	VarImmutable
	VarConstant
)

type VariableDeclaration struct {
	NodeBase
	Name          string
	StateVariable bool
	Mutability    VarMutability
	//type of the variable as a canonical string, used for signature comparison
	TypeString string
	//field initializer, nil if absent
	Value Node

	//annotation: contract the variable is declared in, nil for non-state variables
	Contract *ContractDefinition
}

func (v *VariableDeclaration) DeclarationName() string {
	return v.Name
}

func (v *VariableDeclaration) IsImmutable() bool {
	return v.StateVariable && v.Mutability == VarImmutable
}

type FunctionKind int

const (
	FunctionKindFunction FunctionKind = iota
	FunctionKindConstructor
	FunctionKindFallback
	FunctionKindReceive
)

type Visibility int

const (
	VisibilityInternal Visibility = iota
	VisibilityPrivate
	VisibilityPublic
	VisibilityExternal
)

type FunctionDefinition struct {
	NodeBase
	Name       string
	Kind       FunctionKind
	Visibility Visibility
	Virtual    bool

	Parameters          *ParameterList
	ReturnParameters    *ParameterList
	ModifierInvocations []*ModifierInvocation

	//nil if the function is unimplemented (abstract/interface)
	Body *Block

	//annotation: contract the function is defined in
	Contract *ContractDefinition
}

func (fn *FunctionDefinition) DeclarationName() string {
	return fn.Name
}

func (fn *FunctionDefinition) IsConstructor() bool {
	return fn.Kind == FunctionKindConstructor
}

func (fn *FunctionDefinition) IsImplemented() bool {
	return fn.Body != nil
}

func (*FunctionDefinition) callableDeclaration() {}

type ModifierDefinition struct {
	NodeBase
	Name    string
	Virtual bool
	Body    *Block

	//annotation: contract the modifier is defined in
	Contract *ContractDefinition
}

func (mod *ModifierDefinition) DeclarationName() string {
	return mod.Name
}

func (*ModifierDefinition) callableDeclaration() {}

type ParameterList struct {
	NodeBase
	Parameters []*VariableDeclaration
}

// TypeStrings returns the canonical type strings of the parameters, in order.
func (list *ParameterList) TypeStrings() []string {
	if list == nil {
		return nil
	}
	types := make([]string, len(list.Parameters))
	for i, param := range list.Parameters {
		types[i] = param.TypeString
	}
	return types
}

// A ModifierInvocation in a function's header: either a modifier application
// or an inline base-constructor call (`constructor() A(1) {}`), distinguished
// by what Name resolves to.
type ModifierInvocation struct {
	NodeBase
	Name      *Identifier
	Arguments []Node
}

// ---------------------------------------------------------------------------
// statements
// ---------------------------------------------------------------------------

type Block struct {
	NodeBase
	Statements []Node
}

type ExpressionStatement struct {
	NodeBase
	Expression Node
}

type VariableDeclarationStatement struct {
	NodeBase
	//nil entries are allowed: `(, uint b) = f();`
	Declarations []*VariableDeclaration
	Value        Node
}

type IfStatement struct {
	NodeBase
	Condition Node
	TrueBody  Node
	FalseBody Node //nil if no else clause
}

type WhileStatement struct {
	NodeBase
	Condition Node
	Body      Node
	IsDoWhile bool
}

type ForStatement struct {
	NodeBase
	Init      Node //nil if absent
	Condition Node //nil if absent
	Post      Node //nil if absent
	Body      Node
}

type Return struct {
	NodeBase
	Expression Node //nil for a bare `return;`
}

// A PlaceholderStatement is the `_` inside a modifier body.
type PlaceholderStatement struct {
	NodeBase
}

type EmitStatement struct {
	NodeBase
	Call Node
}

// ---------------------------------------------------------------------------
// expressions
// ---------------------------------------------------------------------------

type Identifier struct {
	NodeBase
	Name string

	//annotations
	RefID int64       //compiler-assigned id of the referenced declaration, 0 if none
	Ref   Declaration //resolved referenced declaration, nil if none/external
	//true if this occurrence is the target of a plain (non-compound) assignment
	AssignmentTarget bool
}

type MemberAccess struct {
	NodeBase
	Expression Node
	MemberName string

	//annotations
	RefID int64
	Ref   Declaration
	//true if the member's type is an internal or declaration-kind function type
	InternalFunction bool
}

type Assignment struct {
	NodeBase
	Operator string // "=", "+=", ...
	LHS      Node
	RHS      Node
}

type FunctionCall struct {
	NodeBase
	Expression Node
	Arguments  []Node
}

type BinaryOperation struct {
	NodeBase
	Operator string
	Left     Node
	Right    Node
}

type UnaryOperation struct {
	NodeBase
	Operator string
	Prefix   bool
	Operand  Node
}

type IndexAccess struct {
	NodeBase
	Object Node
	Index  Node //nil in type contexts like `uint[]`
}

type TupleExpression struct {
	NodeBase
	//nil entries are allowed: `(a, , c)`
	Components []Node
}

type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralBool
	LiteralString
	LiteralHexString
)

type Literal struct {
	NodeBase
	Kind  LiteralKind
	Value string
}

// An ElementaryTypeNameExpression is a type used as an expression, e.g. `uint160(addr)`.
type ElementaryTypeNameExpression struct {
	NodeBase
	TypeName string
}
