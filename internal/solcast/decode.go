package solcast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/isachard/solcheck/internal/ast"
	"github.com/isachard/solcheck/internal/sourcecode"
	"github.com/isachard/solcheck/internal/utils"
)

var (
	ErrInvalidJSON  = errors.New("input is not valid JSON")
	ErrNoSourceUnit = errors.New("no source unit found in input")
)

// DecodeSourceUnit decodes the compact JSON AST emitted by solc into an ast.SourceUnit
// with all annotations resolved (references, declaring contracts, linearized bases,
// assignment-target flags). Two input shapes are accepted: a bare AST document
// (`solc --ast-compact-json`) and a standard JSON output document, in which case the
// AST of the first source carrying one is used.
//
// Inconsistencies that would make the annotations unusable (e.g. a contract whose
// linearization does not start with itself) are reported as errors, not panics.
func DecodeSourceUnit(data []byte) (_ *ast.SourceUnit, finalErr error) {
	defer func() {
		if v := recover(); v != nil {
			finalErr = fmt.Errorf("failed to decode source unit: %w", utils.ConvertPanicValueToError(v))
		}
	}()

	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	astDoc, err := findASTDocument(gjson.ParseBytes(data))
	if err != nil {
		return nil, err
	}

	var root rawNode
	if err := json.Unmarshal([]byte(astDoc.Raw), &root); err != nil {
		return nil, fmt.Errorf("failed to decode source unit: %w", err)
	}

	if root.NodeType != "SourceUnit" {
		return nil, fmt.Errorf("unexpected root node type %q", root.NodeType)
	}

	dec := &decoder{declarations: make(map[int64]ast.Declaration)}

	unit := dec.decodeSourceUnit(&root)
	dec.resolve(unit)
	return unit, nil
}

func findASTDocument(doc gjson.Result) (gjson.Result, error) {
	if doc.Get("nodeType").String() == "SourceUnit" {
		return doc, nil
	}

	sources := doc.Get("sources")
	if !sources.Exists() {
		return gjson.Result{}, ErrNoSourceUnit
	}

	var astDoc gjson.Result
	found := false

	sources.ForEach(func(_, source gjson.Result) bool {
		for _, key := range []string{"ast", "AST"} {
			if a := source.Get(key); a.Exists() {
				astDoc = a
				found = true
				return false
			}
		}
		return true
	})

	if !found {
		return gjson.Result{}, ErrNoSourceUnit
	}
	return astDoc, nil
}

// rawNode mirrors the compact JSON AST node shape. All compiler node types share one
// struct with optional fields, only the fields this tool consumes are declared.
// The `value` payload is polymorphic (a child node on variable declarations,
// a string on literals) and is therefore kept raw.
type rawNode struct {
	ID       int64  `json:"id"`
	NodeType string `json:"nodeType"`
	Src      string `json:"src"`
	Name     string `json:"name"`

	//source unit
	Nodes    []*rawNode `json:"nodes"`
	Literals []string   `json:"literals"`

	//contract definition
	ContractKind            string     `json:"contractKind"`
	Abstract                bool       `json:"abstract"`
	BaseContracts           []*rawNode `json:"baseContracts"`
	LinearizedBaseContracts []int64    `json:"linearizedBaseContracts"`

	//inheritance specifier / modifier invocation
	BaseName     *rawNode `json:"baseName"`
	ModifierName *rawNode `json:"modifierName"`

	//variable declaration
	StateVariable    bool                 `json:"stateVariable"`
	Mutability       string               `json:"mutability"`
	TypeDescriptions *rawTypeDescriptions `json:"typeDescriptions"`
	Value            json.RawMessage      `json:"value"`

	//function / modifier definition
	Kind             string            `json:"kind"`
	Virtual          bool              `json:"virtual"`
	Visibility       string            `json:"visibility"`
	Parameters       *rawParameterList `json:"parameters"`
	ReturnParameters *rawParameterList `json:"returnParameters"`
	Modifiers        []*rawNode        `json:"modifiers"`
	Body             *rawNode          `json:"body"`

	//statements
	Statements               []*rawNode `json:"statements"`
	Condition                *rawNode   `json:"condition"`
	TrueBody                 *rawNode   `json:"trueBody"`
	FalseBody                *rawNode   `json:"falseBody"`
	InitializationExpression *rawNode   `json:"initializationExpression"`
	LoopExpression           *rawNode   `json:"loopExpression"`
	Expression               *rawNode   `json:"expression"`
	EventCall                *rawNode   `json:"eventCall"`
	Declarations             []*rawNode `json:"declarations"`
	InitialValue             *rawNode   `json:"initialValue"`

	//expressions
	Operator              string     `json:"operator"`
	LeftHandSide          *rawNode   `json:"leftHandSide"`
	RightHandSide         *rawNode   `json:"rightHandSide"`
	LeftExpression        *rawNode   `json:"leftExpression"`
	RightExpression       *rawNode   `json:"rightExpression"`
	SubExpression         *rawNode   `json:"subExpression"`
	Prefix                bool       `json:"prefix"`
	MemberName            string     `json:"memberName"`
	ReferencedDeclaration int64      `json:"referencedDeclaration"`
	Arguments             []*rawNode `json:"arguments"`
	Components            []*rawNode `json:"components"`
	BaseExpression        *rawNode   `json:"baseExpression"`
	IndexExpression       *rawNode   `json:"indexExpression"`
	TypeName              *rawNode   `json:"typeName"`
}

type rawTypeDescriptions struct {
	TypeIdentifier string `json:"typeIdentifier"`
	TypeString     string `json:"typeString"`
}

// rawParameterList mirrors a ParameterList node, whose "parameters" key holds an
// array of VariableDeclaration nodes (unlike the "parameters" key of the enclosing
// FunctionDefinition, which holds the list node itself).
type rawParameterList struct {
	ID         int64      `json:"id"`
	Src        string     `json:"src"`
	Parameters []*rawNode `json:"parameters"`
}

func (n *rawParameterList) base() ast.NodeBase {
	return ast.NodeBase{ID: n.ID, Span: parseSrc(n.Src)}
}

func (n *rawNode) valueNode() *rawNode {
	if len(n.Value) == 0 || string(n.Value) == "null" {
		return nil
	}
	var child rawNode
	if err := json.Unmarshal(n.Value, &child); err != nil {
		return nil
	}
	return &child
}

func (n *rawNode) valueString() string {
	var s string
	if err := json.Unmarshal(n.Value, &s); err != nil {
		return ""
	}
	return s
}

func (n *rawNode) typeString() string {
	if n.TypeDescriptions == nil {
		return ""
	}
	return n.TypeDescriptions.TypeString
}

func (n *rawNode) base() ast.NodeBase {
	return ast.NodeBase{ID: n.ID, Span: parseSrc(n.Src)}
}

// parseSrc parses solc's "start:length:fileIndex" source mappings.
func parseSrc(src string) sourcecode.NodeSpan {
	parts := strings.SplitN(src, ":", 3)
	if len(parts) < 2 {
		return sourcecode.NodeSpan{}
	}

	start, err1 := strconv.ParseInt(parts[0], 10, 32)
	length, err2 := strconv.ParseInt(parts[1], 10, 32)
	if err1 != nil || err2 != nil {
		return sourcecode.NodeSpan{}
	}

	return sourcecode.NodeSpan{Start: int32(start), End: int32(start + length)}
}

type decoder struct {
	declarations map[int64]ast.Declaration

	//per contract, the compiler-computed linearization as declaration ids,
	//resolved to pointers once all contracts are decoded
	linearizations map[*ast.ContractDefinition][]int64
}

func (dec *decoder) decodeSourceUnit(root *rawNode) *ast.SourceUnit {
	dec.linearizations = make(map[*ast.ContractDefinition][]int64)

	unit := &ast.SourceUnit{NodeBase: root.base()}

	for _, node := range root.Nodes {
		switch node.NodeType {
		case "PragmaDirective":
			unit.Pragmas = append(unit.Pragmas, &ast.PragmaDirective{
				NodeBase: node.base(),
				Literals: node.Literals,
			})
		case "ContractDefinition":
			unit.Contracts = append(unit.Contracts, dec.decodeContract(node))
		}
	}

	return unit
}

func (dec *decoder) decodeContract(node *rawNode) *ast.ContractDefinition {
	contract := &ast.ContractDefinition{
		NodeBase: node.base(),
		Name:     node.Name,
		Kind:     contractKind(node.ContractKind),
		Abstract: node.Abstract,
	}
	dec.declarations[contract.ID] = contract
	dec.linearizations[contract] = node.LinearizedBaseContracts

	for _, baseContract := range node.BaseContracts {
		spec := &ast.InheritanceSpecifier{
			NodeBase: baseContract.base(),
			BaseName: dec.decodeIdentifier(baseContract.BaseName),
		}
		if baseContract.Arguments != nil {
			spec.HasArguments = true
			for _, arg := range baseContract.Arguments {
				spec.Arguments = append(spec.Arguments, dec.decodeExpression(arg))
			}
		}
		contract.BaseSpecifiers = append(contract.BaseSpecifiers, spec)
	}

	for _, member := range node.Nodes {
		switch member.NodeType {
		case "VariableDeclaration":
			stateVar := dec.decodeVariable(member)
			stateVar.Contract = contract
			contract.StateVariables = append(contract.StateVariables, stateVar)
		case "FunctionDefinition":
			fn := dec.decodeFunction(member)
			fn.Contract = contract
			contract.Functions = append(contract.Functions, fn)
		case "ModifierDefinition":
			mod := dec.decodeModifier(member)
			mod.Contract = contract
			contract.Modifiers = append(contract.Modifiers, mod)
		}
	}

	return contract
}

func (dec *decoder) decodeVariable(node *rawNode) *ast.VariableDeclaration {
	varDecl := &ast.VariableDeclaration{
		NodeBase:      node.base(),
		Name:          node.Name,
		StateVariable: node.StateVariable,
		Mutability:    varMutability(node.Mutability),
		TypeString:    node.typeString(),
	}
	dec.declarations[varDecl.ID] = varDecl

	if value := node.valueNode(); value != nil {
		varDecl.Value = dec.decodeExpression(value)
	}
	return varDecl
}

func (dec *decoder) decodeFunction(node *rawNode) *ast.FunctionDefinition {
	fn := &ast.FunctionDefinition{
		NodeBase:         node.base(),
		Name:             node.Name,
		Kind:             functionKind(node.Kind),
		Visibility:       visibility(node.Visibility),
		Virtual:          node.Virtual,
		Parameters:       dec.decodeParameterList(node.Parameters),
		ReturnParameters: dec.decodeParameterList(node.ReturnParameters),
	}
	dec.declarations[fn.ID] = fn

	for _, invocation := range node.Modifiers {
		fn.ModifierInvocations = append(fn.ModifierInvocations, dec.decodeModifierInvocation(invocation))
	}
	if node.Body != nil {
		fn.Body = dec.decodeBlock(node.Body)
	}
	return fn
}

func (dec *decoder) decodeModifier(node *rawNode) *ast.ModifierDefinition {
	mod := &ast.ModifierDefinition{
		NodeBase: node.base(),
		Name:     node.Name,
		Virtual:  node.Virtual,
	}
	dec.declarations[mod.ID] = mod

	if node.Body != nil {
		mod.Body = dec.decodeBlock(node.Body)
	}
	return mod
}

func (dec *decoder) decodeParameterList(node *rawParameterList) *ast.ParameterList {
	if node == nil {
		return &ast.ParameterList{}
	}

	list := &ast.ParameterList{NodeBase: node.base()}
	for _, param := range node.Parameters {
		list.Parameters = append(list.Parameters, dec.decodeVariable(param))
	}
	return list
}

func (dec *decoder) decodeModifierInvocation(node *rawNode) *ast.ModifierInvocation {
	invocation := &ast.ModifierInvocation{
		NodeBase: node.base(),
		Name:     dec.decodeIdentifier(node.ModifierName),
	}
	for _, arg := range node.Arguments {
		invocation.Arguments = append(invocation.Arguments, dec.decodeExpression(arg))
	}
	return invocation
}

func (dec *decoder) decodeBlock(node *rawNode) *ast.Block {
	block := &ast.Block{NodeBase: node.base()}
	for _, stmt := range node.Statements {
		if decoded := dec.decodeStatement(stmt); decoded != nil {
			block.Statements = append(block.Statements, decoded)
		}
	}
	return block
}

// decodeStatement returns nil for statement kinds this tool has no use for
// (assembly blocks, try/catch, revert statements, ...).
func (dec *decoder) decodeStatement(node *rawNode) ast.Node {
	if node == nil {
		return nil
	}

	switch node.NodeType {
	case "Block", "UncheckedBlock":
		return dec.decodeBlock(node)
	case "ExpressionStatement":
		return &ast.ExpressionStatement{
			NodeBase:   node.base(),
			Expression: dec.decodeExpression(node.Expression),
		}
	case "VariableDeclarationStatement":
		stmt := &ast.VariableDeclarationStatement{NodeBase: node.base()}
		for _, decl := range node.Declarations {
			if decl == nil {
				stmt.Declarations = append(stmt.Declarations, nil)
				continue
			}
			stmt.Declarations = append(stmt.Declarations, dec.decodeVariable(decl))
		}
		if node.InitialValue != nil {
			stmt.Value = dec.decodeExpression(node.InitialValue)
		}
		return stmt
	case "IfStatement":
		stmt := &ast.IfStatement{
			NodeBase:  node.base(),
			Condition: dec.decodeExpression(node.Condition),
			TrueBody:  dec.decodeStatement(node.TrueBody),
		}
		if node.FalseBody != nil {
			stmt.FalseBody = dec.decodeStatement(node.FalseBody)
		}
		return stmt
	case "WhileStatement", "DoWhileStatement":
		return &ast.WhileStatement{
			NodeBase:  node.base(),
			Condition: dec.decodeExpression(node.Condition),
			Body:      dec.decodeStatement(node.Body),
			IsDoWhile: node.NodeType == "DoWhileStatement",
		}
	case "ForStatement":
		stmt := &ast.ForStatement{
			NodeBase: node.base(),
			Body:     dec.decodeStatement(node.Body),
		}
		if node.InitializationExpression != nil {
			stmt.Init = dec.decodeStatement(node.InitializationExpression)
		}
		if node.Condition != nil {
			stmt.Condition = dec.decodeExpression(node.Condition)
		}
		if node.LoopExpression != nil {
			stmt.Post = dec.decodeStatement(node.LoopExpression)
		}
		return stmt
	case "Return":
		stmt := &ast.Return{NodeBase: node.base()}
		if node.Expression != nil {
			stmt.Expression = dec.decodeExpression(node.Expression)
		}
		return stmt
	case "PlaceholderStatement":
		return &ast.PlaceholderStatement{NodeBase: node.base()}
	case "EmitStatement":
		return &ast.EmitStatement{
			NodeBase: node.base(),
			Call:     dec.decodeExpression(node.EventCall),
		}
	}
	return nil
}

// decodeExpression returns nil for expression kinds this tool has no use for.
func (dec *decoder) decodeExpression(node *rawNode) ast.Node {
	if node == nil {
		return nil
	}

	switch node.NodeType {
	case "Identifier", "IdentifierPath":
		return dec.decodeIdentifier(node)
	case "MemberAccess":
		access := &ast.MemberAccess{
			NodeBase:   node.base(),
			Expression: dec.decodeExpression(node.Expression),
			MemberName: node.MemberName,
			RefID:      node.ReferencedDeclaration,
		}
		if node.TypeDescriptions != nil {
			identifier := node.TypeDescriptions.TypeIdentifier
			access.InternalFunction = strings.HasPrefix(identifier, "t_function_internal") ||
				strings.HasPrefix(identifier, "t_function_declaration")
		}
		return access
	case "Assignment":
		return &ast.Assignment{
			NodeBase: node.base(),
			Operator: node.Operator,
			LHS:      dec.decodeExpression(node.LeftHandSide),
			RHS:      dec.decodeExpression(node.RightHandSide),
		}
	case "FunctionCall":
		call := &ast.FunctionCall{
			NodeBase:   node.base(),
			Expression: dec.decodeExpression(node.Expression),
		}
		for _, arg := range node.Arguments {
			call.Arguments = append(call.Arguments, dec.decodeExpression(arg))
		}
		return call
	case "BinaryOperation":
		return &ast.BinaryOperation{
			NodeBase: node.base(),
			Operator: node.Operator,
			Left:     dec.decodeExpression(node.LeftExpression),
			Right:    dec.decodeExpression(node.RightExpression),
		}
	case "UnaryOperation":
		return &ast.UnaryOperation{
			NodeBase: node.base(),
			Operator: node.Operator,
			Prefix:   node.Prefix,
			Operand:  dec.decodeExpression(node.SubExpression),
		}
	case "IndexAccess":
		return &ast.IndexAccess{
			NodeBase: node.base(),
			Object:   dec.decodeExpression(node.BaseExpression),
			Index:    dec.decodeExpression(node.IndexExpression),
		}
	case "TupleExpression":
		tuple := &ast.TupleExpression{NodeBase: node.base()}
		for _, component := range node.Components {
			if component == nil {
				tuple.Components = append(tuple.Components, nil)
				continue
			}
			tuple.Components = append(tuple.Components, dec.decodeExpression(component))
		}
		return tuple
	case "Literal":
		return &ast.Literal{
			NodeBase: node.base(),
			Kind:     literalKind(node.Kind),
			Value:    node.valueString(),
		}
	case "ElementaryTypeNameExpression":
		expr := &ast.ElementaryTypeNameExpression{NodeBase: node.base()}
		if node.TypeName != nil {
			expr.TypeName = node.TypeName.Name
		}
		return expr
	}
	return nil
}

func (dec *decoder) decodeIdentifier(node *rawNode) *ast.Identifier {
	if node == nil {
		return nil
	}
	return &ast.Identifier{
		NodeBase: node.base(),
		Name:     node.Name,
		RefID:    node.ReferencedDeclaration,
	}
}

func contractKind(kind string) ast.ContractKind {
	switch kind {
	case "interface":
		return ast.KindInterface
	case "library":
		return ast.KindLibrary
	default:
		return ast.KindContract
	}
}

func varMutability(mutability string) ast.VarMutability {
	switch mutability {
	case "immutable":
		return ast.VarImmutable
	case "constant":
		return ast.VarConstant
	default:
		return ast.VarMutable
	}
}

func functionKind(kind string) ast.FunctionKind {
	switch kind {
	case "constructor":
		return ast.FunctionKindConstructor
	case "fallback":
		return ast.FunctionKindFallback
	case "receive":
		return ast.FunctionKindReceive
	default:
		return ast.FunctionKindFunction
	}
}

func visibility(v string) ast.Visibility {
	switch v {
	case "private":
		return ast.VisibilityPrivate
	case "public":
		return ast.VisibilityPublic
	case "external":
		return ast.VisibilityExternal
	default:
		return ast.VisibilityInternal
	}
}

func literalKind(kind string) ast.LiteralKind {
	switch kind {
	case "bool":
		return ast.LiteralBool
	case "string":
		return ast.LiteralString
	case "hexString":
		return ast.LiteralHexString
	default:
		return ast.LiteralNumber
	}
}
