package ast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

type TraversalAction int

const (
	ContinueTraversal TraversalAction = iota
	Prune
	StopTraversal
)

type NodeHandler = func(node Node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error)

// Walk performs a pre-order traversal on an AST (depth first).
// postHandle is called on a node after all its descendants have been visited.
func Walk(node Node, handle, postHandle NodeHandler) (err error) {
	defer func() {
		v := recover()

		switch val := v.(type) {
		case error:
			err = fmt.Errorf("%s:%w", debug.Stack(), val)
		case nil:
		case TraversalAction:
		default:
			panic(v)
		}
	}()

	ancestorChain := make([]Node, 0)
	walk(node, nil, &ancestorChain, handle, postHandle)
	return
}

func walk(node, parent Node, ancestorChain *[]Node, fn, afterFn NodeHandler) {

	if node == nil || reflect.ValueOf(node).IsNil() {
		return
	}

	if ancestorChain != nil {
		*ancestorChain = append((*ancestorChain), parent)
		defer func() {
			*ancestorChain = (*ancestorChain)[:len(*ancestorChain)-1]
		}()
	}

	if fn != nil {
		action, err := fn(node, parent, *ancestorChain, false)

		if err != nil {
			panic(err)
		}

		switch action {
		case StopTraversal:
			panic(StopTraversal)
		case Prune:
			return
		}
	}

	switch n := node.(type) {
	case *SourceUnit:
		for _, pragma := range n.Pragmas {
			walk(pragma, node, ancestorChain, fn, afterFn)
		}
		for _, contract := range n.Contracts {
			walk(contract, node, ancestorChain, fn, afterFn)
		}
	case *ContractDefinition:
		for _, spec := range n.BaseSpecifiers {
			walk(spec, node, ancestorChain, fn, afterFn)
		}
		for _, stateVar := range n.StateVariables {
			walk(stateVar, node, ancestorChain, fn, afterFn)
		}
		for _, fnDef := range n.Functions {
			walk(fnDef, node, ancestorChain, fn, afterFn)
		}
		for _, modDef := range n.Modifiers {
			walk(modDef, node, ancestorChain, fn, afterFn)
		}
	case *InheritanceSpecifier:
		walk(n.BaseName, node, ancestorChain, fn, afterFn)
		for _, arg := range n.Arguments {
			walk(arg, node, ancestorChain, fn, afterFn)
		}
	case *VariableDeclaration:
		walk(n.Value, node, ancestorChain, fn, afterFn)
	case *FunctionDefinition:
		walk(n.Parameters, node, ancestorChain, fn, afterFn)
		walk(n.ReturnParameters, node, ancestorChain, fn, afterFn)
		for _, invocation := range n.ModifierInvocations {
			walk(invocation, node, ancestorChain, fn, afterFn)
		}
		walk(n.Body, node, ancestorChain, fn, afterFn)
	case *ModifierDefinition:
		walk(n.Body, node, ancestorChain, fn, afterFn)
	case *ParameterList:
		for _, param := range n.Parameters {
			walk(param, node, ancestorChain, fn, afterFn)
		}
	case *ModifierInvocation:
		walk(n.Name, node, ancestorChain, fn, afterFn)
		for _, arg := range n.Arguments {
			walk(arg, node, ancestorChain, fn, afterFn)
		}
	case *Block:
		for _, stmt := range n.Statements {
			walk(stmt, node, ancestorChain, fn, afterFn)
		}
	case *ExpressionStatement:
		walk(n.Expression, node, ancestorChain, fn, afterFn)
	case *VariableDeclarationStatement:
		for _, decl := range n.Declarations {
			walk(decl, node, ancestorChain, fn, afterFn)
		}
		walk(n.Value, node, ancestorChain, fn, afterFn)
	case *IfStatement:
		walk(n.Condition, node, ancestorChain, fn, afterFn)
		walk(n.TrueBody, node, ancestorChain, fn, afterFn)
		walk(n.FalseBody, node, ancestorChain, fn, afterFn)
	case *WhileStatement:
		walk(n.Condition, node, ancestorChain, fn, afterFn)
		walk(n.Body, node, ancestorChain, fn, afterFn)
	case *ForStatement:
		walk(n.Init, node, ancestorChain, fn, afterFn)
		walk(n.Condition, node, ancestorChain, fn, afterFn)
		walk(n.Post, node, ancestorChain, fn, afterFn)
		walk(n.Body, node, ancestorChain, fn, afterFn)
	case *Return:
		walk(n.Expression, node, ancestorChain, fn, afterFn)
	case *EmitStatement:
		walk(n.Call, node, ancestorChain, fn, afterFn)
	case *Assignment:
		walk(n.LHS, node, ancestorChain, fn, afterFn)
		walk(n.RHS, node, ancestorChain, fn, afterFn)
	case *FunctionCall:
		walk(n.Expression, node, ancestorChain, fn, afterFn)
		for _, arg := range n.Arguments {
			walk(arg, node, ancestorChain, fn, afterFn)
		}
	case *MemberAccess:
		walk(n.Expression, node, ancestorChain, fn, afterFn)
	case *BinaryOperation:
		walk(n.Left, node, ancestorChain, fn, afterFn)
		walk(n.Right, node, ancestorChain, fn, afterFn)
	case *UnaryOperation:
		walk(n.Operand, node, ancestorChain, fn, afterFn)
	case *IndexAccess:
		walk(n.Object, node, ancestorChain, fn, afterFn)
		walk(n.Index, node, ancestorChain, fn, afterFn)
	case *TupleExpression:
		for _, component := range n.Components {
			walk(component, node, ancestorChain, fn, afterFn)
		}
	}

	if afterFn != nil {
		action, err := afterFn(node, parent, *ancestorChain, true)

		if err != nil {
			panic(err)
		}

		switch action {
		case StopTraversal:
			panic(StopTraversal)
		}
	}
}
