package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isachard/solcheck/internal/sourcecode"
)

func TestWalk(t *testing.T) {

	newContract := func() *ContractDefinition {
		x := &VariableDeclaration{
			NodeBase:      NodeBase{ID: 2, Span: sourcecode.NodeSpan{Start: 10, End: 20}},
			Name:          "x",
			StateVariable: true,
			Mutability:    VarImmutable,
		}
		ctor := &FunctionDefinition{
			NodeBase:         NodeBase{ID: 3},
			Kind:             FunctionKindConstructor,
			Parameters:       &ParameterList{NodeBase: NodeBase{ID: 4}},
			ReturnParameters: &ParameterList{NodeBase: NodeBase{ID: 5}},
			Body: &Block{
				NodeBase: NodeBase{ID: 6},
				Statements: []Node{
					&ExpressionStatement{
						NodeBase: NodeBase{ID: 7},
						Expression: &Assignment{
							NodeBase: NodeBase{ID: 8},
							Operator: "=",
							LHS:      &Identifier{NodeBase: NodeBase{ID: 9}, Name: "x", RefID: 2},
							RHS:      &Literal{NodeBase: NodeBase{ID: 10}, Kind: LiteralNumber, Value: "1"},
						},
					},
				},
			},
		}
		return &ContractDefinition{
			NodeBase:       NodeBase{ID: 1, Span: sourcecode.NodeSpan{Start: 0, End: 100}},
			Name:           "C",
			StateVariables: []*VariableDeclaration{x},
			Functions:      []*FunctionDefinition{ctor},
		}
	}

	t.Run("all nodes are visited in pre-order", func(t *testing.T) {
		var ids []int64
		err := Walk(newContract(), func(node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error) {
			ids = append(ids, node.Base().ID)
			return ContinueTraversal, nil
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids)
	})

	t.Run("prune skips the subtree", func(t *testing.T) {
		var ids []int64
		err := Walk(newContract(), func(node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error) {
			ids = append(ids, node.Base().ID)
			if _, ok := node.(*FunctionDefinition); ok {
				return Prune, nil
			}
			return ContinueTraversal, nil
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("stop aborts the traversal", func(t *testing.T) {
		var ids []int64
		err := Walk(newContract(), func(node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error) {
			ids = append(ids, node.Base().ID)
			if node.Base().ID == 3 {
				return StopTraversal, nil
			}
			return ContinueTraversal, nil
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("find a node by its exact span", func(t *testing.T) {
		contract := newContract()

		node, found := FindNodeWithSpan(contract, sourcecode.NodeSpan{Start: 10, End: 20})
		require.True(t, found)
		assert.Equal(t, contract.StateVariables[0], node)

		_, found = FindNodeWithSpan(contract, sourcecode.NodeSpan{Start: 11, End: 19})
		assert.False(t, found)
	})

	t.Run("ancestor chain", func(t *testing.T) {
		contract := newContract()

		var chainLen int
		Walk(contract, func(node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error) {
			if ident, ok := node.(*Identifier); ok && ident.Name == "x" {
				chainLen = len(ancestorChain)
			}
			return ContinueTraversal, nil
		}, nil)

		//nil (root's parent) > contract > function > block > expression statement > assignment
		assert.Equal(t, 6, chainLen)
	})
}

func TestFindNode(t *testing.T) {
	contract := &ContractDefinition{
		NodeBase: NodeBase{ID: 1},
		Functions: []*FunctionDefinition{{
			NodeBase:         NodeBase{ID: 2},
			Parameters:       &ParameterList{},
			ReturnParameters: &ParameterList{},
			Body: &Block{Statements: []Node{
				&ExpressionStatement{Expression: &Identifier{NodeBase: NodeBase{ID: 3}, Name: "a"}},
				&ExpressionStatement{Expression: &Identifier{NodeBase: NodeBase{ID: 4}, Name: "b"}},
			}},
		}},
	}

	t.Run("first node of a type", func(t *testing.T) {
		ident := FindFirstNode(contract, (*Identifier)(nil))
		require.NotNil(t, ident)
		assert.Equal(t, "a", ident.Name)
	})

	t.Run("filtered search", func(t *testing.T) {
		ident := FindNode(contract, (*Identifier)(nil), func(n *Identifier, _ bool, _ []Node) bool {
			return n.Name == "b"
		})
		require.NotNil(t, ident)
		assert.EqualValues(t, 4, ident.ID)
	})

	t.Run("all nodes of a type", func(t *testing.T) {
		idents := FindNodes(contract, (*Identifier)(nil), nil)
		assert.Len(t, idents, 2)
	})

	t.Run("node count", func(t *testing.T) {
		assert.Equal(t, 9, CountNodes(contract))
	})
}
