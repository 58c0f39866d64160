package ast

import (
	"reflect"
	"slices"

	"github.com/isachard/solcheck/internal/sourcecode"
)

func CountNodes(n Node) (count int) {
	Walk(n, func(node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error) {
		count += 1
		return ContinueTraversal, nil
	}, nil)

	return
}

func FindNodeWithSpan(root Node, searchedNodeSpan sourcecode.NodeSpan) (n Node, found bool) {
	Walk(root, func(node, _ Node, _ []Node, _ bool) (TraversalAction, error) {

		nodeSpan := node.Base().Span
		if searchedNodeSpan.End < nodeSpan.Start || searchedNodeSpan.Start >= nodeSpan.End {
			return Prune, nil
		}

		if searchedNodeSpan == nodeSpan {
			n = node
			found = true
			return StopTraversal, nil
		}
		return ContinueTraversal, nil
	}, nil)

	return
}

func FindNodes[T Node](root Node, typ T, handle func(n T) bool) []T {
	n, _ := FindNodesAndChains(root, typ, handle)
	return n
}

func FindNodesAndChains[T Node](root Node, typ T, handle func(n T) bool) ([]T, [][]Node) {
	searchedType := reflect.TypeOf(typ)
	var found []T
	var ancestors [][]Node

	Walk(root, func(node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error) {
		if reflect.TypeOf(node) == searchedType {
			if handle == nil || handle(node.(T)) {
				found = append(found, node.(T))
				ancestors = append(ancestors, slices.Clone(ancestorChain))
			}
		}
		return ContinueTraversal, nil
	}, nil)

	return found, ancestors
}

// FindNode walks over an AST node and returns the first node of type $typ for which $handle returns true.
// If $handle is nil only the type is checked.
func FindNode[T Node](root Node, typ T, handle func(n T, isFirstFound bool, ancestors []Node) bool) T {
	n, _ := FindNodeAndChain(root, typ, handle)
	return n
}

// FindFirstNode walks over an AST node and returns the first node of type $typ.
func FindFirstNode[T Node](root Node, typ T) T {
	n, _ := FindNodeAndChain(root, typ, func(n T, isFirstFound bool, ancestors []Node) bool {
		return isFirstFound
	})
	return n
}

// FindNodeAndChain walks over an AST node and returns the first node of type $typ (and its ancestors)
// for which $handle returns true. If $handle is nil only the type is checked.
func FindNodeAndChain[T Node](root Node, typ T, handle func(n T, isFirstFound bool, ancestors []Node) bool) (T, []Node) {
	searchedType := reflect.TypeOf(typ)
	isFirstFound := true

	var found T
	var ancestors []Node

	Walk(root, func(node, parent Node, ancestorChain []Node, after bool) (TraversalAction, error) {
		if reflect.TypeOf(node) == searchedType {
			if handle == nil || handle(node.(T), isFirstFound, ancestorChain) {
				found = node.(T)
				ancestors = slices.Clone(ancestorChain)
				return StopTraversal, nil
			}
			isFirstFound = false
		}
		return ContinueTraversal, nil
	}, nil)

	return found, ancestors
}
