package solcast

import (
	"fmt"

	"github.com/isachard/solcheck/internal/ast"
)

// resolve fills the annotation fields the analysis passes rely on: linearized base
// lists, resolved identifier/member references and assignment-target flags.
// References to declarations outside the source unit (builtins like msg/block,
// external contracts) stay nil, the checks ignore them.
func (dec *decoder) resolve(unit *ast.SourceUnit) {
	for contract, linearization := range dec.linearizations {
		for _, id := range linearization {
			base, ok := dec.declarations[id].(*ast.ContractDefinition)
			if !ok {
				//id of a contract defined in another source unit of the compilation,
				//its members are invisible here and cannot be analyzed anyway
				continue
			}
			contract.LinearizedBases = append(contract.LinearizedBases, base)
		}

		if len(contract.LinearizedBases) == 0 || contract.LinearizedBases[0] != contract {
			panic(fmt.Errorf("linearization of contract %q does not start with itself", contract.Name))
		}
	}

	err := ast.Walk(unit, func(node, parent ast.Node, ancestorChain []ast.Node, after bool) (ast.TraversalAction, error) {
		switch n := node.(type) {
		case *ast.Identifier:
			if decl, ok := dec.declarations[n.RefID]; ok {
				n.Ref = decl
			}
		case *ast.MemberAccess:
			if decl, ok := dec.declarations[n.RefID]; ok {
				n.Ref = decl
			}
		case *ast.Assignment:
			if n.Operator != "=" {
				break
			}
			markAssignmentTargets(n.LHS)
		}
		return ast.ContinueTraversal, nil
	}, nil)

	if err != nil {
		panic(err)
	}
}

// markAssignmentTargets flags the identifiers written to by a plain assignment:
// a bare identifier LHS or the components of a (possibly nested) tuple LHS,
// e.g. `(x, (y, z)) = f()` writes x, y and z. Compound assignments read their
// LHS first and are deliberately not flagged anywhere.
func markAssignmentTargets(lhs ast.Node) {
	switch target := lhs.(type) {
	case *ast.Identifier:
		target.AssignmentTarget = true
	case *ast.TupleExpression:
		for _, component := range target.Components {
			if component != nil {
				markAssignmentTargets(component)
			}
		}
	}
}
