package analysis

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/isachard/solcheck/internal/ast"
	"github.com/isachard/solcheck/internal/sourcecode"
)

type ImmutableCheckInput struct {
	Contract *ast.ContractDefinition
	//used to map node spans to line:column positions, may contain no code
	File *sourcecode.SourceFile
}

// CheckImmutables checks that every immutable state variable of a contract is assigned
// exactly once, unconditionally, in the constructor of its declaring contract, and is
// never read during construction. The contract's declarations must carry unique ids and
// resolved reference/linearization annotations (the solcast package guarantees both).
//
// The returned errors are in traversal order: field initializers first, then the
// linearized base contracts most-base first. Analysis never stops at the first error.
func CheckImmutables(input ImmutableCheckInput) []*AnalysisError {
	file := input.File
	if file == nil {
		file = sourcecode.NewSourceFile("", "")
	}

	checker := &immutableChecker{
		contract:    input.Contract,
		file:        file,
		initialized: bitset.New(64),
		visited:     bitset.New(64),
	}

	checker.analyze()
	return checker.errors
}

// immutableChecker implements the traversal described on CheckImmutables.
// One value is private to one CheckImmutables call and is not reentrant.
type immutableChecker struct {
	contract *ast.ContractDefinition
	file     *sourcecode.SourceFile

	//immutable state variables proven assigned so far, keyed by declaration id.
	//Grow-only: path merges are not modeled, see the read rule in visitIdentifier.
	initialized *bitset.BitSet

	//callables already analyzed, keyed by declaration id. Grow-only. A callable is
	//marked before its body is entered, which breaks cycles on recursive calls.
	visited *bitset.BitSet

	errors []*AnalysisError
}

// travCtx is the traversal context. It is passed by value: a callee adjusting
// its copy never affects the caller's context, sibling subtrees always observe
// the context of their common parent.
type travCtx struct {
	//constructor whose own reachable call tree is being traversed, nil outside of one
	constructor *ast.FunctionDefinition

	//true while traversing code that runs during construction: field initializers,
	//base-constructor arguments, constructor bodies and everything they call
	inConstructionContext bool

	inBranch bool
	inLoop   bool
}

// analyze runs the whole check: field initializers first, then each contract of the
// linearization most-base first (constructor, explicit base-constructor arguments,
// then the contract's remaining functions and modifiers outside construction context),
// and finally the exhaustive initialization check for the implicit constructor exit.
func (c *immutableChecker) analyze() {
	ctx := travCtx{inConstructionContext: true}

	for _, stateVar := range c.contract.StateVariablesIncludingInherited() {
		if stateVar.Value == nil {
			continue
		}
		c.visit(stateVar.Value, ctx)

		if stateVar.IsImmutable() && !c.markInitialized(stateVar) {
			//two field initializers for one declaration means the upstream
			//resolution is broken, not that the user made a mistake
			panic(fmt.Errorf("duplicate field initializer for state variable %q (id %d)", stateVar.Name, stateVar.ID))
		}
	}

	bases := c.contract.LinearizedBases
	for i := len(bases) - 1; i >= 0; i-- {
		contract := bases[i]

		ctx := travCtx{inConstructionContext: true}

		if ctor := contract.Constructor(); ctor != nil {
			c.markVisited(ctor)
			c.analyseCallable(ctor, ctx)
		}

		for _, spec := range contract.BaseSpecifiers {
			for _, arg := range spec.Arguments {
				c.visit(arg, ctx)
			}
		}

		ctx.inConstructionContext = false

		for _, fn := range contract.Functions {
			if c.markVisited(fn) {
				c.analyseCallable(fn, ctx)
			}
		}
		for _, mod := range contract.Modifiers {
			if c.markVisited(mod) {
				c.analyseCallable(mod, ctx)
			}
		}
	}

	c.checkAllVariablesInitialized(c.contract.Span)
}

// analyseCallable visits a callable's modifier invocations (for a function) and its body.
// The construction-context and branch/loop flags stay whatever the caller established,
// but the current constructor is the callable itself if it is one and nil otherwise:
// a plain function or modifier body is never a valid place to assign an immutable,
// even when reached from a constructor.
func (c *immutableChecker) analyseCallable(callable ast.CallableDeclaration, ctx travCtx) {
	switch decl := callable.(type) {
	case *ast.FunctionDefinition:
		if decl.IsConstructor() {
			ctx.constructor = decl
		} else {
			ctx.constructor = nil
		}

		for _, invocation := range decl.ModifierInvocations {
			c.visit(invocation, ctx)
		}
		if decl.IsImplemented() {
			c.visit(decl.Body, ctx)
		}
	case *ast.ModifierDefinition:
		ctx.constructor = nil
		c.visit(decl.Body, ctx)
	default:
		panic(fmt.Errorf("unexpected callable declaration of type %T", callable))
	}
}

func (c *immutableChecker) visit(node ast.Node, ctx travCtx) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *ast.Block:
		for _, stmt := range n.Statements {
			c.visit(stmt, ctx)
		}
	case *ast.ExpressionStatement:
		c.visit(n.Expression, ctx)
	case *ast.VariableDeclarationStatement:
		c.visit(n.Value, ctx)
	case *ast.IfStatement:
		c.visit(n.Condition, ctx)

		branchCtx := ctx
		branchCtx.inBranch = true

		c.visit(n.TrueBody, branchCtx)
		if n.FalseBody != nil {
			c.visit(n.FalseBody, branchCtx)
		}
	case *ast.WhileStatement:
		loopCtx := ctx
		loopCtx.inLoop = true

		c.visit(n.Condition, loopCtx)
		c.visit(n.Body, loopCtx)
	case *ast.ForStatement:
		//same rule as while statements
		loopCtx := ctx
		loopCtx.inLoop = true

		c.visit(n.Init, loopCtx)
		c.visit(n.Condition, loopCtx)
		c.visit(n.Post, loopCtx)
		c.visit(n.Body, loopCtx)
	case *ast.Return:
		c.visit(n.Expression, ctx)

		//every early return out of a constructor is an initialization-completion checkpoint
		if ctx.constructor != nil {
			c.checkAllVariablesInitialized(n.Span)
		}
	case *ast.EmitStatement:
		c.visit(n.Call, ctx)
	case *ast.ModifierInvocation:
		c.visit(n.Name, ctx)
		for _, arg := range n.Arguments {
			c.visit(arg, ctx)
		}
	case *ast.Identifier:
		c.visitIdentifier(n, ctx)
	case *ast.MemberAccess:
		//immutable reads inside the accessed expression are still checked
		c.visit(n.Expression, ctx)

		if fn, ok := n.Ref.(*ast.FunctionDefinition); ok && n.InternalFunction {
			//qualified calls name the declaration directly, no override lookup
			if c.markVisited(fn) {
				c.analyseCallable(fn, ctx)
			}
		}
	case *ast.Assignment:
		c.visit(n.LHS, ctx)
		c.visit(n.RHS, ctx)
	case *ast.FunctionCall:
		c.visit(n.Expression, ctx)
		for _, arg := range n.Arguments {
			c.visit(arg, ctx)
		}
	case *ast.BinaryOperation:
		c.visit(n.Left, ctx)
		c.visit(n.Right, ctx)
	case *ast.UnaryOperation:
		c.visit(n.Operand, ctx)
	case *ast.IndexAccess:
		c.visit(n.Object, ctx)
		c.visit(n.Index, ctx)
	case *ast.TupleExpression:
		for _, component := range n.Components {
			c.visit(component, ctx)
		}
	}
}

// visitIdentifier handles the two interesting reference shapes: a reference to a
// callable (a call site, analyzed through override resolution) and a reference
// to an immutable state variable (assignment target or read).
func (c *immutableChecker) visitIdentifier(ident *ast.Identifier, ctx travCtx) {
	if callable, ok := ident.Ref.(ast.CallableDeclaration); ok {
		finalDef := c.findFinalOverride(callable)

		if c.markVisited(finalDef) {
			c.analyseCallable(finalDef, ctx)
		}
		return
	}

	varDecl, ok := ident.Ref.(*ast.VariableDeclaration)
	if !ok || !varDecl.IsImmutable() {
		return
	}

	if ident.AssignmentTarget {
		if ctx.constructor == nil {
			c.addError(NotInConstructor, IMMUTABLE_ASSIGNED_OUTSIDE_CONSTRUCTOR, ident)
		} else if ctx.constructor.Contract != varDecl.Contract {
			c.addError(WrongContract, IMMUTABLE_ASSIGNED_IN_WRONG_CONSTRUCTOR, ident)
		} else if ctx.inLoop {
			c.addError(InLoop, IMMUTABLE_ASSIGNED_IN_LOOP, ident)
		} else if ctx.inBranch {
			c.addError(InBranch, IMMUTABLE_ASSIGNED_IN_BRANCH, ident)
		}

		//the variable counts as assigned even if the assignment was misplaced
		if !c.markInitialized(varDecl) {
			c.addError(DoubleInitialization, IMMUTABLE_ALREADY_INITIALIZED, ident)
		}
	} else if ctx.inConstructionContext {
		//no path-sensitive "already safe to read" reasoning after assignment
		c.addError(ReadBeforeOrOutsideInit, IMMUTABLE_READ_DURING_CONSTRUCTION, ident)
	}
}

// findFinalOverride resolves a callable to the implementation that actually executes
// when it is invoked with virtual dispatch from the contract under analysis: the first
// match in the linearized bases, scanned most-derived first. Functions match on name
// and full signature (overloads), modifiers on name only (not overloadable).
func (c *immutableChecker) findFinalOverride(callable ast.CallableDeclaration) ast.CallableDeclaration {
	switch decl := callable.(type) {
	case *ast.FunctionDefinition:
		if !decl.Virtual {
			return callable
		}

		for _, contract := range c.contract.LinearizedBases {
			for _, candidate := range contract.Functions {
				if candidate.Name == decl.Name && haveSameSignature(candidate, decl) {
					return candidate
				}
			}
		}
	case *ast.ModifierDefinition:
		if !decl.Virtual {
			return callable
		}

		for _, contract := range c.contract.LinearizedBases {
			for _, candidate := range contract.Modifiers {
				if candidate.Name == decl.Name {
					return candidate
				}
			}
		}
	default:
		panic(fmt.Errorf("unexpected callable declaration of type %T", callable))
	}

	return callable
}

func haveSameSignature(a, b *ast.FunctionDefinition) bool {
	return slices.Equal(a.Parameters.TypeStrings(), b.Parameters.TypeStrings()) &&
		slices.Equal(a.ReturnParameters.TypeStrings(), b.ReturnParameters.TypeStrings())
}

// checkAllVariablesInitialized reports an IncompleteInitialization error at $span for
// every immutable state variable (inherited ones included) not yet proven assigned,
// with a secondary location pointing at the variable's declaration.
func (c *immutableChecker) checkAllVariablesInitialized(span sourcecode.NodeSpan) {
	for _, stateVar := range c.contract.StateVariablesIncludingInherited() {
		if !stateVar.IsImmutable() || c.initialized.Test(uint(stateVar.ID)) {
			continue
		}

		err := NewAnalysisError(
			IncompleteInitialization,
			CONSTRUCTION_ENDS_WITHOUT_FULL_INITIALIZATION,
			c.file.GetSourcePosition(span),
		)
		err.Secondary = append(err.Secondary, SecondaryLocation{
			Label:    NOT_INITIALIZED_SECONDARY_LABEL,
			Location: c.file.GetSourcePosition(stateVar.Span),
		})
		c.errors = append(c.errors, err)
	}
}

// markInitialized returns false if the variable was already marked.
func (c *immutableChecker) markInitialized(varDecl *ast.VariableDeclaration) bool {
	if c.initialized.Test(uint(varDecl.ID)) {
		return false
	}
	c.initialized.Set(uint(varDecl.ID))
	return true
}

// markVisited returns false if the callable was already marked.
func (c *immutableChecker) markVisited(callable ast.CallableDeclaration) bool {
	id := uint(callable.Base().ID)
	if c.visited.Test(id) {
		return false
	}
	c.visited.Set(id)
	return true
}

func (c *immutableChecker) addError(kind ErrorKind, s string, node ast.Node) {
	c.errors = append(c.errors, NewAnalysisError(kind, s, c.file.GetSourcePosition(node.Base().Span)))
}
