package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isachard/solcheck/internal/ast"
)

func TestAnalyze(t *testing.T) {

	newUnit := func(b *builder, pragmaLiterals []string, contracts ...*ast.ContractDefinition) *ast.SourceUnit {
		unit := &ast.SourceUnit{NodeBase: b.base(), Contracts: contracts}
		if pragmaLiterals != nil {
			unit.Pragmas = append(unit.Pragmas, &ast.PragmaDirective{
				NodeBase: b.base(),
				Literals: pragmaLiterals,
			})
		}
		return unit
	}

	t.Run("missing source unit", func(t *testing.T) {
		_, err := Analyze(AnalysisInput{})
		assert.ErrorContains(t, err, "missing source unit")
	})

	t.Run("clean unit produces no combined error", func(t *testing.T) {
		b := &builder{}
		c := b.contract("C")
		x := b.immutable(c, "x")
		b.constructor(c, b.assign(x))

		data, err := Analyze(AnalysisInput{Unit: newUnit(b, []string{"solidity", "^", "0.8", ".0"}, c)})
		assert.NoError(t, err)
		assert.Empty(t, data.Errors)
	})

	t.Run("diagnostics are combined into the returned error", func(t *testing.T) {
		b := &builder{}
		c := b.contract("C")
		b.immutable(c, "x")

		data, err := Analyze(AnalysisInput{Unit: newUnit(b, nil, c)})
		require.Error(t, err)
		require.Equal(t, []ErrorKind{IncompleteInitialization}, kindsOf(data.Errors))
		assert.Contains(t, err.Error(), CONSTRUCTION_ENDS_WITHOUT_FULL_INITIALIZATION)
	})

	t.Run("pragma admitting a pre-immutable compiler", func(t *testing.T) {
		b := &builder{}
		c := b.contract("C")
		x := b.immutable(c, "x")
		b.constructor(c, b.assign(x))

		data, err := Analyze(AnalysisInput{Unit: newUnit(b, []string{"solidity", ">=", "0.5", ".0"}, c)})
		require.Error(t, err)
		assert.Equal(t, []ErrorKind{ImmutableNotSupported}, kindsOf(data.Errors))
	})

	t.Run("pragma gate only fires for contracts declaring immutables", func(t *testing.T) {
		b := &builder{}
		c := b.contract("C")
		v := b.mutableVar(c, "v")
		b.constructor(c, b.assign(v))

		data, err := Analyze(AnalysisInput{Unit: newUnit(b, []string{"solidity", "^", "0.5", ".0"}, c)})
		assert.NoError(t, err)
		assert.Empty(t, data.Errors)
	})

	t.Run("contracts are checked independently", func(t *testing.T) {
		b := &builder{}

		first := b.contract("First")
		x := b.immutable(first, "x")
		b.constructor(first, b.assign(x))

		second := b.contract("Second")
		b.immutable(second, "y")

		data, err := Analyze(AnalysisInput{Unit: newUnit(b, nil, first, second)})
		require.Error(t, err)
		//only Second is missing an initialization, First's state does not leak into it
		require.Equal(t, []ErrorKind{IncompleteInitialization}, kindsOf(data.Errors))
		assert.Equal(t, second.Span, data.Errors[0].Location.Span)
	})

	t.Run("skipped contracts are not checked", func(t *testing.T) {
		b := &builder{}
		c := b.contract("Vendored")
		b.immutable(c, "x")

		data, err := Analyze(AnalysisInput{
			Unit:          newUnit(b, nil, c),
			SkipContracts: []string{"Vendored"},
		})
		assert.NoError(t, err)
		assert.Empty(t, data.Errors)
	})
}
