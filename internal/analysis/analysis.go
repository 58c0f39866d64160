package analysis

import (
	"errors"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/isachard/solcheck/internal/ast"
	"github.com/isachard/solcheck/internal/sourcecode"
)

// Immutable state variables appeared in solc 0.6.5. A version pragma admitting any
// of these representative older releases admits a compiler that rejects `immutable`.
var preImmutableProbeVersions = []*semver.Version{
	semver.MustParse("0.4.26"),
	semver.MustParse("0.5.17"),
	semver.MustParse("0.6.0"),
	semver.MustParse("0.6.4"),
}

type AnalysisInput struct {
	Unit *ast.SourceUnit
	//may be nil or contain no code, positions then only carry spans
	File *sourcecode.SourceFile
	//contract names to skip, empty means check everything
	SkipContracts []string
	//the zero value disables logging
	Logger zerolog.Logger
}

type AnalysisData struct {
	Errors []*AnalysisError
}

// Analyze runs the per-contract immutable checks over a whole source unit and the
// unit-level pragma gate. Each contract is checked with fresh private state. The
// returned error is non-nil if and only if at least one diagnostic was produced;
// it combines all diagnostics into one multiline message.
func Analyze(input AnalysisInput) (*AnalysisData, error) {
	if input.Unit == nil {
		return nil, errors.New("missing source unit")
	}

	file := input.File
	if file == nil {
		file = sourcecode.NewSourceFile("", "")
	}

	data := &AnalysisData{}

	versionPragma, pragmaExpr, admitsOldCompiler := versionPragmaAdmitsPreImmutable(input.Unit)

	for _, contract := range input.Unit.Contracts {
		if isSkipped(contract.Name, input.SkipContracts) {
			input.Logger.Debug().Str("contract", contract.Name).Msg("skipped by configuration")
			continue
		}

		if admitsOldCompiler && declaresImmutable(contract) {
			err := NewAnalysisError(
				ImmutableNotSupported,
				fmtImmutableRequiresNewerCompiler(pragmaExpr),
				file.GetSourcePosition(versionPragma.Span),
			)
			err.Secondary = append(err.Secondary, SecondaryLocation{
				Label:    "contract declaring immutables: ",
				Location: file.GetSourcePosition(contract.Span),
			})
			data.Errors = append(data.Errors, err)
		}

		errs := CheckImmutables(ImmutableCheckInput{Contract: contract, File: file})
		data.Errors = append(data.Errors, errs...)

		input.Logger.Debug().
			Str("contract", contract.Name).
			Int("errors", len(errs)).
			Msg("immutable check done")
	}

	return data, combineAnalysisErrors(data.Errors...)
}

// versionPragmaAdmitsPreImmutable returns the unit's solidity version pragma (if any),
// its constraint expression, and whether the constraint admits a compiler release
// older than 0.6.5.
func versionPragmaAdmitsPreImmutable(unit *ast.SourceUnit) (*ast.PragmaDirective, string, bool) {
	for _, pragma := range unit.Pragmas {
		expr, ok := pragma.IsSolidityVersionPragma()
		if !ok {
			continue
		}

		constraint, err := semver.NewConstraint(expr)
		if err != nil {
			//the compiler already validated the pragma, an unparsable
			//expression is not this pass's problem
			continue
		}

		for _, version := range preImmutableProbeVersions {
			if constraint.Check(version) {
				return pragma, expr, true
			}
		}
		return pragma, expr, false
	}
	return nil, "", false
}

func declaresImmutable(contract *ast.ContractDefinition) bool {
	for _, stateVar := range contract.StateVariables {
		if stateVar.IsImmutable() {
			return true
		}
	}
	return false
}

func isSkipped(name string, skipped []string) bool {
	return slices.Contains(skipped, name)
}
