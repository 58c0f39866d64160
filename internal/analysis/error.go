package analysis

import (
	"fmt"

	"github.com/isachard/solcheck/internal/sourcecode"
	"github.com/isachard/solcheck/internal/utils"
)

const ANALYSIS_ERR_PREFIX = "check: "

// ErrorKind identifies the rule an AnalysisError was produced by.
type ErrorKind string

const (
	NotInConstructor         ErrorKind = "not-in-constructor"
	WrongContract            ErrorKind = "wrong-contract"
	InLoop                   ErrorKind = "in-loop"
	InBranch                 ErrorKind = "in-branch"
	DoubleInitialization     ErrorKind = "double-initialization"
	ReadBeforeOrOutsideInit  ErrorKind = "read-before-or-outside-init"
	IncompleteInitialization ErrorKind = "incomplete-initialization"
	ImmutableNotSupported    ErrorKind = "immutable-not-supported"
)

const (
	IMMUTABLE_ASSIGNED_OUTSIDE_CONSTRUCTOR        = "immutable variables can only be initialized directly in the constructor"
	IMMUTABLE_ASSIGNED_IN_WRONG_CONSTRUCTOR       = "immutable variables must be initialized in the constructor of the contract they are defined in"
	IMMUTABLE_ASSIGNED_IN_LOOP                    = "immutable variables can only be initialized once, not inside a loop"
	IMMUTABLE_ASSIGNED_IN_BRANCH                  = "immutable variables must be initialized unconditionally, not in a conditional branch"
	IMMUTABLE_ALREADY_INITIALIZED                 = "immutable state variable already initialized"
	IMMUTABLE_READ_DURING_CONSTRUCTION            = "immutable variables cannot be read in the constructor or in any function or modifier called by it"
	CONSTRUCTION_ENDS_WITHOUT_FULL_INITIALIZATION = "construction control flow ends without initializing all immutable state variables"

	NOT_INITIALIZED_SECONDARY_LABEL = "not initialized: "
)

func fmtImmutableRequiresNewerCompiler(pragmaExpr string) string {
	return fmt.Sprintf(
		"immutable state variables are not supported by all compiler versions allowed by `pragma solidity %s`, they require version 0.6.5 or newer",
		pragmaExpr,
	)
}

// A SecondaryLocation points at a node related to the primary location of an error,
// e.g. the declaration of a variable reported as uninitialized.
type SecondaryLocation struct {
	Label    string
	Location sourcecode.PositionRange
}

type AnalysisError struct {
	Kind           ErrorKind
	Message        string
	LocatedMessage string
	Location       sourcecode.PositionRange
	Secondary      []SecondaryLocation
}

func NewAnalysisError(kind ErrorKind, s string, location sourcecode.PositionRange) *AnalysisError {
	return &AnalysisError{
		Kind:           kind,
		Message:        ANALYSIS_ERR_PREFIX + s,
		LocatedMessage: ANALYSIS_ERR_PREFIX + location.String() + " " + s,
		Location:       location,
	}
}

func (err *AnalysisError) Error() string {
	return err.LocatedMessage
}

func (err *AnalysisError) MessageWithoutLocation() string {
	return err.Message
}

func combineAnalysisErrors(errs ...*AnalysisError) error {
	goErrors := make([]error, len(errs))
	for i, err := range errs {
		goErrors[i] = err
	}

	return utils.CombineErrors(goErrors...)
}
