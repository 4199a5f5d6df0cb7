// Package diagnostics provides phase-tagged, coded errors shared by every
// stage of the pipeline (typecheck, optimize, SMT encoding, permission
// checking). Errors carry a source Token so callers can report a located,
// human-readable message, per the "first error encountered" propagation
// rule.
package diagnostics

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thingtalk-lang/ttcore/internal/token"
)

// Phase represents the pipeline stage where an error occurred.
type Phase string

const (
	PhaseTypecheck Phase = "typecheck"
	PhaseOptimize  Phase = "optimize"
	PhaseSMT       Phase = "smt"
	PhasePermission Phase = "permission"
	PhaseSchema    Phase = "schema"
)

type ErrorCode string

const (
	// Typecheck errors
	ErrT001 ErrorCode = "T001" // unknown device/function name
	ErrT002 ErrorCode = "T002" // mismatched type
	ErrT003 ErrorCode = "T003" // invalid parameter
	ErrT004 ErrorCode = "T004" // duplicate input parameter
	ErrT005 ErrorCode = "T005" // monitor on non-monitorable function
	ErrT006 ErrorCode = "T006" // projection produces no outputs
	ErrT007 ErrorCode = "T007" // invalid annotation value
	ErrT008 ErrorCode = "T008" // invalid operator overload
	ErrT009 ErrorCode = "T009" // filter on a no_filter (unique-marked) field
	ErrT010 ErrorCode = "T010" // $event referenced where not allowed
	ErrT011 ErrorCode = "T011" // device selector: id and all=true both set
	ErrT012 ErrorCode = "T012" // device selector: unknown attribute
	ErrT013 ErrorCode = "T013" // Unknown type survived typechecking
	ErrT014 ErrorCode = "T014" // not implemented (e.g. two-query policy)

	// Optimizer invariant violations (debug assertions only, never user-facing)
	ErrO001 ErrorCode = "O001" // optimizer invariant violated

	// SMT / solver errors
	ErrS001 ErrorCode = "S001" // solver communication failure
	ErrS002 ErrorCode = "S002" // solver call cancelled
	ErrS003 ErrorCode = "S003" // unsupported construct in SMT encoding

	// Permission errors
	ErrP001 ErrorCode = "P001" // precondition false (internal signal; caught at rule boundary)
	ErrP002 ErrorCode = "P002" // policy with two queries unsupported

	// Schema retriever errors
	ErrC001 ErrorCode = "C001" // invalid kind (cache miss after negative TTL expiry)
	ErrC002 ErrorCode = "C002" // schema fetch deadline exceeded
)

var errorTemplates = map[ErrorCode]string{
	ErrT001: "unknown name: '%s'",
	ErrT002: "type mismatch: expected %s, got %s",
	ErrT003: "invalid parameter '%s' for %s",
	ErrT004: "duplicate input parameter: '%s'",
	ErrT005: "cannot monitor '%s': function is not monitorable",
	ErrT006: "projection of '%s' would produce no outputs",
	ErrT007: "invalid value for annotation '%s': %s",
	ErrT008: "no overload of operator '%s' matches argument types %s",
	ErrT009: "cannot filter on '%s': field is marked unique (no_filter)",
	ErrT010: "$event cannot be referenced here",
	ErrT011: "device selector cannot set both 'id' and 'all=true'",
	ErrT012: "unknown device selector attribute: '%s'",
	ErrT013: "internal error: unresolved type survived typechecking at %s",
	ErrT014: "not implemented: %s",
	ErrO001: "optimizer invariant violated: %s",
	ErrS001: "solver error: %s",
	ErrS002: "solver call cancelled",
	ErrS003: "cannot encode construct for SMT: %s",
	ErrP001: "permission precondition is statically false",
	ErrP002: "policies with two queries are not supported",
	ErrC001: "Invalid kind %s (cached as missing, retry %s)",
	ErrC002: "schema fetch deadline exceeded for kinds %s",
}

// DiagnosticError is the single error type returned by every pipeline
// stage. Phase + Code identify the failure mode; Token locates it.
type DiagnosticError struct {
	Code  ErrorCode
	Phase Phase
	Args  []interface{}
	Token token.Token
	File  string
}

func (e *DiagnosticError) Error() string {
	template, ok := errorTemplates[e.Code]
	if !ok {
		return fmt.Sprintf("unknown error code: %s", e.Code)
	}
	message := fmt.Sprintf(template, e.Args...)

	prefix := ""
	if e.File != "" {
		prefix = fmt.Sprintf("%s: ", e.File)
	}
	phaseStr := ""
	if e.Phase != "" {
		phaseStr = fmt.Sprintf("[%s] ", e.Phase)
	}

	if e.Token.Line > 0 {
		return fmt.Sprintf("%s%serror at %d:%d [%s]: %s", prefix, phaseStr, e.Token.Line, e.Token.Column, e.Code, message)
	}
	return fmt.Sprintf("%s%serror [%s]: %s", prefix, phaseStr, e.Code, message)
}

// NewPhaseError creates an error tagged with a pipeline phase.
func NewPhaseError(phase Phase, code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Phase: phase, Token: tok, Args: args}
}

// NewTypeError creates a typecheck-phase error.
func NewTypeError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	return NewPhaseError(PhaseTypecheck, code, tok, args...)
}

// InternalError creates an internal ("should never happen") error.
func InternalError(phase Phase, tok token.Token, message string) *DiagnosticError {
	return NewPhaseError(phase, ErrT013, tok, message)
}

// WrapError wraps a generic error with phase and location, preserving an
// already-located DiagnosticError unchanged.
func WrapError(phase Phase, tok token.Token, err error) *DiagnosticError {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DiagnosticError); ok {
		if de.Phase == "" {
			de.Phase = phase
		}
		if de.Token.Line == 0 && tok.Line > 0 {
			de.Token = tok
		}
		return de
	}
	return &DiagnosticError{Code: ErrS001, Phase: phase, Token: tok, Args: []interface{}{err.Error()}}
}

// IsPreconditionFalse reports whether err is the internal
// PreconditionFalseError signal that the permission checker catches
// at the rule boundary: permission.Checker.CheckRule returns it and
// CheckProgram drops the rule, so it never surfaces past CheckProgram.
func IsPreconditionFalse(err error) bool {
	de, ok := err.(*DiagnosticError)
	return ok && de.Code == ErrP001
}

// RetryDescription renders when a negative schema-cache entry expires as
// a relative phrase ("9 minutes from now") for ErrC001's message.
func RetryDescription(expires time.Time) string {
	return humanize.Time(expires)
}
