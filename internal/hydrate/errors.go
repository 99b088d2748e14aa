package hydrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/matching"
)

// Error is a hydration failure. Errors are never retried: the first one
// aborts the hydration call and is returned unchanged by every enclosing
// layout.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Layout is the layout being hydrated when the error occurred.
	Layout layout.Ref

	// Expected and Found are set for INVALID_INPUT_COUNT.
	Expected int
	Found    int

	// Datatype is the offending datatype IRI for UNKNOWN_*_DATATYPE.
	Datatype string

	// Field names the record field, if any.
	Field string

	// Causes holds the per-variant failures of NO_MATCHING_VARIANT.
	Causes []error

	// Err is the underlying error, if any.
	Err error
}

// ErrorCode categorizes hydration errors.
type ErrorCode string

const (
	// ErrCodeIncompatibleLayout indicates the layout cannot produce a value:
	// a Never layout, or a layout violating the variable binding contract.
	ErrCodeIncompatibleLayout ErrorCode = "INCOMPATIBLE_LAYOUT"

	// ErrCodeInvalidInputCount indicates the wrong number of inputs.
	ErrCodeInvalidInputCount ErrorCode = "INVALID_INPUT_COUNT"

	// ErrCodeDataAmbiguity indicates more than one solution where at most
	// one is allowed.
	ErrCodeDataAmbiguity ErrorCode = "DATA_AMBIGUITY"

	// ErrCodeMissingData indicates no solution where one is required.
	ErrCodeMissingData ErrorCode = "MISSING_DATA"

	// ErrCodeUnknownNumberDatatype indicates an unsupported numeric datatype.
	ErrCodeUnknownNumberDatatype ErrorCode = "UNKNOWN_NUMBER_DATATYPE"

	// ErrCodeUnknownBooleanDatatype indicates an unsupported boolean datatype.
	ErrCodeUnknownBooleanDatatype ErrorCode = "UNKNOWN_BOOLEAN_DATATYPE"

	// ErrCodeUnknownBytesDatatype indicates an unsupported binary datatype.
	ErrCodeUnknownBytesDatatype ErrorCode = "UNKNOWN_BYTES_DATATYPE"

	// ErrCodeNoMatchingLiteral indicates no literal representation of the
	// resource parses under the expected datatype.
	ErrCodeNoMatchingLiteral ErrorCode = "NO_MATCHING_LITERAL"

	// ErrCodeNoMatchingVariant indicates no sum variant matched.
	ErrCodeNoMatchingVariant ErrorCode = "NO_MATCHING_VARIANT"

	// ErrCodeUnknownLayout indicates a reference to an unregistered layout.
	ErrCodeUnknownLayout ErrorCode = "UNKNOWN_LAYOUT"

	// ErrCodeCyclicList indicates an ordered list visiting a node twice.
	ErrCodeCyclicList ErrorCode = "CYCLIC_LIST"

	// ErrCodeListTooLong indicates an ordered list exceeding the configured
	// maximum length.
	ErrCodeListTooLong ErrorCode = "LIST_TOO_LONG"

	// ErrCodeDepthExceeded indicates layout nesting deeper than the
	// configured maximum, typically a recursive layout over cyclic data.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeDataset indicates a dataset or interpretation lookup failure.
	ErrCodeDataset ErrorCode = "DATASET_ERROR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.Layout != 0 {
		ctx = append(ctx, "layout="+e.Layout.String())
	}
	if e.Field != "" {
		ctx = append(ctx, "field="+e.Field)
	}
	if e.Datatype != "" {
		ctx = append(ctx, "datatype="+e.Datatype)
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(ctx) > 0 {
		msg += " (" + strings.Join(ctx, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error and the variant causes.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return append(errs, e.Causes...)
}

// CodeOf returns the code of the outermost hydration error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he.Code, true
	}
	return "", false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsDataAmbiguity reports whether err is a DATA_AMBIGUITY error.
func IsDataAmbiguity(err error) bool { return hasCode(err, ErrCodeDataAmbiguity) }

// IsMissingData reports whether err is a MISSING_DATA error.
func IsMissingData(err error) bool { return hasCode(err, ErrCodeMissingData) }

// IsNoMatchingLiteral reports whether err is a NO_MATCHING_LITERAL error.
func IsNoMatchingLiteral(err error) bool { return hasCode(err, ErrCodeNoMatchingLiteral) }

// IsIncompatibleLayout reports whether err is an INCOMPATIBLE_LAYOUT error.
func IsIncompatibleLayout(err error) bool { return hasCode(err, ErrCodeIncompatibleLayout) }

func newError(code ErrorCode, ref layout.Ref, format string, args ...any) *Error {
	return &Error{Code: code, Layout: ref, Message: fmt.Sprintf(format, args...)}
}

// fromMatching converts a matching failure into a hydration error.
func fromMatching(err error, ref layout.Ref, what string) *Error {
	switch {
	case errors.Is(err, matching.ErrAmbiguity):
		return &Error{Code: ErrCodeDataAmbiguity, Layout: ref, Message: what + " has more than one solution", Err: err}
	case errors.Is(err, matching.ErrEmpty):
		return &Error{Code: ErrCodeMissingData, Layout: ref, Message: what + " has no solution", Err: err}
	case errors.Is(err, matching.ErrUnboundVariable):
		return &Error{Code: ErrCodeIncompatibleLayout, Layout: ref, Message: what + " leaves a variable unbound", Err: err}
	default:
		return &Error{Code: ErrCodeDataset, Layout: ref, Message: what + " lookup failed", Err: err}
	}
}
