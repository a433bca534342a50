// Package validation implements the two-stage request validation pipeline.
//
// Stage one evaluates declarative struct-tag constraints on the request with
// go-playground/validator. Stage two runs only when stage one passes and
// invokes the request's own ValidateSelf method, which may consult external
// collaborators for business rules. The ordering lets cheap declarative
// checks fail fast before expensive business-rule checks run.
package validation

import (
	"context"

	"github.com/code19m/errx"
	"github.com/samber/lo"
)

const (
	// CodeValidationFailed indicates that one of the validation passes
	// rejected a request. Surfaced unchanged, never wrapped.
	CodeValidationFailed = "VALIDATION_FAILED"
)

// Violation is a single structured validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SelfValidating is implemented by requests that carry their own business
// validation rules beyond declarative struct tags.
type SelfValidating interface {
	// ValidateSelf checks business rules and returns any violations found.
	// A non-nil error signals an infrastructure failure in the check itself
	// (for example an unreachable collaborator), not invalid input.
	ValidateSelf(ctx context.Context) ([]Violation, error)
}

// Processor runs the two validation passes in strict order.
type Processor struct{}

// NewProcessor returns a validation processor.
func NewProcessor() Processor {
	return Processor{}
}

// Validate evaluates the structural pass and, only when it produces zero
// violations, the request's custom pass. The returned slice is non-empty
// when the request is invalid.
func (Processor) Validate(ctx context.Context, req any) ([]Violation, error) {
	violations := checkSchema(req)
	if len(violations) > 0 {
		return violations, nil
	}

	sv, ok := req.(SelfValidating)
	if !ok {
		return nil, nil
	}

	custom, err := sv.ValidateSelf(ctx)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return custom, nil
}

// ValidateSchema runs only the structural pass against an arbitrary struct.
// It is used for configuration structs as well as requests.
func ValidateSchema(schema any) error {
	if violations := checkSchema(schema); len(violations) > 0 {
		return FailedError(violations)
	}
	return nil
}

// FailedError converts a non-empty violation set into the ValidationFailed
// error carried back to the caller. The fields map holds one message per
// field; the details keep the full ordered set.
func FailedError(violations []Violation) error {
	fields := lo.SliceToMap(violations, func(v Violation) (string, string) {
		return v.Field, v.Message
	})

	return errx.New(
		"Validation failed. See fields for details.",
		errx.WithCode(CodeValidationFailed),
		errx.WithType(errx.T_Validation),
		errx.WithFields(errx.M(fields)),
		errx.WithDetails(errx.D{"violations": violations}),
	)
}
