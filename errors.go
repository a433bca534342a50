package cqrsbus

import (
	"fmt"

	"github.com/code19m/errx"
)

// HandlerNotFoundError builds the error returned when no handler is
// registered for the given request type name.
func HandlerNotFoundError(requestType string) error {
	return errx.New(
		fmt.Sprintf("no handler registered for request type %s", requestType),
		errx.WithCode(CodeHandlerNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"request_type": requestType}),
	)
}

// ProcessingFailedError wraps a handler or dispatch-plumbing failure,
// preserving the original cause and tagging the failed request.
func ProcessingFailedError(requestID string, cause error) error {
	return errx.Wrap(
		cause,
		errx.WithCode(CodeProcessingFailed),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{"request_id": requestID}),
	)
}
