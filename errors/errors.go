package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrInvalidPayload      = fmt.Errorf("invalid event payload")
	ErrResourceNotFound    = fmt.Errorf("resource not found")
	ErrRangeHeaderMissing  = fmt.Errorf("range header is required")
	ErrRangeNotSatisfiable = fmt.Errorf("range not satisfiable")
	ErrStreamRead          = fmt.Errorf("stream read failure")
	ErrInvalidTransition   = fmt.Errorf("invalid stream state transition")
	ErrUnauthorized        = fmt.Errorf("invalid or missing stream token")
	ErrCatalogDisabled     = fmt.Errorf("media catalog is not configured")
	ErrContentRange        = fmt.Errorf("invalid content range")
	ErrUnexpectedStatus    = fmt.Errorf("unexpected response status")
)

// Is and As forward to the standard library.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
