package status

import "errors"

var (
	// StatusError indicates a failure of an operation.
	StatusError = errors.New("operation failed")

	// StatusInvalidState indicates that an operation can't be performed due to invalid state.
	StatusInvalidState = errors.New("invalid state")

	// StatusInvalidArg indicates that an operation received an invalid argument.
	StatusInvalidArg = errors.New("invalid argument")

	// StatusNotSupported indicates that an operation isn't supported.
	StatusNotSupported = errors.New("not implemented")

	// StatusNoData indicates that no data is available.
	StatusNoData = errors.New("no data")

	// StatusTimeout indicates that an operation timed out.
	StatusTimeout = errors.New("timed out")

	// StatusCanceled indicates that an operation was canceled before it completed.
	StatusCanceled = errors.New("canceled")
)
