package channel

import "errors"

// Error kinds surfaced through futures and returned directly from
// synchronous accessors. Each is a sentinel so callers can use errors.Is
// instead of string matching; wrapping with %w preserves the underlying
// kernel error where one exists.
var (
	ErrBindFailed    = errors.New("channel: bind failed")
	ErrConnectFailed = errors.New("channel: connect failed")
	ErrWriteFailed   = errors.New("channel: write failed")
	ErrReadFailed    = errors.New("channel: read failed")

	ErrClosedChannel = errors.New("channel: operation on closed channel")
	ErrTimeout       = errors.New("channel: timed out")

	ErrUnknownOption = errors.New("channel: unknown option")
	ErrInvalidOption = errors.New("channel: invalid option value")
	ErrConfigIO      = errors.New("channel: kernel rejected option")

	ErrUnsupportedOperation = errors.New("channel: unsupported operation")
)
