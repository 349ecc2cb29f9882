package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound           = errors.New("not found")
	ErrQueueClosed        = errors.New("queue is closed")
	ErrQueueDrained       = errors.New("queue is closed and drained")
	ErrInvalidCapacity    = errors.New("queue capacity must be at least 1")
	ErrInvalidSizing      = errors.New("producer and consumer counts must be at least 1")
	ErrInvalidBatch       = errors.New("batch size must not be negative")
	ErrInvalidMessageType = errors.New("invalid message type: must be email or sms")
	ErrInvalidDispatch    = errors.New("invalid dispatch mode: must be round_robin or literal")
	ErrRunCancelled       = errors.New("run cancelled")
	ErrRunTimeout         = errors.New("run timeout exceeded")
	ErrSendNotImplemented = errors.New("send is not implemented for this message type")
)
