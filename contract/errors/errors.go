package errors

// Error codes for the bus contracts. Keep stable; used across adapters and bus.
const (
	ErrCodeEmptyTopic          = "agentbus.empty_topic"
	ErrCodeNilHandler          = "agentbus.nil_handler"
	ErrCodeBusClosed           = "agentbus.bus_closed"
	ErrCodeHandlerPanic        = "agentbus.handler_panic"
	ErrCodePayloadTypeMismatch = "agentbus.payload_type_mismatch"
	ErrCodeSinkUnavailable     = "agentbus.sink_unavailable"
	ErrCodeSinkWriteFailed     = "agentbus.sink_write_failed"
	ErrCodeSerializationFailed = "agentbus.serialization_failed"
	ErrCodeUnknownPolicy       = "agentbus.unknown_policy"
	ErrCodeInvalidConfig       = "agentbus.invalid_config"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrEmptyTopic          = Code(ErrCodeEmptyTopic)
	ErrNilHandler          = Code(ErrCodeNilHandler)
	ErrBusClosed           = Code(ErrCodeBusClosed)
	ErrHandlerPanic        = Code(ErrCodeHandlerPanic)
	ErrPayloadTypeMismatch = Code(ErrCodePayloadTypeMismatch)
	ErrSinkUnavailable     = Code(ErrCodeSinkUnavailable)
	ErrSinkWriteFailed     = Code(ErrCodeSinkWriteFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
	ErrUnknownPolicy       = Code(ErrCodeUnknownPolicy)
	ErrInvalidConfig       = Code(ErrCodeInvalidConfig)
)
