package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInput represents malformed user input errors
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeGateway represents model gateway transport errors
	ErrorTypeGateway ErrorType = "gateway"
	// ErrorTypeTool represents tool resolution/execution errors
	ErrorTypeTool ErrorType = "tool"
	// ErrorTypeSession represents session state errors
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeSpeech represents STT/TTS collaborator errors
	ErrorTypeSpeech ErrorType = "speech"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error's type tag. Promoted through every concrete
// error that embeds BaseError.
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Input Errors

// ErrEmptyInput is returned when the user submits blank input
var ErrEmptyInput = NewBaseError(ErrorTypeInput, "empty input: nothing to process", nil)

// Gateway Errors

// GatewayKind narrows a gateway failure to its transport-level cause
type GatewayKind string

const (
	GatewayRateLimited GatewayKind = "rate_limited"
	GatewayTimeout     GatewayKind = "timeout"
	GatewayMalformed   GatewayKind = "malformed"
)

// ErrGateway is returned when the model gateway cannot produce a turn result
type ErrGateway struct {
	*BaseError
	Kind GatewayKind
}

func NewGateway(kind GatewayKind, err error) *ErrGateway {
	return &ErrGateway{
		BaseError: NewBaseError(ErrorTypeGateway, fmt.Sprintf("model gateway failure (%s)", kind), err),
		Kind:      kind,
	}
}

// Tool Errors

// ErrDuplicateTool is returned when a tool name is registered twice
type ErrDuplicateTool struct {
	*BaseError
	ToolName string
}

func NewDuplicateTool(toolName string) *ErrDuplicateTool {
	return &ErrDuplicateTool{
		BaseError: NewBaseError(ErrorTypeTool, fmt.Sprintf("tool already registered: %s", toolName), nil),
		ToolName:  toolName,
	}
}

// ErrUnknownTool is returned when a requested tool is not registered
type ErrUnknownTool struct {
	*BaseError
	ToolName string
}

func NewUnknownTool(toolName string) *ErrUnknownTool {
	return &ErrUnknownTool{
		BaseError: NewBaseError(ErrorTypeTool, fmt.Sprintf("unknown tool: %s", toolName), nil),
		ToolName:  toolName,
	}
}

// ErrInvalidArguments is returned when tool arguments fail schema validation
type ErrInvalidArguments struct {
	*BaseError
	ToolName string
	Fields   []string
}

func NewInvalidArguments(toolName string, fields []string) *ErrInvalidArguments {
	return &ErrInvalidArguments{
		BaseError: NewBaseError(ErrorTypeTool, fmt.Sprintf("invalid arguments for %s: %v", toolName, fields), nil),
		ToolName:  toolName,
		Fields:    fields,
	}
}

// ErrToolExecution is returned when a tool handler fails or panics
type ErrToolExecution struct {
	*BaseError
	ToolName string
}

func NewToolExecution(toolName string, err error) *ErrToolExecution {
	return &ErrToolExecution{
		BaseError: NewBaseError(ErrorTypeTool, fmt.Sprintf("tool execution failed: %s", toolName), err),
		ToolName:  toolName,
	}
}

// ErrToolTimeout is returned when a tool invocation exceeds its deadline
type ErrToolTimeout struct {
	*BaseError
	ToolName string
	Timeout  time.Duration
}

func NewToolTimeout(toolName string, timeout time.Duration) *ErrToolTimeout {
	return &ErrToolTimeout{
		BaseError: NewBaseError(ErrorTypeTool, fmt.Sprintf("tool timed out: %s (timeout: %v)", toolName, timeout), nil),
		ToolName:  toolName,
		Timeout:   timeout,
	}
}

// Session Errors

// ErrSessionBusy is returned when a turn is already in flight for the session
type ErrSessionBusy struct {
	*BaseError
	SessionID string
}

func NewSessionBusy(sessionID string) *ErrSessionBusy {
	return &ErrSessionBusy{
		BaseError: NewBaseError(ErrorTypeSession, fmt.Sprintf("session busy: %s", sessionID), nil),
		SessionID: sessionID,
	}
}

// ErrSessionNotFound is returned when a session id is not known
type ErrSessionNotFound struct {
	*BaseError
	SessionID string
}

func NewSessionNotFound(sessionID string) *ErrSessionNotFound {
	return &ErrSessionNotFound{
		BaseError: NewBaseError(ErrorTypeSession, fmt.Sprintf("session not found: %s", sessionID), nil),
		SessionID: sessionID,
	}
}

// ErrLoopBudgetExceeded is returned when tool-dispatch rounds exhaust the budget
type ErrLoopBudgetExceeded struct {
	*BaseError
	Rounds int
}

func NewLoopBudgetExceeded(rounds int) *ErrLoopBudgetExceeded {
	return &ErrLoopBudgetExceeded{
		BaseError: NewBaseError(ErrorTypeSession, fmt.Sprintf("tool loop budget exceeded after %d rounds", rounds), nil),
		Rounds:    rounds,
	}
}

// Speech Errors

// ErrTranscription is returned when speech-to-text fails
type ErrTranscription struct {
	*BaseError
}

func NewTranscription(err error) *ErrTranscription {
	return &ErrTranscription{
		BaseError: NewBaseError(ErrorTypeSpeech, "transcription failed", err),
	}
}

// ErrSynthesis is returned when text-to-speech fails
type ErrSynthesis struct {
	*BaseError
}

func NewSynthesis(err error) *ErrSynthesis {
	return &ErrSynthesis{
		BaseError: NewBaseError(ErrorTypeSpeech, "speech synthesis failed", err),
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if tagged, ok := err.(interface{ Category() ErrorType }); ok {
		return tagged.Category() == errType
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}

// GatewayKindOf extracts the gateway error kind, or empty string when the
// error is not a gateway error
func GatewayKindOf(err error) GatewayKind {
	for err != nil {
		if gw, ok := err.(*ErrGateway); ok {
			return gw.Kind
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = wrapped.Unwrap()
	}
	return ""
}
