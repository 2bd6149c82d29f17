package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// EngineInitMessage is used when a generative conversation cannot be started.
	EngineInitMessage = "generative engine unavailable"
	// EngineCallMessage is used when the generative provider fails mid-conversation.
	EngineCallMessage = "generative engine call failed"
	// PersistenceMessage is used when a transcript, assessment or index cannot be written.
	PersistenceMessage = "persistence failed"
)

// Kind classifies an AppError so callers can decide how to recover.
type Kind int

const (
	KindSystem Kind = iota
	// KindValidation covers malformed or out-of-range user input. Recovered with a re-prompt.
	KindValidation
	// KindEngineInit means the provider could not construct a conversation.
	KindEngineInit
	// KindEngineCall means the provider failed while answering a turn.
	KindEngineCall
	// KindPersistence means a durable write failed. Best effort only.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEngineInit:
		return "engine_init"
	case KindEngineCall:
		return "engine_call"
	case KindPersistence:
		return "persistence"
	default:
		return "system"
	}
}

// AppError wraps an underlying error with a kind, an HTTP status and a safe message.
type AppError struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new system AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    KindSystem,
		Status:  status,
		Message: message,
	}
}

func newKind(kind Kind, err error, status int, message string) *AppError {
	return &AppError{Err: err, Kind: kind, Status: status, Message: message}
}

// Validation wraps a user input problem.
func Validation(err error, message string) *AppError {
	return newKind(KindValidation, err, http.StatusUnprocessableEntity, message)
}

// EngineInit wraps a provider construction failure.
func EngineInit(err error) *AppError {
	return newKind(KindEngineInit, err, http.StatusServiceUnavailable, EngineInitMessage)
}

// EngineCall wraps a provider failure while relaying a turn.
func EngineCall(err error) *AppError {
	return newKind(KindEngineCall, err, http.StatusBadGateway, EngineCallMessage)
}

// Persistence wraps a durable write failure.
func Persistence(err error) *AppError {
	return newKind(KindPersistence, err, http.StatusInternalServerError, PersistenceMessage)
}

// IsKind reports whether any AppError in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	for appErr != nil {
		if appErr.Kind == kind {
			return true
		}
		var next *AppError
		if !errors.As(appErr.Err, &next) {
			return false
		}
		appErr = next
	}
	return false
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
