package errorbank

import (
	"errors"
	"fmt"
	"sort"

	"google.golang.org/grpc/codes"
)

// AppError is the error type services hand to the transports. It carries a
// Kind, a client-facing message and optional structured context.
type AppError struct {
	kind    Kind
	message string
	fields  map[string]string
	details map[string]any
	cause   error
}

// Option configures an AppError at construction.
type Option func(*AppError)

// WithCause wraps err. Only internal errors expose it to clients.
func WithCause(err error) Option {
	return func(e *AppError) { e.cause = err }
}

// WithDetail attaches one named value, e.g. the offending part id.
func WithDetail(key string, value any) Option {
	return func(e *AppError) {
		if e.details == nil {
			e.details = map[string]any{}
		}
		e.details[key] = value
	}
}

// WithField records why one request field was rejected.
func WithField(field, message string) Option {
	return func(e *AppError) {
		if e.fields == nil {
			e.fields = map[string]string{}
		}
		e.fields[field] = message
	}
}

// New builds an AppError. An empty message defaults to the kind.
func New(kind Kind, message string, opts ...Option) *AppError {
	if message == "" {
		message = string(kind)
	}
	e := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func BadRequest(message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, opts...)
}

func Conflict(message string, opts ...Option) *AppError {
	return New(KindConflict, message, opts...)
}

func NotFound(message string, opts ...Option) *AppError {
	return New(KindNotFound, message, opts...)
}

func Unprocessable(message string, opts ...Option) *AppError {
	return New(KindUnprocessableEntity, message, opts...)
}

func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

// Validation is a bad request listing every invalid field.
func Validation(fields map[string]string) *AppError {
	e := New(KindBadRequest, "validation failed")
	for field, msg := range fields {
		WithField(field, msg)(e)
	}
	return e
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the category; a nil error reports internal.
func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *AppError) Cause() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *AppError) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *AppError) Fields() map[string]string {
	if e == nil {
		return nil
	}
	return e.fields
}

// FieldNames lists the invalid fields alphabetically.
func (e *AppError) FieldNames() []string {
	if e == nil || len(e.fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Public is the "details" value clients receive: field messages first, then
// named details, then the cause text for internal errors. Nil means omit.
func (e *AppError) Public() any {
	switch {
	case e == nil:
		return nil
	case len(e.fields) > 0:
		return e.fields
	case len(e.details) > 0:
		return e.details
	case e.kind == KindInternal && e.cause != nil:
		return e.cause.Error()
	default:
		return nil
	}
}

func (e *AppError) StatusCode() int { return e.Kind().Status() }

func (e *AppError) GRPCCode() codes.Code { return e.Kind().Code() }

// From returns the AppError inside err, or wraps err as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var e *AppError
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", WithCause(err))
}

// IsKind reports whether err wraps an AppError of kind.
func IsKind(err error, kind Kind) bool {
	var e *AppError
	return errors.As(err, &e) && e.kind == kind
}
