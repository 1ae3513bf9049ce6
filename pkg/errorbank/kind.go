package errorbank

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an AppError. The string value is what clients see in the
// "kind" field of an error body.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindConflict            Kind = "conflict"
	KindNotFound            Kind = "not_found"
	KindUnprocessableEntity Kind = "unprocessable_entity"
	KindInternal            Kind = "internal"
)

type mapping struct {
	status int
	code   codes.Code
}

var kinds = map[Kind]mapping{
	KindBadRequest:          {status: http.StatusBadRequest, code: codes.InvalidArgument},
	KindConflict:            {status: http.StatusConflict, code: codes.AlreadyExists},
	KindNotFound:            {status: http.StatusNotFound, code: codes.NotFound},
	KindUnprocessableEntity: {status: http.StatusUnprocessableEntity, code: codes.FailedPrecondition},
	KindInternal:            {status: http.StatusInternalServerError, code: codes.Internal},
}

// lookup falls back to internal for unknown kinds.
func (k Kind) lookup() mapping {
	if m, ok := kinds[k]; ok {
		return m
	}
	return kinds[KindInternal]
}

// Status returns the HTTP status for k.
func (k Kind) Status() int { return k.lookup().status }

// Code returns the gRPC code for k.
func (k Kind) Code() codes.Code { return k.lookup().code }
