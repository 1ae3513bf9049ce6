package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/oficina/pkg/errorbank"
)

// Builder helps construct consistent HTTP responses.
//
// Success bodies are {"success": true, "data": ..., "meta": ...}, or a flat
// object when WithPayload is used. Error bodies are
// {"success": false, "error": <message>, "kind": <kind>, "details": ...}.
type Builder struct {
	ctx     echo.Context
	status  int
	data    any
	payload map[string]any
	err     error
	meta    map[string]any
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload under "data".
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithField adds a top-level field next to "success".
func (b *Builder) WithField(key string, value any) *Builder {
	if key == "" || key == "success" {
		return b
	}
	if b.payload == nil {
		b.payload = make(map[string]any)
	}
	b.payload[key] = value
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithMeta appends auxiliary metadata to the response.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

func (b *Builder) buildSuccess() error {
	if b.payload != nil {
		body := make(map[string]any, len(b.payload)+2)
		for k, v := range b.payload {
			body[k] = v
		}
		body["success"] = true
		if b.data != nil {
			body["data"] = b.data
		}
		if b.meta != nil {
			body["meta"] = b.meta
		}
		return b.ctx.JSON(b.status, body)
	}

	payload := struct {
		Success bool           `json:"success"`
		Data    any            `json:"data,omitempty"`
		Meta    map[string]any `json:"meta,omitempty"`
	}{
		Success: true,
		Data:    b.data,
		Meta:    b.meta,
	}
	return b.ctx.JSON(b.status, payload)
}

// ErrorBody is the JSON shape of a failed request.
type ErrorBody struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Kind    string         `json:"kind"`
	Details any            `json:"details,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}

	body := ErrorBody{
		Success: false,
		Error:   appErr.Message(),
		Kind:    string(appErr.Kind()),
		Details: appErr.Public(),
		Meta:    b.meta,
	}
	return b.ctx.JSON(status, body)
}
