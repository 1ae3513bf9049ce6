// Package request reads path, query and body input off an echo context,
// reporting problems as errorbank bad requests.
package request

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

// ID parses a positive integer path parameter.
func ID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid "+name, errorbank.WithField(name, "must be a positive integer"))
	}
	return id, nil
}

// Bind decodes the JSON body into dst.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return nil
}

// Int reads an optional integer query parameter; absent yields 0.
func Int(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errorbank.Validation(map[string]string{name: "must be an integer"})
	}
	return v, nil
}

// Int64 reads an optional int64 query parameter; absent yields 0.
func Int64(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errorbank.Validation(map[string]string{name: "must be an integer"})
	}
	return v, nil
}

// Bool reads an optional boolean query parameter; absent yields nil.
func Bool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errorbank.Validation(map[string]string{name: "must be true or false"})
	}
	return &v, nil
}

// Date reads an optional YYYY-MM-DD query parameter; absent yields the zero time.
func Date(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return time.Time{}, errorbank.Validation(map[string]string{name: "must be a date (YYYY-MM-DD)"})
	}
	return d.Time, nil
}

// List reads a query parameter given either repeated or comma separated.
func List(c echo.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryParams()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
