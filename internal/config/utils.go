package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed variables. Malformed values fall back to the default
// and are reported by err.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (e *envReader) invalid(key, value, want string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q is not a valid %s", key, value, want))
}

func (e *envReader) str(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

func (e *envReader) integer(key string, defaultVal int) int {
	value, ok := e.lookup(key)
	if !ok {
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		e.invalid(key, value, "integer")
		return defaultVal
	}
	return v
}

func (e *envReader) boolean(key string, defaultVal bool) bool {
	value, ok := e.lookup(key)
	if !ok {
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		e.invalid(key, value, "boolean")
		return defaultVal
	}
	return v
}

func (e *envReader) duration(key string, defaultVal time.Duration) time.Duration {
	value, ok := e.lookup(key)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.invalid(key, value, "duration")
		return defaultVal
	}
	return d
}

// list splits a comma-separated value, dropping blanks.
func (e *envReader) list(key string, defaults []string) []string {
	value, ok := e.lookup(key)
	if !ok {
		return defaults
	}
	out := make([]string, 0, strings.Count(value, ",")+1)
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}
