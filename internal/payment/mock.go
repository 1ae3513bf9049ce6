package payment

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// Mock approves every charge unless told otherwise. It keeps the charges it saw.
type Mock struct {
	mu      sync.Mutex
	status  string
	err     error
	charges []Charge
	revErr  error
	reverse []string
	now     func() time.Time
}

// NewMock builds an approving mock gateway.
func NewMock() *Mock {
	return &Mock{status: "approved", now: time.Now}
}

// Respond makes later charges return providerStatus, or err when non-nil.
func (m *Mock) Respond(providerStatus string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status, m.err = providerStatus, err
}

// Charges returns the charges received so far.
func (m *Mock) Charges() []Charge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Charge(nil), m.charges...)
}

// Charge implements Gateway.
func (m *Mock) Charge(_ context.Context, c Charge) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.charges = append(m.charges, c)
	if m.err != nil {
		return Result{}, m.err
	}
	status, err := StatusOf(m.status)
	if err != nil {
		return Result{}, err
	}

	id := strconv.FormatInt(m.now().UTC().UnixNano(), 10)
	raw, _ := json.Marshal(map[string]any{
		"id":                 id,
		"status":             m.status,
		"external_reference": c.Reference,
		"transaction_amount": c.Amount.String(),
	})
	return Result{ProviderID: id, ProviderStatus: m.status, Status: status, Raw: raw}, nil
}

// FailReversals makes later Reverse calls return err.
func (m *Mock) FailReversals(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revErr = err
}

// Reversed returns the provider ids passed to Reverse, including failed attempts.
func (m *Mock) Reversed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reverse...)
}

// Reverse implements Gateway.
func (m *Mock) Reverse(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reverse = append(m.reverse, r.ProviderID)
	return m.revErr
}
