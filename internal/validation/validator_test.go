package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type item struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type payload struct {
	Name   string  `json:"clientName" validate:"required"`
	Email  string  `json:"clientEmail" validate:"omitempty,email"`
	Method string  `json:"paymentMethod" validate:"required,oneof=CASH CARD PIX"`
	Items  []item  `json:"items" validate:"required,min=1,dive"`
	Note   *string `json:"-"`
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(payload{Email: "nope", Method: "BOLETO", Items: []item{{Quantity: 0}}})
	require.Error(t, err)

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())

	fields := appErr.Fields()
	assert.Equal(t, "is required", fields["clientName"])
	assert.Equal(t, "must be a valid email", fields["clientEmail"])
	assert.Equal(t, "must be one of: CASH CARD PIX", fields["paymentMethod"])
	assert.Equal(t, "must be greater than 0", fields["items[0].quantity"])
}

func TestValidate_OK(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(payload{Name: "Ana", Method: "PIX", Items: []item{{Quantity: 1}}}))
}
