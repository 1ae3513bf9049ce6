package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlate(t *testing.T) {
	tests := map[string]string{
		"abc-1234":  "ABC1234",
		"ABC1234":   "ABC1234",
		" abc 1d23": "ABC1D23",
		"brá-2e19":  "BR2E19",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Plate(in), in)
	}
	assert.Equal(t, Plate("abc-1234"), Plate("ABC1234"))
}

func TestPhone(t *testing.T) {
	assert.Equal(t, "+5511999999999", Phone("11999999999", "BR"))
	assert.Equal(t, "+5511999999999", Phone("(11) 99999-9999", "BR"))
	assert.Equal(t, "+5511999999999", Phone("+55 11 99999-9999", "BR"))
	assert.Equal(t, "123", Phone("12-3", "BR"))
	assert.Equal(t, "", Phone("   ", "BR"))
}

func TestDocument(t *testing.T) {
	doc := Document("123.456.789-09")
	require.NotNil(t, doc)
	assert.Equal(t, "12345678909", *doc)

	assert.Nil(t, Document(""))
	assert.Nil(t, Document(" .-/ "))
}

func TestOptionalHelpers(t *testing.T) {
	assert.Nil(t, Optional("  "))
	assert.Equal(t, "x", *Optional(" x "))
	assert.Nil(t, OptionalPtr(nil))
	assert.Equal(t, "joao@example.com", *Email(" Joao@Example.com "))
	assert.Nil(t, Email(""))
	assert.Equal(t, "IN_PROGRESS", Upper(" in_progress "))
}
