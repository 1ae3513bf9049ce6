package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableInt_Unmarshal(t *testing.T) {
	tests := []struct {
		in    string
		want  NullableInt
		fails bool
	}{
		{in: `50000`, want: IntOf(50000)},
		{in: `0`, want: IntOf(0)},
		{in: `"2019"`, want: IntOf(2019)},
		{in: `" 2019 "`, want: IntOf(2019)},
		{in: `12.0`, want: IntOf(12)},
		{in: `""`, want: NullableInt{}},
		{in: `null`, want: NullableInt{}},
		{in: `"abc"`, fails: true},
		{in: `12.5`, fails: true},
		{in: `true`, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got struct {
				V NullableInt `json:"v"`
			}
			err := json.Unmarshal([]byte(`{"v":`+tt.in+`}`), &got)
			if tt.fails {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.V)
		})
	}
}

func TestNullableInt_MissingFieldStaysInvalid(t *testing.T) {
	var got struct {
		V NullableInt `json:"v"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &got))
	assert.False(t, got.V.Valid)
	assert.Nil(t, got.V.Ptr())
}

func TestNullableInt_Marshal(t *testing.T) {
	raw, err := json.Marshal([]NullableInt{IntOf(3), {}})
	require.NoError(t, err)
	assert.JSONEq(t, `[3,null]`, string(raw))
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	d, err = ParseDate("2024-02-29T23:10:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)

	var body struct {
		Due Date `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":""}`), &body))
	assert.True(t, body.Due.IsZero())
	assert.Nil(t, body.Due.Ptr())

	raw, err := json.Marshal(DateOf(time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-05"`, string(raw))
}
