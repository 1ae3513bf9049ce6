package request

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/oficina/pkg/errorbank"
)

func newContext(target string) echo.Context {
	e := echo.New()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
}

func TestID(t *testing.T) {
	c := newContext("/")
	c.SetParamNames("id")
	c.SetParamValues("42")
	id, err := ID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	c.SetParamValues("abc")
	_, err = ID(c, "id")
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))

	c.SetParamValues("-1")
	_, err = ID(c, "id")
	assert.Error(t, err)
}

func TestQueryHelpers(t *testing.T) {
	c := newContext("/?limit=20&active=false&from=2024-02-01&status=OPEN,QUOTATION&status=%20APPROVED&bad=x")

	limit, err := Int(c, "limit")
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	missing, err := Int64(c, "clientId")
	require.NoError(t, err)
	assert.Zero(t, missing)

	active, err := Bool(c, "active")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, *active)

	from, err := Date(c, "from")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", from.Format("2006-01-02"))

	assert.Equal(t, []string{"OPEN", "QUOTATION", "APPROVED"}, List(c, "status"))

	_, err = Int(c, "bad")
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"bad"}, appErr.FieldNames())

	_, err = Date(c, "bad")
	assert.Error(t, err)
}
