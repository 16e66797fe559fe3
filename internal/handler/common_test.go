package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetUserID(t *testing.T) {
	c := testContext(t)
	c.Set("user_id", uint64(42))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	// No authentication ran: the key is absent.
	_, err = getUserID(testContext(t))
	assert.Error(t, err)

	c = testContext(t)
	c.Set("user_id", "42") // wrong type never comes from the middleware
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestPathID(t *testing.T) {
	c := testContext(t)
	c.SetParamNames("id")
	c.SetParamValues("17")
	id, err := pathID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		c := testContext(t)
		c.SetParamNames("id")
		c.SetParamValues(bad)
		_, err := pathID(c)
		assert.Error(t, err, "value %q", bad)
	}
}
