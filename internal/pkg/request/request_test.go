package request

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type colorBody struct {
	Color  string `json:"color" binding:"required,test_color"`
	Ignore string `json:"ignore"`
}

func newContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return c
}

func TestBindStrictJSON(t *testing.T) {
	require.NoError(t, RegisterEnum("test_color", "red", "blue"))

	t.Run("accepts declared fields", func(t *testing.T) {
		var dst colorBody
		err := BindStrictJSON(newContext(`{"color":"red","ignore":"x"}`), &dst)
		require.NoError(t, err)
		assert.Equal(t, "red", dst.Color)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		var dst colorBody
		err := BindStrictJSON(newContext(`{"color":"red","shade":"dark"}`), &dst)
		assert.ErrorContains(t, err, "shade")
	})

	t.Run("rejects values outside the enum", func(t *testing.T) {
		var dst colorBody
		err := BindStrictJSON(newContext(`{"color":"green"}`), &dst)
		var verrs validator.ValidationErrors
		assert.True(t, errors.As(err, &verrs))
	})

	t.Run("rejects empty body", func(t *testing.T) {
		var dst colorBody
		err := BindStrictJSON(newContext(``), &dst)
		assert.ErrorIs(t, err, ErrEmptyBody)
	})
}

func TestListParamsNormalize(t *testing.T) {
	p := ListParams{}
	p.Normalize()
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, Limit: 20}
	p.Normalize()
	assert.Equal(t, 40, p.Offset())
}
