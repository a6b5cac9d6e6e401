package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/start-service/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Plan  string `json:"plan" validate:"omitempty,oneof=free pro"`
}

func (r *signupRequest) Validate() error { return Struct(r) }

type customRequest struct{}

func (r *customRequest) Validate() error {
	return CustomValidationErrors{{Field: "body", Message: "must be a JSON object"}}
}

func bind(t *testing.T, body string, payload Validatable) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return BindAndValidate(echo.New().NewContext(req, httptest.NewRecorder()), payload)
}

func TestBindAndValidate(t *testing.T) {
	var payload signupRequest
	require.NoError(t, bind(t, `{"name":"Ada","email":"ada@example.com"}`, &payload))
	assert.Equal(t, "Ada", payload.Name)
}

func TestBindAndValidate_FieldErrors(t *testing.T) {
	err := bind(t, `{"name":"A","email":"nope","plan":"gold"}`, &signupRequest{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, []errs.FieldError{
		{Field: "name", Error: "must be at least 2 characters"},
		{Field: "email", Error: "must be a valid email address"},
		{Field: "plan", Error: "must be one of: free pro"},
	}, httpErr.Errors)
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	err := bind(t, `{"name":`, &signupRequest{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.NotEmpty(t, httpErr.Message)
	assert.Nil(t, httpErr.Errors)
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	err := bind(t, `{}`, &customRequest{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, []errs.FieldError{{Field: "body", Error: "must be a JSON object"}}, httpErr.Errors)
}

func TestIsKeyList(t *testing.T) {
	for _, s := range []string{"1", "1,2,3", " 4 , 5", "a-b,c"} {
		assert.True(t, IsKeyList(s), s)
	}
	for _, s := range []string{"", ",", "1,,2", "1,"} {
		assert.False(t, IsKeyList(s), s)
	}
}
