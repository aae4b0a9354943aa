package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid", Invalid("Find", "row %d out of range", 99), http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"wrapped service not found", fmt.Errorf("get: %w", ErrServiceNotFound), http.StatusNotFound},
		{"unavailable", Unavailable("List", errors.New("conn refused")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Unavailable("List", cause)

	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsInvalid(err))
	assert.Equal(t, "List: service directory unavailable: dial tcp: refused", err.Error())
}

func TestError_NoCause(t *testing.T) {
	err := &Error{Kind: ErrServiceNotFound, Op: "Get"}
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Equal(t, "Get: service not found", err.Error())
}
