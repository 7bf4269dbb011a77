package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCodeSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnknownRun, http.StatusNotFound},
		{ErrUnknownStudent, http.StatusNotFound},
		{ErrNoNetworkForDay, http.StatusNotFound},
		{ErrInvalidParameter, http.StatusBadRequest},
		{ErrIndexOutOfRange, http.StatusBadRequest},
		{ErrInvalidDuration, http.StatusBadRequest},
		{ErrRunCompleted, http.StatusConflict},
		{ErrRunExists, http.StatusConflict},
		{ErrTimeout, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatusCode(tc.err), tc.err.Error())
	}
}

func TestHTTPStatusCodeWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("tick failed: %w", ErrRunCompleted)
	assert.Equal(t, http.StatusConflict, HTTPStatusCode(err))
}

func TestAppErrorOverridesMapping(t *testing.T) {
	err := New(ErrInternal, http.StatusTeapot, "custom status")
	assert.Equal(t, http.StatusTeapot, HTTPStatusCode(err))
	assert.ErrorIs(t, err, ErrInternal)
}
