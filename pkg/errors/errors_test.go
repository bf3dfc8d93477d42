package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{ErrInvalidParam, http.StatusBadRequest},
		{ErrRouteInvalid, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrBookNotFound, http.StatusNotFound},
		{ErrChapterNotFound, http.StatusNotFound},
		{ErrUsageExhausted, http.StatusTooManyRequests},
		{ErrLLMUnavailable, http.StatusBadGateway},
		{ErrDatabase, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus)
		})
	}
}

func TestAppError_WithDetailDoesNotMutateShared(t *testing.T) {
	e := ErrInvalidParam.WithDetail("messages is empty")
	assert.Equal(t, "", ErrInvalidParam.Detail)
	assert.Equal(t, "invalid parameter: messages is empty", e.PublicMessage())
	assert.True(t, stderrors.Is(e, ErrInvalidParam))
}

func TestAsAppError_Wrapped(t *testing.T) {
	base := ErrForbidden.WithDetail("not a member")
	err := fmt.Errorf("chapter writer: %w", base)

	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeForbidden, AsAppError(err).Code)
	assert.True(t, HasCode(err, CodeForbidden))

	plain := AsAppError(stderrors.New("boom"))
	assert.Equal(t, CodeUnknown, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.HTTPStatus)
}
