package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := New(ErrRecordNotFound, http.StatusNotFound, "movie:42 missing")
	if !stderrors.Is(err, ErrRecordNotFound) {
		t.Error("AppError must unwrap to its sentinel")
	}
	if err.Error() != "record not found: movie:42 missing" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrRecordNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrUnknownCategory, http.StatusBadRequest},
		{ErrStoreUnavailable, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{stderrors.New("anything else"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrRecordNotFound), http.StatusNotFound},
		{New(ErrInvalidInput, http.StatusUnprocessableEntity, "custom"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if got := HTTPStatusCode(tt.err); got != tt.want {
			t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
