package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrInternal,
		ErrFetchFailed, ErrWriteFailed, ErrRateLimited,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("rpc error: code = Unavailable")
	appErr := FetchFailed("Failed to load items.", inner)
	assert.Contains(t, appErr.Error(), "FETCH_FAILED")
	assert.Contains(t, appErr.Error(), "Failed to load items.")
	assert.Contains(t, appErr.Error(), "Unavailable")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "item not found"}
	assert.Equal(t, "NOT_FOUND: item not found", appErr.Error())
}

func TestAppError_Unwrap_KeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	appErr := WriteFailed("Failed to add review.", cause)
	assert.True(t, errors.Is(appErr, cause))
	assert.True(t, errors.Is(appErr, ErrWriteFailed))
	assert.False(t, errors.Is(appErr, ErrFetchFailed))
}

func TestFetchFailed_MatchesSentinelThroughWrapping(t *testing.T) {
	err := fmt.Errorf("list items: %w", FetchFailed("Failed to load items.", errors.New("boom")))
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

// --- Constructor functions ---

func TestNotFound(t *testing.T) {
	err := NotFound("item", "abc-123")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Contains(t, err.Message, "abc-123")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("rating is required")
	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRateLimited(t *testing.T) {
	err := RateLimited()
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestHTTPStatus_PlainErrors(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(Wrap(ErrNotFound, "get")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Wrap(ErrInvalidInput, "validate")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Wrap(ErrWriteFailed, "add")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))
}

func TestConflict(t *testing.T) {
	err := Conflict("submission already in progress")
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Wrap(ErrConflict, "begin")))
}
