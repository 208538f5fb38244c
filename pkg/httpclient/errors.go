package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
)

// RemoteErrorResponse mirrors the error envelope written by httputil.
type RemoteErrorResponse struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

// ParseResponseError reads a non-2xx response and turns it into an
// *apperrors.AppError carrying the server's code, message and status. Field
// errors are folded into the message. The body is consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("status %d (failed to read body: %w)", resp.StatusCode, err)
	}

	var remote RemoteErrorResponse
	if json.Unmarshal(body, &remote) != nil || remote.Error == nil {
		return &apperrors.AppError{
			Code:    "UNEXPECTED_RESPONSE",
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)),
			Status:  resp.StatusCode,
		}
	}

	msg := remote.Error.Message
	fields := make([]string, 0, len(remote.Error.Fields))
	for field := range remote.Error.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		msg += fmt.Sprintf("; %s %s", field, remote.Error.Fields[field])
	}

	appErr := &apperrors.AppError{
		Code:    remote.Error.Code,
		Message: msg,
		Status:  resp.StatusCode,
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		appErr.Err = apperrors.ErrNotFound
	case http.StatusBadRequest:
		appErr.Err = apperrors.ErrInvalidInput
	case http.StatusTooManyRequests:
		appErr.Err = apperrors.ErrRateLimited
	}
	return appErr
}
