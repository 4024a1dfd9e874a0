package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
)

// minErrorStatus is the first status code treated as a failure.
const minErrorStatus = 400

// maxBodyBytes bounds how much of an error body is kept.
const maxBodyBytes = 4 << 10

// HTTPError is a non-2xx/3xx response from an upstream HTTP API.
type HTTPError struct {
	StatusCode int
	// Type is the upstream error class when the body carries one
	// (Elasticsearch's error.type, for example).
	Type    string
	Message string
	Body    string
}

func (e *HTTPError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Type, e.Message)
	case e.Message != "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// ParseHTTPError turns an error response into an *HTTPError. It returns nil for
// status codes below 400. Both {"error":"msg"} and the Elasticsearch shape
// {"error":{"type":...,"reason":...}} are understood; anything else keeps the raw
// body as the message.
func ParseHTTPError(statusCode int, body io.Reader) error {
	if statusCode < minErrorStatus {
		return nil
	}

	httpErr := &HTTPError{StatusCode: statusCode}
	if body == nil {
		return httpErr
	}

	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		httpErr.Message = fmt.Sprintf("read error body: %v", err)
		return httpErr
	}
	httpErr.Body = string(raw)

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) != nil {
		httpErr.Message = httpErr.Body
		return httpErr
	}

	var structured struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	var plain string
	switch {
	case json.Unmarshal(envelope.Error, &structured) == nil && (structured.Type != "" || structured.Reason != ""):
		httpErr.Type = structured.Type
		httpErr.Message = structured.Reason
	case json.Unmarshal(envelope.Error, &plain) == nil && plain != "":
		httpErr.Message = plain
	case envelope.Message != "":
		httpErr.Message = envelope.Message
	default:
		httpErr.Message = httpErr.Body
	}
	return httpErr
}

// StatusCode extracts the status of an *HTTPError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
