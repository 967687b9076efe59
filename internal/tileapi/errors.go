package tileapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Error is returned for every failed backend call, whether the request never
// completed (Err is set) or the server answered with a non-2xx status.
// Op names the attempted action, e.g. "upload tiles".
type Error struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("failed to %s: %s (status %d)", e.Op, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("failed to %s: %s (status %d)", e.Op, e.Range(), e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Range classifies the status code. Transport failures report StatusUnknown.
func (e *Error) Range() StatusCodeRange {
	if e.StatusCode == 0 {
		return StatusUnknown
	}
	return StatusCodeRangeOf(e.StatusCode)
}

// parseErrorDetail extracts a human readable message from an error body.
// FastAPI answers {"detail": "..."} or {"detail": [...]} for validation
// failures; some handlers answer {"message": "..."}.
func parseErrorDetail(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message *string         `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return string(body)
	}

	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, envelope.Detail); err == nil {
			return compact.String()
		}
	}
	if envelope.Message != nil {
		return *envelope.Message
	}
	return strings.TrimSpace(string(body))
}
