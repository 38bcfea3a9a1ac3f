package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TransportError means the request never produced a usable response:
// the network was unreachable or the body could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Detail holds the service's "detail"
// message when there is one; Fields holds field-level validation messages.
type APIError struct {
	Status int
	Detail string
	Fields map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message())
}

// Message joins the error body into one human-readable line.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(e.Fields[k], " ")
		if k == "non_field_errors" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, k+": "+msg)
	}
	return strings.Join(parts, ", ")
}

// parseAPIError decodes an error body. The service answers either
// {"detail": "..."} or {"field": ["msg", ...], ...}; anything else is
// kept as the detail text.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if len(body) == 0 {
		return e
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Detail = truncate(strings.TrimSpace(string(body)), 200)
		return e
	}

	for k, v := range raw {
		if k == "detail" {
			var s string
			if json.Unmarshal(v, &s) == nil {
				e.Detail = s
				continue
			}
		}
		if msgs := flattenMessages(v); len(msgs) > 0 {
			if e.Fields == nil {
				e.Fields = make(map[string][]string)
			}
			e.Fields[k] = msgs
		}
	}
	return e
}

// flattenMessages accepts a string, a list of strings, or nested
// objects (ingredient rows) and returns the leaf messages.
func flattenMessages(v json.RawMessage) []string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return []string{s}
	}
	var list []json.RawMessage
	if json.Unmarshal(v, &list) == nil {
		var out []string
		for _, item := range list {
			out = append(out, flattenMessages(item)...)
		}
		return out
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(v, &obj) == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			for _, m := range flattenMessages(obj[k]) {
				out = append(out, k+": "+m)
			}
		}
		return out
	}
	return nil
}

// Message extracts a human-readable description from any error the
// client returns. It is what rejected lifecycle events carry.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.Err.Error()
	}
	return err.Error()
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
