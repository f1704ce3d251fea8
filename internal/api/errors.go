// Package api provides the NeuroPassword REST client and its error types.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NotFoundMessage is shown when an operation targets a folder the local
// collection does not contain.
const NotFoundMessage = "No folder matches the given query."

// ValidationError reports empty or invalid input. It is produced before any
// request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports that the target id is absent from the collection.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return NotFoundMessage
}

// RemoteError is a network, server or schema failure of one API call.
// Message is what the server said, when it said anything usable.
type RemoteError struct {
	Method  string
	Path    string
	Status  int // 0 when no response was received
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s failed", e.Method, e.Path)
	if e.Status > 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// AuthError means the server rejected the session. By the time a caller sees
// it the session has been cleared and navigation to login has happened.
type AuthError struct {
	Method string
	Path   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s %s: session rejected by server", e.Method, e.Path)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsRemote reports whether err is or wraps a *RemoteError.
func IsRemote(err error) bool {
	var target *RemoteError
	return errors.As(err, &target)
}

// IsAuth reports whether err is or wraps an *AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// UserMessage turns err into the line shown to the user. Validation and
// not-found errors carry their own text; remote errors use the server's
// message when there is one and fallback otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return notFound.Error()
	}

	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}

	return fallback
}

// extractServerMessage pulls a human-readable message out of an error body.
// Recognized shapes, in order: {"detail": ...}, {"message": ...},
// {"error": ...}, a bare JSON string, and field errors such as
// {"title": ["This field may not be blank."]}.
func extractServerMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var asString string
	if err := json.Unmarshal([]byte(trimmed), &asString); err == nil {
		return strings.TrimSpace(asString)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error"} {
		if raw, ok := payload[key]; ok {
			if msg := firstString(raw); msg != "" {
				return msg
			}
		}
	}

	if raw, ok := payload["non_field_errors"]; ok {
		if msg := firstString(raw); msg != "" {
			return msg
		}
	}

	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if msg := firstString(payload[field]); msg != "" {
			return field + ": " + msg
		}
	}

	return ""
}

// firstString decodes raw as a string or the first string of an array.
func firstString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				return item
			}
		}
	}
	return ""
}
