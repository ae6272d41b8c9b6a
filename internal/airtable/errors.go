// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package airtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies store failures by how the caller should react.
type Kind string

const (
	// KindTransient covers network failures, 429 after retries, and 5xx.
	KindTransient Kind = "transient"
	// KindValidation covers requests the store refused as malformed.
	KindValidation Kind = "validation"
	// KindAuth means the token or its scopes are wrong; retrying cannot help.
	KindAuth Kind = "auth"
)

// Error is returned by every Client method.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("airtable %s: %s error", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsAuth reports whether err is an authentication or authorization failure.
func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindAuth
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests, status >= 500:
		return KindTransient
	default:
		return KindValidation
	}
}

func newStatusError(op string, status int, body string) *Error {
	return &Error{
		Kind:       kindForStatus(status),
		Op:         op,
		StatusCode: status,
		Message:    errorMessage(body),
	}
}

// errorMessage extracts the message from either error shape the API uses:
// {"error":"NOT_FOUND"} or {"error":{"type":"...","message":"..."}}.
func errorMessage(body string) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &env); err != nil || len(env.Error) == 0 {
		return body
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil {
		switch {
		case obj.Type != "" && obj.Message != "":
			return obj.Type + ": " + obj.Message
		case obj.Type != "":
			return obj.Type
		case obj.Message != "":
			return obj.Message
		}
	}
	return body
}
