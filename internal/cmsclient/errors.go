// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmsclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every error returned by Client wraps exactly one of them.
var (
	ErrUnauthorized = errors.New("cmsclient: unauthorized")
	ErrNotFound     = errors.New("cmsclient: not found")
	ErrBadRequest   = errors.New("cmsclient: bad request")
	ErrServer       = errors.New("cmsclient: server error")
	ErrTransport    = errors.New("cmsclient: transport error")
)

// APIError is a non-2xx response from the CMS API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cms api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cms api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap maps the status code onto an error kind.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return ErrBadRequest
	default:
		return ErrServer
	}
}

// IsAuthError reports whether err is a 401 or 403 from the API.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// ErrorMessage returns the server-provided message carried by err, or
// fallback when there is none.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// parseAPIError builds an APIError from an error response body. It
// understands {"error":{"code","message","details"}}, {"error":"..."}
// and {"message":"..."}.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}

	if len(envelope.Error) > 0 {
		var detail struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		}
		var text string
		switch {
		case json.Unmarshal(envelope.Error, &detail) == nil:
			apiErr.Code = detail.Code
			apiErr.Message = detail.Message
			apiErr.Details = detail.Details
		case json.Unmarshal(envelope.Error, &text) == nil:
			apiErr.Message = text
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = envelope.Message
	}
	apiErr.Message = strings.TrimSpace(apiErr.Message)
	return apiErr
}
