package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// StatusError is a non-2xx answer from a remote service. Detail holds the
// human readable message found in the body, if any. It unwraps to the
// apperrors sentinel matching the status so callers can use errors.Is.
type StatusError struct {
	Service string
	Status  int
	Detail  string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Detail)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return apperrors.ErrForbidden
	case e.Status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.Status == http.StatusBadRequest:
		return apperrors.ErrInvalidInput
	case e.Status == http.StatusConflict:
		return apperrors.ErrConflict
	case e.Status == http.StatusServiceUnavailable:
		return apperrors.ErrServiceUnavail
	default:
		return apperrors.ErrUpstream
	}
}

// downstreamErrorBody covers the error shapes remote services answer with:
// {"detail": "..."}, {"message": "..."} and {"error": {"code", "message"}}.
type downstreamErrorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into a *StatusError. The message is taken from a known structured body
// when present, then from field errors ({"email": ["already taken"]}), and
// finally from the raw body text.
//
// The caller should only invoke this when resp.StatusCode indicates an error
// (i.e., not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	return &StatusError{
		Service: serviceName,
		Status:  resp.StatusCode,
		Detail:  extractDetail(bodyBytes),
	}
}

func extractDetail(body []byte) string {
	var structured downstreamErrorBody
	if json.Unmarshal(body, &structured) == nil {
		switch {
		case structured.Detail != "":
			return structured.Detail
		case structured.Error != nil && structured.Error.Message != "":
			return structured.Error.Message
		case structured.Message != "":
			return structured.Message
		}
	}

	var fields map[string]any
	if json.Unmarshal(body, &fields) == nil && len(fields) > 0 {
		if msg := fieldMessages(fields); msg != "" {
			return msg
		}
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") {
		// HTML error pages carry nothing useful for the shopper.
		return ""
	}
	return text
}

// fieldMessages flattens {"field": ["msg", ...]} into "field: msg; ..." with
// fields in a stable order.
func fieldMessages(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		switch v := fields[name].(type) {
		case string:
			parts = append(parts, name+": "+v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, name+": "+s)
				}
			}
		}
	}
	return strings.Join(parts, "; ")
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
