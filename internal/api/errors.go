package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultAuthMessage is reported when a login fails without a backend explanation
const DefaultAuthMessage = "invalid credentials"

// AuthError reports a rejected login or registration
type AuthError struct {
	StatusCode int // 0 when the backend was never reached
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FetchError reports any other failed request, network or HTTP status based
type FetchError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// errorResponse is the FastAPI error body. Detail is either a string or a
// list of validation problems.
type errorResponse struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type validationProblem struct {
	Msg string `json:"msg"`
}

// detailMessage extracts the human readable message from an error body, or "" if there is none
func detailMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}

	if len(errResp.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}

		var problems []validationProblem
		if err := json.Unmarshal(errResp.Detail, &problems); err == nil {
			msgs := make([]string, 0, len(problems))
			for _, p := range problems {
				if p.Msg != "" {
					msgs = append(msgs, p.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	return strings.TrimSpace(errResp.Message)
}

// statusMessage falls back to the status line when the body carries nothing useful
func statusMessage(code int, body []byte) string {
	if msg := detailMessage(body); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d %s", code, http.StatusText(code))
}
