package models

import "fmt"

// AIError is the error payload most vendors return on non-2xx responses.
type AIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code,omitempty"`
	} `json:"error"`
}

// APIError reports a failed provider call.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API request failed with status code '%d'", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API request failed with status code '%d' - %s", e.Provider, e.StatusCode, e.Message)
}
