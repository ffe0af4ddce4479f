package llm_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ProviderError is the error payload shape shared by the hosted model
// APIs this package talks to.
type ProviderError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

type ProviderHttpError struct {
	StatusCode int
	Message    string
	ErrorType  string
	RawBody    string
}

func (e *ProviderHttpError) Error() string {
	return fmt.Sprintf("model API error (HTTP %d): %s (Type: %s)", e.StatusCode, e.Message, e.ErrorType)
}

// extractProviderError reads a non-2xx response body and builds a typed
// error with whatever detail the provider returned.
func extractProviderError(resp *http.Response) *ProviderHttpError {
	httpErr := &ProviderHttpError{
		StatusCode: resp.StatusCode,
		Message:    "Unknown error",
		ErrorType:  "unknown",
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return httpErr
	}
	httpErr.RawBody = string(body)

	var providerErr ProviderError
	if err := json.Unmarshal(body, &providerErr); err == nil && providerErr.Error.Message != "" {
		httpErr.Message = providerErr.Error.Message
		httpErr.ErrorType = providerErr.Error.Type
	}

	return httpErr
}
