package apierror

import "net/http"

type HTTPPart struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error is the JSON body of every non-2xx response.
type Error struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	HTTP    HTTPPart       `json:"http"`
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) StatusCode() int {
	return e.HTTP.Code
}

func NewAPIError(msg string, status int) Error {
	return Error{
		Message: msg,
		HTTP: HTTPPart{
			Code:    status,
			Message: http.StatusText(status),
		},
	}
}

func BadRequest(reason string) Error {
	return NewAPIError("invalid request", http.StatusBadRequest).WithDetail("reason", reason)
}

func Unavailable(msg string) Error {
	return NewAPIError(msg, http.StatusServiceUnavailable)
}

func Internal(msg string) Error {
	return NewAPIError(msg, http.StatusInternalServerError)
}

// WithDetail returns a copy of e with key set in its details.
func (e Error) WithDetail(key string, value any) Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}
