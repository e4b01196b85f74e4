package command

import (
	"encoding/json"
)

// Status is the logical outcome carried in every payload.
type Status string

const (
	StatusOK       Status = "ok"
	StatusError    Status = "error"
	StatusNotFound Status = "not_found"
)

const notFoundMessage = "Endpoint not found"

// Result is the outcome of a dispatch: Ok, Error(message) or NotFound.
type Result struct {
	Status  Status
	Message string
}

// Ok is the successful result.
func Ok() Result {
	return Result{Status: StatusOK}
}

// Error is a failed command with a human readable message.
func Error(message string) Result {
	return Result{Status: StatusError, Message: message}
}

// NotFound is returned for requests that match no route.
func NotFound() Result {
	return Result{Status: StatusNotFound, Message: notFoundMessage}
}

type payload struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// JSON renders the result as the response body.
func (r Result) JSON() []byte {
	p := payload{Status: r.Status}
	if r.Status != StatusOK {
		p.Message = r.Message
	}
	// Marshal of two strings cannot fail
	b, _ := json.Marshal(p)
	return b
}
