package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the backend's response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Failure converts err into the uniform failure value {success:false, message}.
func Failure(err error) Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
		var e *Error
		if errors.As(err, &e) && e.Message != "" {
			msg = e.Message
		}
	}
	return Envelope{Success: false, Message: msg}
}

// Decode unwraps an envelope body and decodes its data into T. An envelope
// with success=false yields a KindStatus error carrying the server message.
func Decode[T any](raw json.RawMessage) (T, error) {
	var zero T
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, &Error{Kind: KindDecode, Message: err.Error(), Err: err}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return zero, &Error{Kind: KindStatus, Message: msg}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return zero, nil
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return zero, &Error{Kind: KindDecode, Message: fmt.Sprintf("data: %v", err), Err: err}
	}
	return out, nil
}
