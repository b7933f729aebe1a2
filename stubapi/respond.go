package stubapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopfront/apiclient"
	"shopfront/obs"
)

// requestError is a failure with a status and a client-facing message.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(msg string) error { return &requestError{status: http.StatusBadRequest, message: msg} }
func notFound(msg string) error   { return &requestError{status: http.StatusNotFound, message: msg} }

func writeJSON(w http.ResponseWriter, status int, env apiclient.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	env := apiclient.Envelope{Success: true, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			obs.Logger.Error("encode_response_failed", "error", err)
			writeFail(w, http.StatusInternalServerError, "internal error")
			return
		}
		env.Data = raw
	}
	writeJSON(w, status, env)
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiclient.Envelope{Success: false, Message: message})
}

func writeError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeFail(w, re.status, re.message)
		return
	}
	obs.Logger.Error("request_failed", "error", err)
	writeFail(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}
