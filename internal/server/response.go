package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/scythe504/triplay-backend/internal"
)

// writeResponse wraps data in the timed response envelope.
func writeResponse(w http.ResponseWriter, startTime int64, status int, data any) {
	endTime := time.Now().UnixMilli()
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: startTime,
		RespEndTime:   endTime,
		NetRespTime:   endTime - startTime,
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, startTime int64, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[writeError] internal error: %v", err)
		writeResponse(w, startTime, status, errorBody{Error: "Internal server error"})
		return
	}
	writeResponse(w, startTime, status, errorBody{Error: shortMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, internal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internal.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, internal.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, internal.ErrConflict), errors.Is(err, internal.ErrExhausted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// shortMessage drops the ": kind" suffix added by internal.Errorf.
func shortMessage(err error) string {
	msg := err.Error()
	for _, kind := range []error{internal.ErrNotFound, internal.ErrForbidden, internal.ErrInvalidInput, internal.ErrConflict, internal.ErrExhausted} {
		if trimmed, ok := strings.CutSuffix(msg, ": "+kind.Error()); ok {
			return trimmed
		}
	}
	return msg
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return internal.Errorf(internal.ErrInvalidInput, "invalid JSON body: %v", err)
	}
	return nil
}
