package http

import (
	"encoding/json"
	"net/http"

	"github.com/datasteward/steward/internal/domain"
)

// envelope is the response shape of every endpoint
type envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Code    string      `json:"code,omitempty"`
}

func writeSuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, envelope{Status: true, Message: message, Data: data})
}

// writeErrorResponse reports err with its raw text as message
func writeErrorResponse(w http.ResponseWriter, err error) {
	code := string(domain.AsAppError(err).Code)
	writeJSON(w, domain.HTTPStatus(err), envelope{Status: false, Message: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, statusCode int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
