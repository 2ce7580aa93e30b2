package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type MessageResponse struct {
	Message   string `json:"message"`
	ConcertID string `json:"concert_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	TicketID  string `json:"ticket_id,omitempty"`
}

func SendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func SendDetail(w http.ResponseWriter, status int, detail string) {
	SendJSON(w, status, ErrorResponse{Detail: detail})
}
