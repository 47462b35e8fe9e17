package errors

import (
	"encoding/json"
	"net/http"
)

// APIError is the body of every failed request.
type APIError struct {
	Detail string `json:"detail"`
}

type RateLimitError struct {
	Detail        string `json:"detail"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
