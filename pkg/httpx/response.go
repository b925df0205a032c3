package httpx

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope every endpoint replies with.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination reports page/limit bookkeeping for list endpoints.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with optional data.
func WriteSuccess(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Response{Success: true, Message: message, Data: data})
}

// WritePage writes a success envelope carrying a page of results.
func WritePage(w http.ResponseWriter, code int, message string, data any, p Pagination) {
	WriteJSON(w, code, Response{Success: true, Message: message, Data: data, Pagination: &p})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Response{Success: false, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
