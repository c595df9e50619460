package http

import (
	"encoding/json"
	"net/http"

	apperrors "carbroker/pkg/errors"
)

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type ListResponse struct {
	Data       any `json:"data"`
	TotalCount int `json:"total_count"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) {
	apperrors.WriteError(w, err)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteAccepted is a success that must not be mistaken for a clean one: the
// body always carries a code and the warning.
func WriteAccepted(w http.ResponseWriter, data any, code, warning string) {
	WriteJSON(w, http.StatusAccepted, SuccessResponse{Data: data, Code: code, Warning: warning})
}

func WriteList(w http.ResponseWriter, data any, totalCount int) {
	WriteJSON(w, http.StatusOK, ListResponse{Data: data, TotalCount: totalCount})
}
