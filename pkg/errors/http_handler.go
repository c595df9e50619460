package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError renders err as the standard error envelope. Errors that are not
// AppErrors are reported as INTERNAL_ERROR without leaking their text.
func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
