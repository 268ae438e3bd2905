package utils

import (
	"encoding/json"
	"net/http"

	"billing-backend/internal/apperrors"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes err as a JSON body with its machine code. Unrecognized
// errors become 500 INTERNAL_ERROR.
func Error(w http.ResponseWriter, err error) {
	appErr := apperrors.From(err)
	JSON(w, appErr.Status, appErr)
}
