package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

// WriteServiceError maps a ServiceError onto its status and code; anything
// else is reported as an internal error without leaking details.
func WriteServiceError(w http.ResponseWriter, err error) {
	if serr, ok := err.(services.ServiceError); ok {
		WriteJSON(w, serr.Status, ErrorResponse{Message: serr.Message, Code: serr.Code})
		return
	}
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
