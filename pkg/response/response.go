package response

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, APIResponse{
		Status: "success",
		Data:   data,
	})
}

// Error writes the error envelope; details may be a string, a field->reason map, or nil.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string, details interface{}) {
	render.Status(r, status)
	render.JSON(w, r, APIResponse{
		Status:    "error",
		Message:   msg,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
