// Package response writes the JSON envelope used by every API endpoint.
package response

import (
	"encoding/json"
	"net/http"
)

const (
	HeaderUpdateURL           = "X-Update-URL"
	HeaderNewVersionAvailable = "X-New-Version-Available"
	HeaderLatestVersion       = "X-Latest-Version"
)

type successEnvelope struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result"`
}

type errorEnvelope struct {
	Success     bool        `json:"success"`
	ForceUpdate bool        `json:"forceUpdate,omitempty"`
	Error       ErrorDetail `json:"error"`
}

// ErrorDetail is the "error" member of a failed response.
type ErrorDetail struct {
	Code    ErrorCode   `json:"code"`
	Name    string      `json:"name"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError writes an error envelope with the code's status.
// message overrides the default message when not empty.
func RespondWithError(w http.ResponseWriter, code ErrorCode, message string, details ...interface{}) {
	detail := newErrorDetail(code, message, details)
	RespondWithJSON(w, code.HTTPStatus(), errorEnvelope{Error: detail})
}

// Success writes {"success": true, "result": data} with status 200.
func Success(w http.ResponseWriter, data interface{}) {
	RespondWithJSON(w, http.StatusOK, successEnvelope{Success: true, Result: data})
}

// ForceUpdate rejects the request with 426 and APP_UPDATE_REQUIRED.
func ForceUpdate(w http.ResponseWriter, updateURL string, details interface{}) {
	if updateURL != "" {
		w.Header().Set(HeaderUpdateURL, updateURL)
	}
	code := ErrAppUpdateRequired
	RespondWithJSON(w, code.HTTPStatus(), errorEnvelope{
		ForceUpdate: true,
		Error:       newErrorDetail(code, "", []interface{}{details}),
	})
}

// WithNewVersionNotification adds the advisory headers. It must be called
// before the downstream handler writes its status line.
func WithNewVersionNotification(w http.ResponseWriter, latestVersion, updateURL string) {
	h := w.Header()
	h.Set(HeaderNewVersionAvailable, "true")
	if latestVersion != "" {
		h.Set(HeaderLatestVersion, latestVersion)
	}
	if updateURL != "" {
		h.Set(HeaderUpdateURL, updateURL)
	}
}

func newErrorDetail(code ErrorCode, message string, details []interface{}) ErrorDetail {
	if message == "" {
		message = code.Message()
	}
	detail := ErrorDetail{
		Code:    code,
		Name:    code.Name(),
		Message: message,
	}
	if len(details) > 0 && details[0] != nil {
		detail.Details = details[0]
	}
	return detail
}
