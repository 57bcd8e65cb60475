package response

import (
	"encoding/json"
	"net/http"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
)

// StandardResponse represents the standard API response structure
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse sends a success response with given status code, message, and data
func SuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	SendJSON(w, statusCode, StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends an error response with given status code, code and message
func ErrorResponse(w http.ResponseWriter, statusCode int, code errors.Code, errorMsg string) {
	SendJSON(w, statusCode, StandardResponse{
		Status: "error",
		Error:  errorMsg,
		Code:   string(code),
	})
}

// Error answers with the status, code and details carried by err. Internal
// errors are logged and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	resp := StandardResponse{
		Status: "error",
		Code:   string(errors.CodeOf(err)),
	}

	var appErr *errors.Error
	isApp := errors.As(err, &appErr)
	if status >= http.StatusInternalServerError || !isApp {
		logger.WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed: %v", err)
		resp.Error = "Something went wrong. Please try again later."
		if isApp && appErr.Code == errors.CodeServerMisconfigured {
			resp.Error = "Server is not configured for this request."
		}
		SendJSON(w, status, resp)
		return
	}

	resp.Error = appErr.Message
	if resp.Error == "" {
		resp.Error = appErr.Kind.String()
	}
	resp.Details = appErr.Details
	SendJSON(w, status, resp)
}

// SendJSON encodes and sends a JSON response
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// SendFile writes a binary attachment.
func SendFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Error("Error writing %s: %v", filename, err)
	}
}
