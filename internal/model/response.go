package model

// APIResponse is the envelope every endpoint answers with. Success
// responses carry message + data; failures carry message + errorCode,
// plus data holding the field-error map on validation failures.
type APIResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

func SuccessResponse(message string, data any) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

func ErrorResponse(message, errorCode string) APIResponse {
	return APIResponse{Success: false, Message: message, ErrorCode: errorCode}
}
