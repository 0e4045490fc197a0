package dto

import "time"

// APIResponse is the envelope for every successful response
type APIResponse struct {
	Success   bool         `json:"success" example:"true"`
	Data      interface{}  `json:"data"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewAPIResponse wraps data in a success envelope
func NewAPIResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// SuccessResponse represents a standard message-only payload
type SuccessResponse struct {
	Message string `json:"message" example:"Course deleted successfully"`
}

// HealthResponse reports the state of the service dependencies
type HealthResponse struct {
	Status   string            `json:"status" example:"UP"`
	Checks   map[string]string `json:"checks"`
	Duration string            `json:"duration" example:"1.2ms"`
}
