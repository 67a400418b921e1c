package handler

import "time"

// Response is the standard admin API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// StatsResponse is the body of GET /admin/v1/stats.
type StatsResponse struct {
	Keys          int   `json:"keys"`
	Channels      int   `json:"channels"`
	Subscriptions int   `json:"subscriptions"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// GCResponse is the body of POST /admin/v1/gc/trigger.
type GCResponse struct {
	Purged      int    `json:"purged"`
	TriggeredAt string `json:"triggered_at"`
}
