package model

import "time"

// ConnectedEvent is the first SSE event on a live stream.
type ConnectedEvent struct {
	UserID string `json:"user_id"`
}

// HeartbeatEvent keeps idle SSE connections alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent reports a stream-side failure to the client.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
