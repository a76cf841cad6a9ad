package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUsername = "username"
	FieldClientID = "client_id"

	// Chat
	FieldRoom    = "room"
	FieldChannel = "channel"

	// Service
	FieldService = "service"
)
