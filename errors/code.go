package errors

// ErrorCode is the machine-readable error identifier returned to clients
type ErrorCode int

// ErrorCode_OK is the code carried by successful responses
const ErrorCode_OK ErrorCode = 0

// General
const (
	ErrorCode_INTERNAL ErrorCode = 1000 + iota
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS
	ErrorCode_PERMISSION_DENIED
	ErrorCode_UNAUTHENTICATED
	ErrorCode_FORBIDDEN
	ErrorCode_INVALID_PAYLOAD
)

// Auth
const (
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000 + iota
	ErrorCode_AUTH_TOKEN_EXPIRED
	ErrorCode_AUTH_INVALID_CREDENTIALS
)

// Sessions and messages
const (
	ErrorCode_SESSION_NOT_FOUND ErrorCode = 3000 + iota
	ErrorCode_MESSAGE_NOT_FOUND
	ErrorCode_MESSAGE_UNRECOGNIZED_ENVELOPE
	ErrorCode_MESSAGE_EMPTY
)

// Sentiment analysis
const (
	ErrorCode_AI_ANALYSIS_FAILED ErrorCode = 4000 + iota
	ErrorCode_AI_QUOTA_EXCEEDED
	ErrorCode_AI_SERVICE_UNAVAILABLE
)

// Batch jobs
const (
	ErrorCode_BATCH_ALREADY_RUNNING ErrorCode = 5000 + iota
	ErrorCode_BATCH_NOT_FOUND
	ErrorCode_BATCH_FINISHED
)

// Integrations
const (
	ErrorCode_INTEGRATION_CALENDAR_FAILED ErrorCode = 6000 + iota
	ErrorCode_INTEGRATION_WEBHOOK_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED
	ErrorCode_OAUTH_STATE_MISMATCH
	ErrorCode_CALENDAR_NOT_LINKED
	ErrorCode_CALENDAR_NOT_CONFIGURED
)

// Database
const (
	ErrorCode_DB_CONNECTION_FAILED ErrorCode = 7000 + iota
	ErrorCode_DB_QUERY_FAILED
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_OK: "OK",

	ErrorCode_INTERNAL:          "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:  "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:         "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:    "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED: "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:   "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:         "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:   "INVALID_PAYLOAD",

	ErrorCode_AUTH_INVALID_TOKEN:       "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:       "AUTH_TOKEN_EXPIRED",
	ErrorCode_AUTH_INVALID_CREDENTIALS: "AUTH_INVALID_CREDENTIALS",

	ErrorCode_SESSION_NOT_FOUND:             "SESSION_NOT_FOUND",
	ErrorCode_MESSAGE_NOT_FOUND:             "MESSAGE_NOT_FOUND",
	ErrorCode_MESSAGE_UNRECOGNIZED_ENVELOPE: "MESSAGE_UNRECOGNIZED_ENVELOPE",
	ErrorCode_MESSAGE_EMPTY:                 "MESSAGE_EMPTY",

	ErrorCode_AI_ANALYSIS_FAILED:     "AI_ANALYSIS_FAILED",
	ErrorCode_AI_QUOTA_EXCEEDED:      "AI_QUOTA_EXCEEDED",
	ErrorCode_AI_SERVICE_UNAVAILABLE: "AI_SERVICE_UNAVAILABLE",

	ErrorCode_BATCH_ALREADY_RUNNING: "BATCH_ALREADY_RUNNING",
	ErrorCode_BATCH_NOT_FOUND:       "BATCH_NOT_FOUND",
	ErrorCode_BATCH_FINISHED:        "BATCH_FINISHED",

	ErrorCode_INTEGRATION_CALENDAR_FAILED: "INTEGRATION_CALENDAR_FAILED",
	ErrorCode_INTEGRATION_WEBHOOK_FAILED:  "INTEGRATION_WEBHOOK_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:    "INTEGRATION_CACHE_FAILED",
	ErrorCode_OAUTH_STATE_MISMATCH:        "OAUTH_STATE_MISMATCH",
	ErrorCode_CALENDAR_NOT_LINKED:         "CALENDAR_NOT_LINKED",
	ErrorCode_CALENDAR_NOT_CONFIGURED:     "CALENDAR_NOT_CONFIGURED",

	ErrorCode_DB_CONNECTION_FAILED: "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:      "DB_QUERY_FAILED",
}

// String returns the stable name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
