package values

type contextKey string

const (
	ContextTracingKey contextKey = "tracing"

	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-ID"
)

// response statuses
const (
	Success        = "success"
	Created        = "created"
	Error          = "error"
	Failed         = "failed"
	SystemErr      = "system_error"
	BadRequestBody = "bad_request_body"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not_allowed"
	NotFound       = "not_found"
	Conflict       = "conflict"
	NotAuthorised  = "not_authorised"
)

const DefaultRequestSource = "web"
