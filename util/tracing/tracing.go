package tracing

// Context carries the identifiers attached to a request by the tracing middleware.
type Context struct {
	RequestID     string
	RequestSource string
}
