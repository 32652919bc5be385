package errors

// Response is the unified error envelope the delivery layer serializes for
// non-OAuth endpoints.
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries the business error code and optional detail text.
type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}
