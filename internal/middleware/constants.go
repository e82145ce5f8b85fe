package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderOrigin is the Origin header name.
	HeaderOrigin = "Origin"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXForwardedFor is the X-Forwarded-For header name.
	HeaderXForwardedFor = "X-Forwarded-For"

	// HeaderXAPIKey is the API key header name. The key is accepted
	// from this header only, never from a query parameter.
	HeaderXAPIKey = "X-API-Key"
)

// ContentTypeJSON is the JSON content type.
const ContentTypeJSON = "application/json"

// Error response constants, shaped like the gateway's response envelope.
const (
	// ErrInvalidAPIKey is the error body for a missing or wrong API key.
	ErrInvalidAPIKey = `{"success":false,"error":"invalid_api_key","message":"invalid API key"}`

	// ErrRateLimitExceeded is the error body for rate limit exceeded.
	ErrRateLimitExceeded = `{"success":false,"error":"rate_limited","message":"rate limit exceeded, try again later"}`

	// ErrRequestEntityTooLarge is the error body for an oversized request body.
	ErrRequestEntityTooLarge = `{"success":false,"error":"request_too_large","message":"request entity too large"}`

	// ErrInternalServerError is the error body for an internal error.
	ErrInternalServerError = `{"success":false,"error":"internal","message":"internal server error"}`
)
