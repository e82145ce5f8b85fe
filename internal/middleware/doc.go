// Package middleware provides the HTTP middleware pipeline for the
// store gateway.
//
// Middleware functions follow the standard Go pattern:
//
//	handler := middleware.RequestID()(
//	    middleware.APIKey(key)(
//	        middleware.CORS(cfg)(yourHandler),
//	    ),
//	)
//
// The gateway applies them in a fixed order to every versioned API
// route: API-key check, CORS and security headers, flood guard, per-class
// rate limiting, body-size limiting, structured logging. Rejections
// short-circuit the chain.
package middleware
