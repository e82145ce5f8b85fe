// Package api implements the gateway's HTTP surface: the versioned
// route set, the uniform response envelope, the central store-error
// mapper, identity resolution for protected routes, and the download
// streamer.
package api
