package httpapi

import "time"

// maxBodyBytes bounds JSON request bodies and websocket frames.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes configures the body limit; non-positive restores 1 MiB.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// requestTimeout caps one ask request on top of the gateway's own ceiling.
// Zero leaves it to the gateway.
var requestTimeout time.Duration

// SetRequestTimeout sets the ask timeout (negative is treated as zero).
func SetRequestTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	requestTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added and
// websocket upgrades must be same-origin.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
