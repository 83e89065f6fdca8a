package protocol

// Error codes carried in ErrorShape.Code and in HTTP error bodies.
const (
	ErrBadRequest             = "BAD_REQUEST"
	ErrUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
	ErrUpstreamMalformed      = "UPSTREAM_MALFORMED"
	ErrLocalCapabilityMissing = "LOCAL_CAPABILITY_MISSING"

	ErrUnauthorized      = "UNAUTHORIZED"
	ErrNotFound          = "NOT_FOUND"
	ErrNoSession         = "NO_SESSION"
	ErrResourceExhausted = "RESOURCE_EXHAUSTED"
	ErrInternal          = "INTERNAL"
)

// IsRetryable reports whether a user may usefully re-trigger the action
// that produced the given code.
func IsRetryable(code string) bool {
	switch code {
	case ErrUpstreamUnavailable, ErrUpstreamMalformed, ErrResourceExhausted:
		return true
	}
	return false
}
