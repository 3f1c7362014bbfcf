package common

// AuthorizationHeaderName carries the staff bearer token on outbound requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName correlates a client call with the server log line.
const RequestIDHeaderName = "X-Request-ID"

// Account statuses assigned by the remote authority.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)
