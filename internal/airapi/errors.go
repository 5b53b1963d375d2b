package airapi

import (
	"fmt"
	"net/http"
)

// Kind classifies a failed API call. Every failure the client can produce
// falls into exactly one of these; callers branch on Kind, never on status
// codes or message text.
type Kind int

const (
	// KindTransport means the request never completed (DNS failure, refused
	// connection, timeout). The message is the raw failure description.
	KindTransport Kind = iota
	// KindSessionExpired is a 401: the bearer token is no longer accepted.
	KindSessionExpired
	// KindForbidden is a 403: the account may not access the resource.
	KindForbidden
	// KindConflict is a 409: the resource already exists.
	KindConflict
	// KindServer is a 500 from the API.
	KindServer
	// KindUnknown is any other non-2xx status.
	KindUnknown
)

// Error is the typed failure returned by all Client calls.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for transport failures
	Message string // user-displayable text
}

func (e *Error) Error() string { return e.Message }

// Fixed fallback messages used when the API omits error_msg.
const (
	MsgSessionExpired = "Session expired. Please log in again."
	MsgForbidden      = "You do not have permission to access this resource."
	MsgConflict       = "Resource already exists."
	MsgServerError    = "Server error. Please try again later."
)

// statusError maps a non-2xx response to a typed Error. serverMsg is the
// error_msg field from the response envelope and wins over the fallback for
// every status except 401, whose message is always the fixed one.
func statusError(status int, serverMsg string) *Error {
	switch status {
	case http.StatusUnauthorized:
		return &Error{Kind: KindSessionExpired, Status: status, Message: MsgSessionExpired}
	case http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: status, Message: orElse(serverMsg, MsgForbidden)}
	case http.StatusConflict:
		return &Error{Kind: KindConflict, Status: status, Message: orElse(serverMsg, MsgConflict)}
	case http.StatusInternalServerError:
		return &Error{Kind: KindServer, Status: status, Message: orElse(serverMsg, MsgServerError)}
	default:
		msg := orElse(serverMsg, http.StatusText(status))
		return &Error{Kind: KindUnknown, Status: status, Message: fmt.Sprintf("Error: %d - %s", status, msg)}
	}
}

// transportError wraps a failure where no response was received at all.
func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: err.Error()}
}

func orElse(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
