package session

// Failure kinds carried in Failure.Kind.
const (
	KindCommandNotFound      = "command_not_found"
	KindInvalidArgs          = "invalid_args"
	KindUnauthorized         = "unauthorized"
	KindClipboardUnavailable = "clipboard_unavailable"
	KindCommandFailed        = "command_failed"
	KindProtocol             = "protocol"
)

// UnknownRequestID marks failures for frames whose request id could not be read.
const UnknownRequestID = "unknown"
