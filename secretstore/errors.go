package secretstore

// ErrNoBaseURL is returned when a session client is constructed without a
// cluster node URL.
var ErrNoBaseURL = &Error{Message: "no secret store base URL provided"}

// ErrNoTransport is returned when an RPC client is constructed without an
// endpoint URL or an already-dialed transport.
var ErrNoTransport = &Error{Message: "no RPC endpoint or transport provided"}

// ErrNotEnoughPortions is returned when a call taking multi-part document key
// material receives an incomplete set of discrete fields.
var ErrNotEnoughPortions = &Error{Message: "not enough document key portions were supplied"}

// ErrNoDocumentKeyParams is returned when a call taking multi-part document
// key material receives neither a structured key nor any discrete fields.
var ErrNoDocumentKeyParams = &Error{Message: "no document key parameters were given"}

// Error is the error surfaced by both secret store clients. Message is the
// human-readable description; Meta carries arbitrary diagnostic context such
// as the request that failed. Meta is never interpreted by the clients.
type Error struct {
	Message string
	Meta    any
}

func (e *Error) Error() string {
	return e.Message
}

// RequestInfo describes the outgoing request attached as Meta to errors
// produced by a failed session call.
type RequestInfo struct {
	Method string
	URL    string
	Body   string
}
