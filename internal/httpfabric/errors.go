package httpfabric

import "fmt"

// ErrorKind classifies a failed request per spec.md §4.1's exhaustive taxonomy.
type ErrorKind string

const (
	// ErrorKindBadRequest is HTTP 400 (Lucene/DSL syntax faults). Not retried.
	ErrorKindBadRequest ErrorKind = "bad_request"
	// ErrorKindAuth is HTTP 401/403. Not retried.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindServer is HTTP 5xx. Retried up to max_retries.
	ErrorKindServer ErrorKind = "server"
	// ErrorKindTimeout is a connect or read deadline. Not retried by default.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindConnection is a transport failure before any response. Retried.
	ErrorKindConnection ErrorKind = "connection"
	// ErrorKindTransport is an unexpected failure. Retried once, then surfaced.
	ErrorKindTransport ErrorKind = "transport"
)

// Error is the structured failure returned by Client.Do on a non-success outcome.
type Error struct {
	Kind    ErrorKind
	Message string
	// Attempts is the number of attempts actually made before giving up.
	Attempts int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether the fabric's retry loop should try again for this kind.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindServer, ErrorKindConnection:
		return true
	default:
		return false
	}
}
