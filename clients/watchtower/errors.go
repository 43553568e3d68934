package watchtower

import "strings"

// ErrorClass is the triage bucket for a connection-start failure.
type ErrorClass int

const (
	ErrorNone ErrorClass = iota
	// ErrorExpected covers the transient causes a healthy deployment
	// produces all day: handshake timeouts, transport drops, a 401 racing a
	// token refresh. Logged at debug and retried quietly.
	ErrorExpected
	// ErrorUnclassified is everything else. Logged at error level and left
	// to the regular backoff loop instead of an ad-hoc retry.
	ErrorUnclassified
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorNone:
		return "none"
	case ErrorExpected:
		return "expected"
	case ErrorUnclassified:
		return "unclassified"
	default:
		return "unknown"
	}
}

// expectedCauses are matched as substrings against the lowercased error
// text. Connection libraries wrap these errors inconsistently, so message
// matching is the only triage that works across all of them.
var expectedCauses = []string{
	"timeout",
	"i/o timeout",
	"connection reset",
	"connection refused",
	"connection stopped",
	"broken pipe",
	"use of closed network connection",
	"unexpected eof",
	"eof",
	"bad handshake",
	"401",
	"websocket: close",
	"context canceled",
	"context deadline exceeded",
}

// classifyStartError triages a connection-start failure. Expected errors are
// the retry-silently bucket; everything unclassified is surfaced to
// operators but still retried on the normal backoff schedule.
func classifyStartError(err error) ErrorClass {
	if err == nil {
		return ErrorNone
	}
	msg := strings.ToLower(err.Error())
	for _, cause := range expectedCauses {
		if strings.Contains(msg, cause) {
			return ErrorExpected
		}
	}
	return ErrorUnclassified
}
