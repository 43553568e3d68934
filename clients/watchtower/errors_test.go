package watchtower

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStartError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorNone},
		{"handshake timeout", errors.New("dial tcp: i/o timeout"), ErrorExpected},
		{"negotiation timeout", fmt.Errorf("push channel dial failed: %w", errors.New("context deadline exceeded")), ErrorExpected},
		{"transport reset", errors.New("read tcp: connection reset by peer"), ErrorExpected},
		{"refused while restarting", errors.New("dial tcp 127.0.0.1:8443: connect: connection refused"), ErrorExpected},
		{"401 during token refresh race", errors.New("push channel dial failed (status: 401): websocket: bad handshake"), ErrorExpected},
		{"connection stopped", errors.New("connection stopped during negotiation"), ErrorExpected},
		{"server went away", errors.New("websocket: close 1001 (going away)"), ErrorExpected},
		{"eof mid-handshake", errors.New("unexpected EOF"), ErrorExpected},
		{"tls mismatch", errors.New("x509: certificate signed by unknown authority"), ErrorUnclassified},
		{"protocol violation", errors.New("websocket: duplicate header not allowed: Sec-Websocket-Extensions"), ErrorUnclassified},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyStartError(tc.err); got != tc.want {
				t.Fatalf("classifyStartError(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	want := map[Phase]string{
		Disconnected: "disconnected",
		Connecting:   "connecting",
		Connected:    "connected",
		Reconnecting: "reconnecting",
		Failed:       "failed",
	}
	for phase, s := range want {
		if phase.String() != s {
			t.Fatalf("Phase(%d).String() = %q, want %q", phase, phase.String(), s)
		}
	}
}
