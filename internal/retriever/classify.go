package retriever

import (
	"errors"
	"strings"
)

// isConnectionError classifies a store error as transport-level (broken
// pipe, closed connection, expired server session) versus any other
// failure. Exposed as a pure function so it is unit-testable in isolation
// (spec §4.4 "Retry of stale connections").
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"use of closed network connection",
		"eof",
		"session expired",
		"i/o timeout",
		"connection closed",
		"server has closed the connection",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
