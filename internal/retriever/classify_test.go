package retriever

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConnectionErrorClassifiesTransportFailures(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("use of closed network connection"), true},
		{errors.New("session expired, please reconnect"), true},
		{errors.New("record not found"), false},
		{errors.New("invalid query syntax"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isConnectionError(tc.err), "%v", tc.err)
	}
}
