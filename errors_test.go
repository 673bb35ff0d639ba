package uhppote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_KindString(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want string
	}{
		{KindConfiguration, "configuration"},
		{KindTransport, "transport"},
		{KindTimeout, "timeout"},
		{KindProtocol, "protocol"},
		{KindDomain, "domain"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.kind.String())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := newTransportError("failed to connect", cause)
	require.ErrorIs(t, err, cause)
}

func TestDomainError_Is(t *testing.T) {
	require.True(t, errors.Is(ErrCardNotFound, ErrCardNotFound))
	require.False(t, errors.Is(ErrCardNotFound, ErrCardDeleted))
	require.False(t, errors.Is(ErrEventNotFound, ErrCardNotFound))
}
