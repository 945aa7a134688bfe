package notify

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"deadline", context.DeadlineExceeded, ErrDeliveryConnectivity},
		{"net timeout", timeoutErr{}, ErrDeliveryConnectivity},
		{"dns", &net.DNSError{Err: "no such host", Name: "smtp.invalid"}, ErrDeliveryConnectivity},
		{"dial refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrDeliveryConnectivity},
		{"smtp rejection", errors.New("550 mailbox unavailable"), ErrDeliveryFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.in)
		})
	}
}

func TestSMTPChannelUnreachableHost(t *testing.T) {
	t.Parallel()

	// A listener we immediately close gives us a port nothing accepts on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ch := &SMTPChannel{Addr: addr, From: "noreply@example.com"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = ch.Send(ctx, "alice@example.com", domain.PurposeLogin2FA, "123456", time.Now().Add(5*time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryConnectivity)
}

func TestLogChannelNeverFails(t *testing.T) {
	t.Parallel()

	ch := &LogChannel{}
	err := ch.Send(context.Background(), "alice@example.com", domain.PurposePasswordReset, "654321", time.Now().Add(5*time.Minute))
	assert.NoError(t, err)
}
