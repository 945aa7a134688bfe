// Package notify delivers one-time codes to users over an out-of-band
// channel. Delivery failures are classified so callers can distinguish
// connectivity problems from channel rejections.
package notify

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
)

var (
	// ErrDeliveryConnectivity indicates the channel could not be reached
	// at all (dial failure, DNS failure, timeout).
	ErrDeliveryConnectivity = errors.New("notify: delivery channel unreachable")

	// ErrDeliveryFailed indicates the channel was reached but refused or
	// failed to accept the message.
	ErrDeliveryFailed = errors.New("notify: delivery failed")
)

// Channel sends a one-time code to a recipient. Implementations must
// respect the context deadline.
type Channel interface {
	Send(ctx context.Context, recipient string, purpose domain.PasscodePurpose, code string, expiresAt time.Time) error
}

// Classify wraps a raw transport error with the appropriate delivery
// sentinel. Timeouts, DNS failures and dial errors count as
// connectivity; everything else is a channel failure.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrDeliveryConnectivity, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(ErrDeliveryConnectivity, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return errors.Join(ErrDeliveryConnectivity, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Join(ErrDeliveryConnectivity, err)
	}

	return errors.Join(ErrDeliveryFailed, err)
}
