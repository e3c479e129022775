// Package channel defines the control channel between userspace and the
// kernel 802.15.4 MAC. A channel carries unicast replies to our own
// requests and multicast indications on the same receive path.
package channel

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/nextdhcp/nextpan/core/mac"
)

// ErrClosed is returned by Send and Receive after Close has been called
var ErrClosed = errors.New("channel closed")

// Channel is a duplex message bus to the kernel. Only one goroutine
// may call Receive at a time
type Channel interface {
	// NextSequence returns the sequence number the next call to Send
	// will use
	NextSequence() uint32

	// Send sends m as a unicast request and returns the sequence number
	// that has been assigned to it
	Send(ctx context.Context, m mac.Message) (uint32, error)

	// Receive blocks until the next message arrives or ctx is done.
	// A *KernelError reports a negative acknowledgement for one of our
	// requests and does not break the channel
	Receive(ctx context.Context) (mac.Message, error)

	// Close releases all resources held by the channel
	Close() error
}

// KernelError is an error reply the kernel sent for one of our requests
type KernelError struct {
	// Sequence is the sequence number of the failed request
	Sequence uint32

	// Errno is the error reported by the kernel
	Errno syscall.Errno
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("kernel rejected request %d: %s", e.Sequence, e.Errno.Error())
}

// Unwrap returns the errno so errors.Is works with syscall constants
func (e *KernelError) Unwrap() error {
	return e.Errno
}

// IsKernelError returns true if err is a *KernelError
func IsKernelError(err error) bool {
	var ke *KernelError
	return errors.As(err, &ke)
}
