package coordinator

import (
	"errors"
)

var (
	// ErrNoResponse is returned by plugins if no association response
	// should be sent to the device. This may be used by middleware
	// handlers that filtered the indication. It's not an actual error
	ErrNoResponse = errors.New("no response should be sent")
)
