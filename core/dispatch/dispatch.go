// Package dispatch sends requests over a channel.Channel and hands the
// matching replies, or a stream of indications, to per-command handlers.
package dispatch

import (
	"fmt"
	"io"

	"github.com/nextdhcp/nextpan/core/mac"
)

// Result tells the receive loop how to continue after a message has
// been handled
type Result int

const (
	// Continue keeps receiving, used for multi-part replies and listeners
	Continue Result = iota

	// StopOK ends the exchange successfully
	StopOK

	// StopErr ends the exchange with ErrCommandFailed
	StopErr
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case StopOK:
		return "stop-ok"
	case StopErr:
		return "stop-err"
	}

	return fmt.Sprintf("result(%d)", int(r))
}

type (
	// Params is the parsed form of a command line. Build returns the
	// request to send
	Params interface {
		Build() (mac.Message, error)
	}

	// RequestParams adapts a mac.Request to Params
	RequestParams struct {
		mac.Request
	}

	// Exchange is the per-invocation state handed to handlers
	Exchange struct {
		// Out receives the command output
		Out io.Writer

		// Params holds whatever Parse returned. It is nil for listeners
		Params Params

		// Sequence is the sequence number of the request that has
		// been sent
		Sequence uint32

		// Count is the number of messages handled so far
		Count int
	}

	// Descriptor describes one command of the client tool. Descriptors
	// are created once and never modified
	Descriptor struct {
		// Name is the command name as used on the command line
		Name string

		// Usage lists the arguments of the command
		Usage string

		// Doc is a one line description
		Doc string

		// Help is the detailed help text, if any
		Help string

		// Request is the command id of the request message
		Request mac.Command

		// Response is the command id of the expected reply
		Response mac.Command

		// Listener commands do not send anything and receive every
		// message instead of only Response
		Listener bool

		// Parse validates the command line arguments. It returns
		// ErrHandledLocally if nothing is left to do and a *ParseError
		// for invalid input
		Parse func(args []string) (Params, error)

		// Handle is called for each accepted message
		Handle func(x *Exchange, h mac.Header, p mac.Payload) Result

		// Finish is called once a multi-part reply is complete. If nil
		// the exchange ends with StopOK
		Finish func(x *Exchange) Result
	}
)

// Build implements Params
func (r RequestParams) Build() (mac.Message, error) {
	return r.Encode()
}
