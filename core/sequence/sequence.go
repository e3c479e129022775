// Package sequence correlates replies with the request that caused them.
//
// Unicast replies carry the sequence number of their request. Multicast
// messages (events) are not sent in reply to anything and are never
// subject to correlation.
package sequence

import (
	"fmt"

	"github.com/nextdhcp/nextpan/core/mac"
)

// Verdict is the result of classifying a message
type Verdict int

const (
	// Exempt messages were delivered through a multicast group and
	// are not part of an exchange
	Exempt Verdict = iota

	// Accepted messages belong to the current exchange
	Accepted

	// Rejected messages carry an unexpected sequence number
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Exempt:
		return "exempt"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}

	return fmt.Sprintf("verdict(%d)", int(v))
}

// SequenceMismatchError describes a rejected message
type SequenceMismatchError struct {
	Expected uint32
	Got      uint32
	Command  mac.Command
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("sequence number mismatch for %s: expected %d, got %d", e.Command, e.Expected, e.Got)
}

// Correlator tracks the sequence number expected for the next unicast
// message. It is not safe for concurrent use
type Correlator struct {
	expected uint32
}

// New returns a correlator expecting start
func New(start uint32) *Correlator {
	return &Correlator{expected: start}
}

// Expected returns the sequence number the next unicast message must carry
func (c *Correlator) Expected() uint32 {
	return c.expected
}

// Classify decides whether the message described by h belongs to the
// current exchange. An accepted message advances the expected sequence
// number unless it is followed by further parts of the same reply
func (c *Correlator) Classify(h mac.Header) Verdict {
	if h.Multicast {
		return Exempt
	}

	if h.Sequence != c.expected {
		return Rejected
	}

	if !h.Multipart() {
		c.expected++
	}

	return Accepted
}

// Mismatch returns the error describing why h has been rejected
func (c *Correlator) Mismatch(h mac.Header) error {
	return &SequenceMismatchError{
		Expected: c.expected,
		Got:      h.Sequence,
		Command:  h.Command,
	}
}
