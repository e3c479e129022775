package mac

import "fmt"

// ProtocolError is returned when a received message misses a mandatory
// attribute or carries a malformed one. The message must be dropped
type ProtocolError struct {
	Command   Command
	Attribute Attribute
	Reason    string
}

func (e *ProtocolError) Error() string {
	if e.Attribute == AttrUnspec {
		return fmt.Sprintf("%s: %s", e.Command, e.Reason)
	}

	return fmt.Sprintf("%s: attribute %s %s", e.Command, e.Attribute, e.Reason)
}

func missing(cmd Command, attr Attribute) *ProtocolError {
	return &ProtocolError{Command: cmd, Attribute: attr, Reason: "is missing"}
}

func malformed(cmd Command, attr Attribute, size, want int) *ProtocolError {
	return &ProtocolError{
		Command:   cmd,
		Attribute: attr,
		Reason:    fmt.Sprintf("has %d bytes, expected %d", size, want),
	}
}
