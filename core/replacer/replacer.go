package replacer

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextdhcp/nextpan/core/mac"
)

type (
	// Replacer is capable of replacing variables in a template string
	Replacer interface {
		// Replace replaces all variables in string and returns the result
		Replace(string) string

		// Set adds a custom replacement value
		Set(key string, value Value)

		// Get returns the replacement value for key
		Get(key string) string
	}

	// Message is the indication currently served together with the
	// response that is going to be sent, if any
	Message struct {
		Request  mac.Payload
		Response *mac.AssociateResponse
	}

	// Value is a getter for string represenations of custom
	// fields
	Value interface {
		// Get returns the string represenation for the given
		// msg
		Get(msg *Message) string
	}

	// ValueGetter implements the Value interface and returns a string
	// based on the provided message
	ValueGetter func(msg *Message) string

	// StringValue is a utility method to use string constants for
	// the Value interface
	StringValue string

	// CtxKey is used to store a replace instance in a context value
	CtxKey struct{}

	replacer struct {
		msg                *Message
		customReplacements map[string]Value // a list of custom replacements configured via Set
	}
)

// Get implements the Value interface and calls g itself
func (g ValueGetter) Get(m *Message) string {
	return g(m)
}

// Get implements the Value interface and returns s itself
func (s StringValue) Get(_ *Message) string {
	return string(s)
}

// WithReplacer returns a new context with a replacer instance
func WithReplacer(ctx context.Context, r Replacer) context.Context {
	return context.WithValue(ctx, CtxKey{}, r)
}

// GetReplacer returns the replacer associated with ctx
func GetReplacer(ctx context.Context) Replacer {
	v := ctx.Value(CtxKey{})
	if v == nil {
		return nil
	}

	r, ok := v.(Replacer)
	if !ok {
		panic("replacer.CtxKey used for a none replacer type")
	}
	return r
}

// NewReplacer returns a new replacer instance for the given indication
// and response. resp may be nil
func NewReplacer(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) Replacer {
	if parent := GetReplacer(ctx); parent != nil {
		return parent
	}

	r := &replacer{
		msg: &Message{
			Request:  req,
			Response: resp,
		},
		customReplacements: make(map[string]Value),
	}

	return r
}

func (r *replacer) Set(key string, val Value) {
	r.customReplacements[key] = val
}

func (r *replacer) Get(key string) string {
	// try custom replacements first
	val, ok := r.customReplacements[key]
	if ok {
		return val.Get(r.msg)
	}

	req := r.msg.Request
	resp := r.msg.Response

	if req == nil {
		return ""
	}

	switch key {
	case "event":
		return req.Command().String()

	case "iface":
		return mac.InterfaceName(req)

	case "state":
		return getState(r.msg)
	}

	switch ind := req.(type) {
	case *mac.AssociateIndication:
		switch key {
		case "hwaddr", "addr":
			return ind.Source.String()
		case "capability":
			return ind.Capability.String()
		case "devindex":
			return fmt.Sprintf("%d", ind.DevIndex)
		case "short":
			if resp == nil {
				return ""
			}
			return resp.Short.String()
		case "status":
			if resp == nil {
				return ""
			}
			return resp.Status.String()
		}

	case *mac.DisassociateIndication:
		switch key {
		case "hwaddr":
			if ind.Source.Mode == mac.AddrLong {
				return ind.Source.Hardware.String()
			}
		case "short":
			if ind.Source.Mode == mac.AddrShort {
				return ind.Source.Short.String()
			}
		case "addr":
			return ind.Source.String()
		case "reason":
			return fmt.Sprintf("0x%02x", ind.Reason)
		case "devindex":
			return fmt.Sprintf("%d", ind.DevIndex)
		}
	}

	return ""
}

func getState(msg *Message) string {
	switch msg.Request.(type) {
	case *mac.DisassociateIndication:
		return "released"
	case *mac.AssociateIndication:
		if msg.Response == nil {
			return "unknown"
		}

		switch {
		case msg.Response.Status != mac.StatusSuccess:
			return "denied"
		case msg.Response.Short == mac.ShortUnassigned:
			return "unassigned"
		}

		return "granted"
	}

	return "unknown"
}

// Replace relaces all keys in s with their counterpart. The algorithm below
// is based and mostly copied from
// https://github.com/caddyserver/caddy/blob/master/caddyhttp/httpserver/replacer.go
func (r *replacer) Replace(s string) string {
	// Do not attempt replacements if no placeholder is found.
	if !strings.ContainsAny(s, "{}") {
		return s
	}

	result := ""
Placeholders: // process each placeholder in sequence
	for {
		var idxStart, idxEnd int

		idxOffset := 0
		for { // find first unescaped opening brace
			searchSpace := s[idxOffset:]
			idxStart = strings.Index(searchSpace, "{")
			if idxStart == -1 {
				// no more placeholders
				break Placeholders
			}
			if idxStart == 0 || searchSpace[idxStart-1] != '\\' {
				// preceding character is not an escape
				idxStart += idxOffset
				break
			}
			// the brace we found was escaped
			// search the rest of the string next
			idxOffset += idxStart + 1
		}

		idxOffset = 0
		for { // find first unescaped closing brace
			searchSpace := s[idxStart+idxOffset:]
			idxEnd = strings.Index(searchSpace, "}")
			if idxEnd == -1 {
				// unpaired placeholder
				break Placeholders
			}
			if idxEnd == 0 || searchSpace[idxEnd-1] != '\\' {
				// preceding character is not an escape
				idxEnd += idxOffset + idxStart
				break
			}
			// the brace we found was escaped
			// search the rest of the string next
			idxOffset += idxEnd + 1
		}

		// get a replacement for the unescaped placeholder
		placeholder := unescapeBraces(s[idxStart : idxEnd+1])
		replacement := r.Get(placeholder[1 : len(placeholder)-1])

		// append unescaped prefix + replacement
		result += strings.TrimPrefix(unescapeBraces(s[:idxStart]), "\\") + replacement

		// strip out scanned parts
		s = s[idxEnd+1:]
	}

	// append unscanned parts
	return result + unescapeBraces(s)
}

// unescapeBraces finds escaped braces in s and returns
// a string with those braces unescaped.
func unescapeBraces(s string) string {
	s = strings.Replace(s, "\\{", "{", -1)
	s = strings.Replace(s, "\\}", "}", -1)
	return s
}
