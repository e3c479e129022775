package log

import (
	"context"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/mac"
)

// Logger is the logging interface used throughout nextpan
type Logger = log.Interface

type requestFieldsKey struct{}

// AddIndicationFields returns a new context.Context that carries log fields
// describing the indication p
func AddIndicationFields(parent context.Context, p mac.Payload) context.Context {
	fields := log.Fields{
		"command": p.Command().String(),
	}

	switch ind := p.(type) {
	case *mac.AssociateIndication:
		fields["iface"] = ind.Interface
		fields["hwaddr"] = ind.Source.String()
		fields["capability"] = ind.Capability.String()
	case *mac.DisassociateIndication:
		fields["iface"] = ind.Interface
		fields["addr"] = ind.Source.String()
		fields["reason"] = ind.Reason
	default:
		if name := mac.InterfaceName(p); name != "" {
			fields["iface"] = name
		}
	}

	return context.WithValue(parent, requestFieldsKey{}, fields)
}

// With returns l enriched with the indication fields stored in ctx
func With(ctx context.Context, l Logger) Logger {
	if fields, ok := ctx.Value(requestFieldsKey{}).(log.Fields); ok {
		return l.WithFields(fields)
	}

	return l
}

// GetLogger returns the logger a plugin should use for the server block
// currently parsed by c
func GetLogger(c *caddy.Controller, plugin string) Logger {
	fields := log.Fields{
		"plugin": plugin,
	}

	if c != nil && c.Key != "" {
		fields["iface"] = c.Key
	}

	return log.Log.WithFields(fields)
}
