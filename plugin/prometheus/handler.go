package prometheus

import (
	"context"
	"errors"
	"time"

	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/replacer"
)

// Name returns "prometheus" and implements plugin.Handler
func (p *Plugin) Name() string {
	return "prometheus"
}

// ServeWPAN implements plugin.Handler. It records the indication after
// the rest of the chain served it
func (p *Plugin) ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	start := time.Now()

	err := p.Next.ServeWPAN(ctx, req, resp)

	rep := replacer.GetReplacer(ctx)
	if rep == nil {
		rep = replacer.NewReplacer(ctx, req, resp)
	}

	state := rep.Get("state")
	switch {
	case err == nil:
	case errors.Is(err, coordinator.ErrNoResponse):
		if resp != nil {
			state = "suppressed"
		}
	default:
		state = "error"
	}

	var extraLabelValues []string
	for _, label := range p.Metrics.extraLabels {
		extraLabelValues = append(extraLabelValues, rep.Replace(label.value))
	}

	command := req.Command().String()
	p.Metrics.indications.WithLabelValues(append([]string{command, state}, extraLabelValues...)...).Inc()
	p.Metrics.duration.WithLabelValues(append([]string{command}, extraLabelValues...)...).Observe(time.Since(start).Seconds())

	return err
}
