package prometheus

import (
	"context"
	"fmt"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultPath = "/metrics"
	defaultAddr = "localhost:9180"
)

// Metrics represents the prometheus metrics of a single interface
type Metrics struct {
	addr           string // where to we listen
	path           string
	iface          string
	hostname       string
	extraLabels    []extraLabel
	latencyBuckets []float64

	// store returns the lease store of the interface, if already created
	store func() *lease.Store

	indications *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	leases      prometheus.GaugeFunc

	exporter *exporter
}

type extraLabel struct {
	name  string
	value string
}

// NewMetrics create a new Metrics
func NewMetrics(path, addr string) *Metrics {
	p := path
	if path == "" {
		p = defaultPath
	}
	a := addr
	if addr == "" {
		a = defaultAddr
	}
	return &Metrics{
		path:        p,
		addr:        a,
		extraLabels: []extraLabel{},
	}
}

func (m *Metrics) extraLabelNames() []string {
	names := make([]string, 0, len(m.extraLabels))

	for _, label := range m.extraLabels {
		names = append(names, label.name)
	}

	return names
}

func (m *Metrics) define() {
	if m.latencyBuckets == nil {
		m.latencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}
	}

	extraLabels := m.extraLabelNames()
	constLabels := prometheus.Labels{"iface": m.iface}
	if m.hostname != "" {
		constLabels["hostname"] = m.hostname
	}

	m.indications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "nextpan",
		Name:        "indications_total",
		Help:        "Counter of association and disassociation indications served.",
		ConstLabels: constLabels,
	}, append([]string{"command", "state"}, extraLabels...))

	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "nextpan",
		Name:        "indication_duration_seconds",
		Help:        "Histogram of the time (in seconds) each indication took to serve.",
		Buckets:     m.latencyBuckets,
		ConstLabels: constLabels,
	}, append([]string{"command"}, extraLabels...))

	m.leases = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "nextpan",
		Name:        "leases_active",
		Help:        "Number of short addresses currently bound to devices.",
		ConstLabels: constLabels,
	}, m.activeLeases)
}

func (m *Metrics) activeLeases() float64 {
	if m.store == nil {
		return 0
	}

	s := m.store()
	if s == nil {
		return 0
	}

	n, err := s.Len(context.Background())
	if err != nil {
		return 0
	}

	return float64(n)
}

func (m *Metrics) register(reg prometheus.Registerer) error {
	cs := []prometheus.Collector{m.indications, m.duration, m.leases}
	for i, c := range cs {
		if err := reg.Register(c); err != nil {
			for _, registered := range cs[:i] {
				reg.Unregister(registered)
			}
			return fmt.Errorf("failed to register metrics for %s: %w", m.iface, err)
		}
	}

	return nil
}

func (m *Metrics) unregister(reg prometheus.Registerer) {
	reg.Unregister(m.indications)
	reg.Unregister(m.duration)
	reg.Unregister(m.leases)
}

func (m *Metrics) start() error {
	if m.indications == nil {
		m.define()
	}

	exp, err := acquireExporter(m.addr, m.path)
	if err != nil {
		return err
	}

	if err := m.register(exp.reg); err != nil {
		exp.release()
		return err
	}

	m.exporter = exp

	return nil
}

func (m *Metrics) stop() error {
	if m.exporter == nil {
		return nil
	}

	m.unregister(m.exporter.reg)
	err := m.exporter.release()
	m.exporter = nil

	return err
}
