package prometheus

import (
	"net"
	"net/http"
	"sync"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// exporter serves the metrics of all interfaces that share a listen
// address
type exporter struct {
	addr  string
	reg   *prometheus.Registry
	mux   *http.ServeMux
	paths map[string]bool
	srv   *http.Server
	ln    net.Listener
	refs  int
}

var (
	exportersLock sync.Mutex
	exporters     = map[string]*exporter{}
)

// acquireExporter returns the exporter listening on addr and makes sure
// it serves path. The listener is opened on first use
func acquireExporter(addr, path string) (*exporter, error) {
	exportersLock.Lock()
	defer exportersLock.Unlock()

	exp, ok := exporters[addr]
	if !ok {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}

		exp = &exporter{
			addr:  addr,
			reg:   reg,
			mux:   http.NewServeMux(),
			paths: make(map[string]bool),
			ln:    ln,
		}
		exp.srv = &http.Server{Handler: exp.mux}

		go func() {
			if err := exp.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				log.Errorf("prometheus: failed to serve metrics on %s: %s", addr, err)
			}
		}()

		exporters[addr] = exp
	}

	if !exp.paths[path] {
		exp.mux.Handle(path, exp.handler())
		exp.paths[path] = true
	}

	exp.refs++

	return exp, nil
}

func (e *exporter) handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}

// Addr returns the address the exporter is listening on
func (e *exporter) Addr() string {
	return e.ln.Addr().String()
}

// release drops a reference and closes the listener once the exporter
// is no longer used
func (e *exporter) release() error {
	exportersLock.Lock()
	defer exportersLock.Unlock()

	e.refs--
	if e.refs > 0 {
		return nil
	}

	delete(exporters, e.addr)
	return e.srv.Close()
}
