package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/events"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/replacer"
)

// DumpTimeout limits how long a lease dump may take
var DumpTimeout = 10 * time.Second

// Server coordinates a single 802.15.4 interface. It answers association
// indications with short addresses taken from the lease store of its
// configuration and frees them again on disassociation
type Server struct {
	cfg *Config

	ctx    context.Context
	cancel context.CancelFunc

	wake          chan struct{}
	dumpRequested atomic.Bool

	serving      atomic.Bool
	done         chan struct{}
	shutdownOnce sync.Once
}

// NewServer returns a new coordinator server that compiles all plugins in to it
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("no lease store configured for %s", cfg.Interface)
	}

	if cfg.chain == nil {
		if err := buildMiddlewareChain(cfg); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	return s, nil
}

// Serve is a NO-OP as stream listeners are not used by the coordinator.
// It implements the caddy.TCPServer interface
func (s *Server) Serve(l net.Listener) error {
	return nil
}

// Listen does nothing. It implements the caddy.TCPServer interface
func (s *Server) Listen() (net.Listener, error) {
	return nil, nil
}

// ListenPacket opens the control channel of the interface. This
// implements the caddy.UDPServer interface
func (s *Server) ListenPacket() (net.PacketConn, error) {
	ch, err := s.cfg.Dial()
	if err != nil {
		return nil, err
	}

	return NewConn(s.cfg.Interface, ch), nil
}

// ServePacket serves indications received on c. It blocks until the
// server is stopped or the control channel failed. This implements the
// caddy.UDPServer interface
func (s *Server) ServePacket(c net.PacketConn) error {
	conn, ok := c.(*Conn)
	if !ok {
		return errors.New("expected coordinator.Conn")
	}

	if s.serving.Swap(true) {
		return errors.New("server already serving")
	}
	defer close(s.done)
	defer s.shutdown()
	defer conn.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1)
	defer signal.Stop(sigs)

	go func() {
		for {
			select {
			case <-sigs:
				s.cfg.Logger.Infof("received SIGUSR1")
				s.RequestDump()
			case <-s.ctx.Done():
				return
			}
		}
	}()

	err := dispatch.Serve(s.ctx, conn.Channel(), dispatch.ServeOptions{
		Interface: s.cfg.Interface,
		Handler:   s,
		Wake:      s.wake,
		AfterEach: s.dumpIfRequested,
		Log:       s.cfg.Logger,
	})

	if err != nil && conn.Closed() && errors.Is(err, channel.ErrClosed) {
		// closed by caddy during shutdown
		err = nil
	}

	if err != nil {
		s.cfg.Logger.Errorf("control channel failed: %s", err)
		events.EmitChannelFailure(s.cfg.Interface, err)
		return err
	}

	return nil
}

// RequestDump asks the serve loop to write all active leases to the
// database. The dump is performed at the beginning of the next loop
// iteration
func (s *Server) RequestDump() {
	s.dumpRequested.Store(true)

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop stops the serve loop and writes a final dump of all leases. It
// implements the caddy.Stopper interface
func (s *Server) Stop() error {
	s.cancel()

	if s.serving.Load() {
		<-s.done
	}

	s.shutdown()

	return nil
}

// Address returns the name of the served interface. It implements the
// caddy.GracefulServer interface
func (s *Server) Address() string {
	return s.cfg.Interface
}

// WrapListener returns ln unchanged. It implements the
// caddy.GracefulServer interface
func (s *Server) WrapListener(ln net.Listener) net.Listener {
	return ln
}

// OnStartupComplete is called when all serves of the same instance have
// been started. It implements the caddy.AfterStarup interface
func (s *Server) OnStartupComplete() {
	info := getStartupInfo([]*Config{s.cfg})
	if info != "" {
		// Print not Println because info contains a trailing new line
		fmt.Print(info)
	}
}

// ServeIndication runs ind through the middleware chain and returns the
// association response to send, if any. It implements
// dispatch.IndicationHandler
func (s *Server) ServeIndication(ctx context.Context, ind mac.Payload) (resp mac.Request, err error) {
	// In any case we must not panic while serving indications
	defer func() {
		if x := recover(); x != nil {
			s.cfg.Logger.Errorf("Caught panic while serving %s", ind.Command())
			s.cfg.Logger.Errorf("\t%v", x)
			s.cfg.Logger.Errorf("%s", debug.Stack())

			resp = nil
			err = fmt.Errorf("panic: %v", x)
		}
	}()

	ctx = log.AddIndicationFields(ctx, ind)
	ctx = lease.WithStore(ctx, s.cfg.Store)

	var assocResp *mac.AssociateResponse
	if a, ok := ind.(*mac.AssociateIndication); ok {
		assocResp = &mac.AssociateResponse{
			Interface: a.Interface,
			DevIndex:  a.DevIndex,
			Status:    mac.StatusSuccess,
			Dest:      a.Source,
			Short:     mac.ShortUnassigned,
		}
	}

	ctx = replacer.WithReplacer(ctx, replacer.NewReplacer(ctx, ind, assocResp))

	l := log.With(ctx, s.cfg.Logger)
	l.Debugf("-> %s", ind.Command())

	err = s.cfg.chain.ServeWPAN(ctx, ind, assocResp)
	if errors.Is(err, ErrNoResponse) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if assocResp == nil {
		return nil, nil
	}

	l.Debugf("<- %s short %s status %s", assocResp.Command(), assocResp.Short, assocResp.Status)

	return assocResp, nil
}

func (s *Server) dumpIfRequested() {
	if s.dumpRequested.Swap(false) {
		s.dump()
	}
}

func (s *Server) dump() {
	ctx, cancel := context.WithTimeout(context.Background(), DumpTimeout)
	defer cancel()

	n, err := s.cfg.Database.Dump(ctx, s.cfg.Store)
	if err != nil {
		s.cfg.Logger.Errorf("failed to dump leases: %s", err)
		return
	}

	s.cfg.Logger.Infof("dumped %d leases", n)
}

func (s *Server) shutdown() {
	s.shutdownOnce.Do(func() {
		s.cancel()

		if s.cfg.Database == nil {
			return
		}

		s.dump()

		if err := s.cfg.Database.Close(); err != nil {
			s.cfg.Logger.Errorf("failed to close database: %s", err)
		}
	})
}

// Compile-Time check
var (
	_ caddy.GracefulServer       = &Server{}
	_ caddy.AfterStartup         = &Server{}
	_ dispatch.IndicationHandler = &Server{}
)
