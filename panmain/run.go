// Package panmain starts the NextPAN coordinator daemon.
package panmain

import (
	"flag"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/events"
)

var (
	conf       string
	classic    classicFlags
	serverType = "wpan"
)

func init() {
	caddy.DefaultConfigFile = "Panfile"
	caddy.Quiet = false

	flag.StringVar(&conf, "conf", "", "Panfile to load (default \""+caddy.DefaultConfigFile+"\")")
	classic.register(flag.CommandLine)

	caddy.RegisterCaddyfileLoader("flag", caddy.LoaderFunc(configLoader))
	caddy.RegisterCaddyfileLoader("classic", caddy.LoaderFunc(classicLoader))
	caddy.SetDefaultCaddyfileLoader("default", caddy.LoaderFunc(defaultLoader))

	caddy.AppName = "NextPAN"
	caddy.AppVersion = "v0.1.0"
}

// Run starts NextPAN, blocks until the daemon stopped and exits the
// process
func Run() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	failed := make(chan *events.ChannelFailure, 1)
	events.RegisterChannelFailureHook("panmain-exit", func(f *events.ChannelFailure) {
		select {
		case failed <- f:
		default:
		}
	})

	panfile, err := caddy.LoadCaddyfile(serverType)
	if err != nil {
		log.Errorf("failed to load configuration: %s", err)
		return dispatch.ExitFailure
	}

	instance, err := caddy.Start(panfile)
	if err != nil {
		log.Errorf("failed to start: %s", err)
		return dispatch.ExitFailure
	}

	// SIGUSR1 dumps the lease database and is handled by the servers.
	// caddy.TrapSignals is not used as it would reload on SIGUSR1
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	stopped := make(chan struct{})
	go func() {
		instance.Wait()
		close(stopped)
	}()

	code := dispatch.ExitOK

	select {
	case sig := <-sigs:
		log.Infof("received %s, shutting down", sig)
	case f := <-failed:
		log.Errorf("%s: giving up: %s", f.Interface, f.Err)
		code = dispatch.ExitChannel
	case <-stopped:
		return code
	}

	for _, err := range instance.ShutdownCallbacks() {
		log.Errorf("shutdown: %s", err)
	}

	if err := instance.Stop(); err != nil {
		log.Errorf("failed to stop: %s", err)
		if code == dispatch.ExitOK {
			code = dispatch.ExitFailure
		}
	}

	return code
}

func configLoader(serverType string) (caddy.Input, error) {
	if conf == "" {
		return nil, nil
	}

	if conf == "stdin" || conf == "-" {
		return caddy.CaddyfileFromPipe(os.Stdin, serverType)
	}

	file, err := ioutil.ReadFile(conf)
	if err != nil {
		return nil, err
	}

	return caddy.CaddyfileInput{
		Contents:       file,
		Filepath:       conf,
		ServerTypeName: serverType,
	}, nil
}

func classicLoader(serverType string) (caddy.Input, error) {
	if classic.iface == "" {
		return nil, nil
	}

	contents, err := classic.panfile()
	if err != nil {
		return nil, err
	}

	return caddy.CaddyfileInput{
		Contents:       contents,
		Filepath:       "command line",
		ServerTypeName: serverType,
	}, nil
}

func defaultLoader(serverType string) (caddy.Input, error) {
	conf = caddy.DefaultConfigFile
	return configLoader(serverType)
}
