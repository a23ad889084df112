// Command lvarbridge-host is a reference bridge host.
//
// It runs the bridge engine against a simulated variable namespace and
// publishes the bridge areas over TCP, optionally advertising itself via mDNS.
// With -local the areas stay in process and an interactive console consumes
// them directly, with no network involved.
//
// Usage:
//
//	lvarbridge-host [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-listen string        Listen address (default ":4710")
//	-scan-every int       Frames between change scans (default 4)
//	-frame-rate int       Simulated frames per second (default 30)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  File path for protocol event logging (CBOR format)
//	-advertise            Advertise the bridge via mDNS
//	-instance string      mDNS instance name
//	-local                Run an interactive console in process instead of serving TCP
//
// Examples:
//
//	# Start with the built-in demo namespace
//	lvarbridge-host
//
//	# Start from a config file, advertise, record a protocol log
//	lvarbridge-host -config bridge.yaml -advertise -protocol-log bridge.lblog
//
//	# Try the bridge without a network connection
//	lvarbridge-host -local
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/bridge"
	"github.com/lvarbridge/lvarbridge-go/pkg/config"
	"github.com/lvarbridge/lvarbridge-go/pkg/discovery"
	lblog "github.com/lvarbridge/lvarbridge-go/pkg/log"
	"github.com/lvarbridge/lvarbridge-go/pkg/sim"
	"github.com/lvarbridge/lvarbridge-go/pkg/transport"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

var (
	configFile  = flag.String("config", "", "Configuration file path (YAML)")
	listen      = flag.String("listen", "", "Listen address (default \":4710\")")
	scanEvery   = flag.Int("scan-every", 0, "Frames between change scans (default 4)")
	frameRate   = flag.Int("frame-rate", 0, "Simulated frames per second (default 30)")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error (default \"info\")")
	protocolLog = flag.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
	advertise   = flag.Bool("advertise", false, "Advertise the bridge via mDNS")
	instance    = flag.String("instance", "", "mDNS instance name")
	localMode   = flag.Bool("local", false, "Run an interactive console in process instead of serving TCP")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stderr
	var local *localConsole
	if *localMode {
		local, err = newLocalConsole()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out = local.console.Stderr()
	}

	logger, err := setupLogging(cfg, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger, local); err != nil {
		logger.Error("bridge host failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Transport.Listen = *listen
		case "scan-every":
			cfg.Bridge.ScanEvery = *scanEvery
		case "frame-rate":
			cfg.Bridge.FrameRate = *frameRate
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "protocol-log":
			cfg.Logging.ProtocolLog = *protocolLog
		case "advertise":
			cfg.Discovery.Advertise = *advertise
		case "instance":
			cfg.Discovery.Instance = *instance
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if level <= slog.LevelDebug {
		opts.AddSource = true
	}
	return slog.New(slog.NewTextHandler(out, opts)), nil
}

func run(cfg *config.Config, logger *slog.Logger, local *localConsole) error {
	vars, err := cfg.Variables()
	if err != nil {
		return err
	}
	ns, err := sim.NewNamespace(vars...)
	if err != nil {
		return fmt.Errorf("create namespace: %w", err)
	}

	// Protocol events go to the CBOR file when requested and to the debug log.
	var protocolLogger lblog.Logger = lblog.NewSlogAdapter(logger)
	var fileLogger *lblog.FileLogger
	if cfg.Logging.ProtocolLog != "" {
		fileLogger, err = lblog.NewFileLogger(cfg.Logging.ProtocolLog)
		if err != nil {
			return err
		}
		defer fileLogger.Close()
		protocolLogger = lblog.NewMultiLogger(fileLogger, protocolLogger)
		logger.Info("protocol logging enabled", "path", cfg.Logging.ProtocolLog)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var registry area.Registry
	var server *transport.Server
	if local != nil {
		defer local.close()
		registry = local.hub
		logger.Info("running with in-process console")
	} else {
		server, err = startServer(ctx, cfg, protocolLogger, logger)
		if err != nil {
			return err
		}
		defer server.Stop()
		registry = server
	}

	frames := make(chan struct{})
	svcCfg := cfg.ServiceConfig()
	svcCfg.Frames = frames
	svcCfg.Logger = logger
	svcCfg.ProtocolLogger = protocolLogger

	svc, err := bridge.NewService(ns, registry, svcCfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	logger.Info("bridge started", "state", svc.State(), "variables", ns.Len())

	go driveFrames(ctx, ns, frames, time.Second/time.Duration(cfg.Bridge.FrameRate))

	var sessionErr <-chan error
	if local != nil {
		sessionErr = local.start(ctx, cancel, logger)
	} else if cfg.Discovery.Advertise {
		adv, err := startAdvertising(ctx, cfg, server.Addr(), logger)
		if err != nil {
			logger.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer adv.Stop()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-svc.Done():
		logger.Warn("bridge loop ended")
	case <-ctx.Done():
		logger.Info("console closed")
	case err := <-sessionErr:
		if err != nil {
			logger.Warn("local session ended", "error", err)
		}
	}

	stats := svc.Stats()
	if err := svc.Stop(); err != nil {
		logger.Warn("stop bridge", "error", err)
	}
	logger.Info("bridge stopped",
		"frames", stats.Frames,
		"scans", stats.Scans,
		"changes", stats.Changes,
		"commands", stats.Commands,
		"ignored", stats.Ignored,
		"packets", stats.Packets,
		"dropped", stats.Dropped,
	)
	return nil
}

func startServer(ctx context.Context, cfg *config.Config, protocolLogger lblog.Logger, logger *slog.Logger) (*transport.Server, error) {
	srvCfg := cfg.ServerConfig()
	srvCfg.Logger = protocolLogger
	srvCfg.OnConnect = func(c *transport.ServerConn) {
		logger.Info("consumer connected", "conn", c.ConnID(), "remote", c.RemoteAddr())
	}
	srvCfg.OnDisconnect = func(c *transport.ServerConn) {
		logger.Info("consumer disconnected", "conn", c.ConnID())
	}
	srvCfg.OnError = func(c *transport.ServerConn, err error) {
		if c == nil {
			logger.Warn("listener error", "error", err)
			return
		}
		logger.Warn("connection error", "conn", c.ConnID(), "error", err)
	}

	server := transport.NewServer(srvCfg)
	if err := server.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transport: %w", err)
	}
	logger.Info("listening", "addr", server.Addr().String())
	return server, nil
}

// driveFrames advances the simulation and hands one frame to the bridge per
// tick, so the namespace and the scanner see the same frame.
func driveFrames(ctx context.Context, ns *sim.Namespace, frames chan<- struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ns.Advance()
			select {
			case frames <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func startAdvertising(ctx context.Context, cfg *config.Config, addr net.Addr, logger *slog.Logger) (*discovery.MDNSAdvertiser, error) {
	advCfg := cfg.AdvertiserConfig()
	advCfg.Logger = logger

	adv, err := discovery.NewMDNSAdvertiser(advCfg)
	if err != nil {
		return nil, err
	}

	port := discovery.DefaultPort
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	} else if _, p, err := net.SplitHostPort(addr.String()); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	host := cfg.Simulation.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	info := &discovery.BridgeInfo{
		Instance:  cfg.Discovery.Instance,
		Port:      uint16(port),
		Capacity:  wire.PacketCapacity,
		ScanEvery: uint16(cfg.Bridge.ScanEvery),
		Host:      host,
	}
	if err := adv.Advertise(ctx, info); err != nil {
		return nil, err
	}
	logger.Info("advertising via mDNS", "instance", info.InstanceName(), "port", port)
	return adv, nil
}
