// Command lvarbridge-client is an interactive bridge consumer.
//
// It connects to a bridge host, keeps the variable list in sync and lets
// the user watch variables by name.
//
// Usage:
//
//	lvarbridge-client [flags] [name...]
//
// Flags:
//
//	-addr string            Bridge address host:port (browse via mDNS if empty)
//	-browse-timeout dur     How long to browse for a bridge (default 10s)
//	-check-interval dur     Interval between CHECKLVARS polls (default 5s)
//	-log-level string       Log level: debug, info, warn, error (default "warn")
//	-interactive            Start the interactive console (default true)
//
// Names given as arguments are watched from the start. With -interactive=false
// value changes are printed until interrupted.
//
// Examples:
//
//	# Find a bridge on the local network and open the console
//	lvarbridge-client
//
//	# Print heading changes from a known host
//	lvarbridge-client -addr 192.168.1.20:4710 -interactive=false A32NX_AUTOPILOT_HEADING_SELECTED
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lvarbridge/lvarbridge-go/cmd/lvarbridge-client/interactive"
	"github.com/lvarbridge/lvarbridge-go/pkg/consumer"
	"github.com/lvarbridge/lvarbridge-go/pkg/discovery"
	"github.com/lvarbridge/lvarbridge-go/pkg/transport"
)

var (
	addr          = flag.String("addr", "", "Bridge address host:port (browse via mDNS if empty)")
	browseTimeout = flag.Duration("browse-timeout", discovery.BrowseTimeout, "How long to browse for a bridge")
	checkInterval = flag.Duration("check-interval", 5*time.Second, "Interval between CHECKLVARS polls")
	logLevel      = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	interactiveOn = flag.Bool("interactive", true, "Start the interactive console")
)

func main() {
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cancel, level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, level slog.Level) error {
	target := *addr
	if target == "" {
		svc, err := browse(ctx)
		if err != nil {
			return err
		}
		target = svc.DialAddress()
		fmt.Printf("Found %s at %s (capacity %d, scan every %d frames)\n",
			svc.InstanceName, target, svc.Capacity, svc.ScanEvery)
	}

	conn, err := transport.Dial(ctx, target)
	if err != nil {
		return err
	}
	defer conn.Close()

	var out io.Writer = os.Stderr
	var console *interactive.Console
	if *interactiveOn {
		console, err = interactive.New(conn)
		if err != nil {
			return err
		}
		out = console.Stderr()
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	manager := consumer.NewManager(conn, consumer.ManagerConfig{Logger: logger})
	if console != nil {
		console.Attach(manager)
	}

	sessCfg := consumer.DefaultSessionConfig()
	sessCfg.CheckInterval = *checkInterval
	sessCfg.Logger = logger
	session := consumer.NewSession(conn, manager, sessCfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- session.Run(ctx)
	}()

	for _, name := range flag.Args() {
		if console != nil {
			console.Execute("watch " + name)
			continue
		}
		if _, err := manager.AddListener(name, printEvent); err != nil {
			logger.Warn("watch failed", "name", name, "error", err)
		}
	}

	if console != nil {
		go console.Run(ctx, cancel)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func browse(ctx context.Context) (*discovery.BridgeService, error) {
	browser, err := discovery.NewMDNSBrowser(discovery.BrowserConfig{BrowseTimeout: *browseTimeout})
	if err != nil {
		return nil, err
	}
	defer browser.Stop()

	fmt.Println("Browsing for bridges...")
	svc, err := browser.FindFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("no bridge found: %w", err)
	}
	return svc, nil
}

func printEvent(ev consumer.Event) {
	if ev.Err != nil {
		fmt.Printf("%s %s: %v\n", time.Now().Format(time.TimeOnly), ev.Name, ev.Err)
		return
	}
	fmt.Printf("%s %s = %g\n", time.Now().Format(time.TimeOnly), ev.Name, ev.Value)
}
