package main

import (
	"context"
	"log/slog"

	"github.com/lvarbridge/lvarbridge-go/cmd/lvarbridge-client/interactive"
	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/consumer"
)

// localConsole runs the bridge and an interactive consumer in one process.
// Both sides share an area.Hub instead of a TCP server.
type localConsole struct {
	hub     *area.Hub
	conn    *consumer.LocalConn
	console *interactive.Console
}

func newLocalConsole() (*localConsole, error) {
	hub := area.NewHub()
	conn := consumer.NewLocalConn(hub)

	console, err := interactive.New(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &localConsole{hub: hub, conn: conn, console: console}, nil
}

// start runs the consumer session and the console. The bridge must have
// registered its areas on the hub first. The returned channel reports the
// session result.
func (l *localConsole) start(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) <-chan error {
	manager := consumer.NewManager(l.conn, consumer.ManagerConfig{Logger: logger})
	l.console.Attach(manager)

	sessCfg := consumer.DefaultSessionConfig()
	sessCfg.Logger = logger
	session := consumer.NewSession(l.conn, manager, sessCfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- session.Run(ctx)
	}()
	go l.console.Run(ctx, cancel)
	return errCh
}

func (l *localConsole) close() {
	_ = l.conn.Close()
}
