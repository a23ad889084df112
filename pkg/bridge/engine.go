package bridge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/area"
	"github.com/lvarbridge/lvarbridge-go/pkg/catalog"
	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/log"
	"github.com/lvarbridge/lvarbridge-go/pkg/packet"
	"github.com/lvarbridge/lvarbridge-go/pkg/subscription"
	"github.com/lvarbridge/lvarbridge-go/pkg/throttle"
	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// Engine holds the state of one bridge session.
type Engine struct {
	host Host
	out  Outbound

	catalog    *catalog.Catalog
	table      *subscription.Table
	packetizer *packet.Packetizer
	throttle   *throttle.Throttle

	stats Stats

	logger         *slog.Logger
	protocolLogger log.Logger
}

// NewEngine creates an engine reading from host and writing to out.
func NewEngine(host Host, out Outbound, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	every := config.ScanEvery
	if every == 0 {
		every = throttle.DefaultEvery
	}

	e := &Engine{
		host:           host,
		out:            out,
		catalog:        catalog.New(),
		table:          subscription.NewTable(),
		throttle:       throttle.New(every),
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
	}
	e.packetizer = packet.New(packet.SenderFunc(e.sendPacket))
	return e, nil
}

// OnFrame records one host frame and scans when the throttle fires.
// It reports whether a scan ran.
func (e *Engine) OnFrame() bool {
	e.stats.Frames++
	if !e.throttle.Tick() {
		return false
	}
	e.Scan()
	return true
}

// Scan checks every subscription once and sends the changed values.
// Send failures are logged and the affected packets dropped.
func (e *Engine) Scan() subscription.ScanResult {
	start := time.Now()
	result, err := e.table.Scan(e.host, e.packetizer)

	e.stats.Scans++
	e.stats.Changes += uint64(result.Changed)

	if err != nil {
		e.debugLog("scan: send failed", "error", err)
		e.logError("scan", err)
	}
	if result.Changed > 0 {
		e.logProtocol(log.Event{
			Layer:    log.LayerEngine,
			Category: log.CategoryScan,
			Scan: &log.ScanEvent{
				Subscriptions: result.Checked,
				Changed:       result.Changed,
				Duration:      time.Since(start),
			},
		})
	}
	return result
}

// OnCommand handles the raw contents of the request area. Malformed
// commands are ignored.
func (e *Engine) OnCommand(raw []byte) {
	e.stats.Commands++
	text := wire.DecodeText(raw)

	cmd, err := command.ParseText(text)
	if err != nil {
		e.stats.Ignored++
		e.debugLog("command ignored", "text", text, "error", err)
		e.logProtocol(log.Event{
			Direction: log.DirectionIn,
			Layer:     log.LayerArea,
			Category:  log.CategoryMessage,
			Command:   &log.CommandEvent{Text: text, Ignored: err.Error()},
		})
		return
	}

	ev := &log.CommandEvent{Text: text, Kind: cmd.Kind.String()}
	if cmd.Kind.HasHandle() {
		h := uint16(cmd.Handle)
		ev.Handle = &h
	}
	e.logProtocol(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerArea,
		Category:  log.CategoryMessage,
		Command:   ev,
	})

	if err := e.Apply(cmd); err != nil {
		e.debugLog("command: response failed", "command", cmd.String(), "error", err)
		e.logError("response", err)
	}
}

// Apply executes a parsed command. The returned error reports failed
// response lines; the command itself always takes effect.
func (e *Engine) Apply(cmd command.Command) error {
	switch cmd.Kind {
	case command.KindClear:
		e.table.Clear()
		e.debugLog("subscriptions cleared")
	case command.KindListVars:
		return e.discover(true)
	case command.KindCheckVars:
		return e.discover(false)
	case command.KindSubscribe:
		e.table.Subscribe(cmd.Handle)
		e.debugLog("subscribed", "handle", cmd.Handle)
	case command.KindUnsubscribe:
		if e.table.Unsubscribe(cmd.Handle) {
			e.debugLog("unsubscribed", "handle", cmd.Handle)
		}
	default:
		return fmt.Errorf("%w: %d", command.ErrUnknownCommand, cmd.Kind)
	}
	return nil
}

// Discover queries the host for new variables and dumps the full list when
// any appeared or force is set. It reports whether a dump was written.
func (e *Engine) Discover(force bool) bool {
	before := e.catalog.Len()
	if err := e.discover(force); err != nil {
		e.debugLog("discover: response failed", "error", err)
		e.logError("response", err)
	}
	return force || e.catalog.Len() > before
}

func (e *Engine) discover(force bool) error {
	before := e.catalog.Len()
	emit, added := e.catalog.Discover(e.host, force)

	if added > 0 {
		e.debugLog("variables discovered", "added", added, "total", e.catalog.Len())
		e.logProtocol(log.Event{
			Layer:    log.LayerEngine,
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityCatalog,
				OldState: fmt.Sprintf("%d variables", before),
				NewState: fmt.Sprintf("%d variables", e.catalog.Len()),
			},
		})
	}
	if !emit {
		return nil
	}
	return e.catalog.Dump(responseWriter{e})
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	ps := e.packetizer.Stats()
	s.Packets = ps.Packets
	s.Entries = ps.Entries
	s.Dropped = ps.Dropped
	s.Variables = e.catalog.Len()
	s.Subscriptions = e.table.Count()
	return s
}

// Catalog returns the engine's variable catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Subscriptions returns the engine's subscription table.
func (e *Engine) Subscriptions() *subscription.Table {
	return e.table
}

func (e *Engine) sendPacket(p *wire.Packet) error {
	data, err := p.MarshalBinary()
	if err == nil {
		err = e.out.WriteArea(area.Values, data)
	}

	ev := &log.PacketEvent{Count: p.Len(), Dropped: err != nil}
	for i := 0; i < p.Len(); i++ {
		h, v := p.Entry(i)
		ev.Handles = append(ev.Handles, uint16(h))
		ev.Values = append(ev.Values, v)
	}
	e.logProtocol(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerArea,
		Category:  log.CategoryMessage,
		Packet:    ev,
	})
	return err
}

// responseWriter sends catalog lines to the response area.
type responseWriter struct {
	e *Engine
}

func (w responseWriter) WriteLine(line string) error {
	err := w.e.out.WriteArea(area.Response, wire.EncodeText(line, wire.ResponseAreaSize))
	if err != nil {
		w.e.stats.ResponseErrors++
		return err
	}
	w.e.logProtocol(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerArea,
		Category:  log.CategoryMessage,
		Response:  &log.ResponseEvent{Line: line},
	})
	return nil
}

var _ catalog.LineWriter = responseWriter{}

func (e *Engine) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Engine) logProtocol(event log.Event) {
	if e.protocolLogger == nil {
		return
	}
	event.Timestamp = time.Now()
	e.protocolLogger.Log(event)
}

func (e *Engine) logError(context string, err error) {
	e.logProtocol(log.Event{
		Layer:    log.LayerEngine,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerArea,
			Message: err.Error(),
			Context: context,
		},
	})
}
