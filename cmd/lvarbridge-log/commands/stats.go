package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}

	// Bridge activity
	Packets        int
	DroppedPackets int
	Entries        int
	Commands       map[string]int
	Ignored        int
	ResponseLines  int
	Scans          int
	Changes        int
	HandleUpdates  map[uint16]int
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	RemoteAddr string
	FramesIn   int
	FramesOut  int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
		Commands:          make(map[string]int),
		HandleUpdates:     make(map[uint16]int),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.ConnectionID != "" {
		conn, ok := s.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			s.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if event.RemoteAddr != "" && conn.RemoteAddr == "" {
			conn.RemoteAddr = event.RemoteAddr
		}
		if event.Frame != nil {
			if event.Direction == log.DirectionIn {
				conn.FramesIn++
			} else {
				conn.FramesOut++
			}
		}
	}

	switch {
	case event.Packet != nil:
		s.Packets++
		if event.Packet.Dropped {
			s.DroppedPackets++
		}
		s.Entries += event.Packet.Count
		for _, h := range event.Packet.Handles {
			s.HandleUpdates[h]++
		}
	case event.Command != nil:
		kind := event.Command.Kind
		if kind == "" {
			kind = "(malformed)"
		}
		s.Commands[kind]++
		if event.Command.Ignored != "" {
			s.Ignored++
		}
	case event.Response != nil:
		s.ResponseLines++
	case event.Scan != nil:
		s.Scans++
		s.Changes += event.Scan.Changed
	case event.Error != nil:
		s.Errors++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== LVar Bridge Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerArea, log.LayerEngine} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryScan, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Bridge Activity:")
	fmt.Fprintf(w, "  Packets:     %d (%d entries, %d dropped)\n", stats.Packets, stats.Entries, stats.DroppedPackets)
	fmt.Fprintf(w, "  Scans:       %d (%d changes)\n", stats.Scans, stats.Changes)
	fmt.Fprintf(w, "  Responses:   %d lines\n", stats.ResponseLines)
	if len(stats.Commands) > 0 {
		kinds := make([]string, 0, len(stats.Commands))
		for k := range stats.Commands {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Fprintf(w, "  Commands:   ")
		for _, k := range kinds {
			fmt.Fprintf(w, " %s=%d", k, stats.Commands[k])
		}
		fmt.Fprintln(w)
		if stats.Ignored > 0 {
			fmt.Fprintf(w, "  Ignored:     %d\n", stats.Ignored)
		}
	}
	if len(stats.HandleUpdates) > 0 {
		fmt.Fprintf(w, "  Handles:     %d updated, busiest %s\n", len(stats.HandleUpdates), busiestHandles(stats.HandleUpdates, 3))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			if c.stats.RemoteAddr != "" {
				fmt.Fprintf(w, "           Remote: %s\n", c.stats.RemoteAddr)
			}
			if c.stats.FramesIn+c.stats.FramesOut > 0 {
				fmt.Fprintf(w, "           Frames: %d in, %d out\n", c.stats.FramesIn, c.stats.FramesOut)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

// busiestHandles formats the n handles with the most updates.
func busiestHandles(updates map[uint16]int, n int) string {
	handles := make([]uint16, 0, len(updates))
	for h := range updates {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		if updates[handles[i]] != updates[handles[j]] {
			return updates[handles[i]] > updates[handles[j]]
		}
		return handles[i] < handles[j]
	})
	if len(handles) > n {
		handles = handles[:n]
	}

	out := ""
	for i, h := range handles {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d(%d)", h, updates[h])
	}
	return out
}
