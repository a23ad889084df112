// Package interactive provides the interactive command-line interface
// for the bridge consumer.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/lvarbridge/lvarbridge-go/pkg/command"
	"github.com/lvarbridge/lvarbridge-go/pkg/consumer"
)

// Sender sends raw request text to the bridge.
type Sender interface {
	consumer.Channel
	SendText(text string) error
}

// Console handles interactive mode for lvarbridge-client.
type Console struct {
	manager *consumer.Manager
	sender  Sender
	rl      *readline.Instance

	mu      sync.Mutex
	watches map[string]consumer.ListenerID
}

// New creates a new interactive console. Attach a manager before Run.
func New(sender Sender) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lvars> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"),
			readline.PcItem("list"),
			readline.PcItem("sync"),
			readline.PcItem("check"),
			readline.PcItem("watch"),
			readline.PcItem("unwatch"),
			readline.PcItem("values"),
			readline.PcItem("raw"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		sender:  sender,
		rl:      rl,
		watches: make(map[string]consumer.ListenerID),
	}, nil
}

// Attach sets the manager the console watches variables through.
func (c *Console) Attach(manager *consumer.Manager) {
	c.manager = manager
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if c.Execute(line) {
			cancel()
			return
		}
	}
}

// Execute runs one console line and reports whether the console should exit.
func (c *Console) Execute(line string) (quit bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "list", "ls":
		c.cmdList()
	case "sync":
		c.send(command.ListVars())
	case "check":
		c.send(command.CheckVars())
	case "watch", "w":
		c.cmdWatch(args)
	case "unwatch", "u":
		c.cmdUnwatch(args)
	case "values", "v":
		c.cmdValues()
	case "raw":
		c.cmdRaw(strings.TrimSpace(strings.TrimPrefix(input, parts[0])))
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help')\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `Commands:
  list               Show known variables
  sync               Request the full variable list (LISTLVARS)
  check              Ask the bridge to discover new variables (CHECKLVARS)
  watch <name>...    Subscribe and print value changes
  unwatch <name>...  Stop watching
  values             Show last values of watched variables
  raw <text>         Send raw request text
  quit               Exit`)
}

func (c *Console) cmdList() {
	names := c.manager.Names()
	if len(names) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No variables known (try 'sync')")
		return
	}
	for _, name := range names {
		h, _ := c.manager.Handle(name)
		fmt.Fprintf(c.rl.Stdout(), "  %5d  %s\n", h, name)
	}
}

func (c *Console) cmdWatch(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: watch <name>...")
		return
	}

	for _, name := range args {
		c.mu.Lock()
		_, watching := c.watches[name]
		c.mu.Unlock()
		if watching {
			fmt.Fprintf(c.rl.Stdout(), "Already watching %s\n", name)
			continue
		}

		id, err := c.manager.AddListener(name, c.printEvent)
		c.mu.Lock()
		c.watches[name] = id
		c.mu.Unlock()
		if err != nil {
			fmt.Fprintf(c.rl.Stderr(), "watch %s: %v\n", name, err)
		}
	}
}

func (c *Console) cmdUnwatch(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: unwatch <name>...")
		return
	}

	for _, name := range args {
		c.mu.Lock()
		id, ok := c.watches[name]
		delete(c.watches, name)
		c.mu.Unlock()
		if !ok {
			fmt.Fprintf(c.rl.Stdout(), "Not watching %s\n", name)
			continue
		}
		if err := c.manager.RemoveListener(id); err != nil {
			fmt.Fprintf(c.rl.Stderr(), "unwatch %s: %v\n", name, err)
		}
	}
}

func (c *Console) cmdValues() {
	c.mu.Lock()
	names := make([]string, 0, len(c.watches))
	for name := range c.watches {
		names = append(names, name)
	}
	c.mu.Unlock()
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Nothing watched")
		return
	}
	for _, name := range names {
		v, err := c.manager.Value(name)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "  %-40s  (%v)\n", name, err)
			continue
		}
		fmt.Fprintf(c.rl.Stdout(), "  %-40s  %g\n", name, v)
	}
}

func (c *Console) cmdRaw(text string) {
	if text == "" {
		fmt.Fprintln(c.rl.Stdout(), "Usage: raw <text>")
		return
	}
	if err := c.sender.SendText(text); err != nil {
		fmt.Fprintf(c.rl.Stderr(), "send: %v\n", err)
	}
}

func (c *Console) send(cmd command.Command) {
	if err := c.sender.SendCommand(cmd); err != nil {
		fmt.Fprintf(c.rl.Stderr(), "send %s: %v\n", cmd, err)
	}
}

func (c *Console) printEvent(ev consumer.Event) {
	if ev.Err != nil {
		fmt.Fprintf(c.rl.Stdout(), "[%s] %v\n", ev.Name, ev.Err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "[%s] = %g\n", ev.Name, ev.Value)
}
