package catalog

import (
	"errors"
	"fmt"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// NameResolver looks up the name of a host variable by handle.
// ok is false when no variable exists at h; that ends a discovery pass.
type NameResolver interface {
	ResolveNameAt(h wire.Handle) (name string, ok bool)
}

// LineWriter sends one response line to the consumer.
type LineWriter interface {
	WriteLine(line string) error
}

// ResolverFunc adapts a function to the NameResolver interface.
type ResolverFunc func(h wire.Handle) (string, bool)

// ResolveNameAt calls f(h).
func (f ResolverFunc) ResolveNameAt(h wire.Handle) (string, bool) {
	return f(h)
}

// Catalog maps handles to variable names and back.
// It is not safe for concurrent use; the bridge engine owns it.
type Catalog struct {
	names []string
	index map[string]wire.Handle
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		index: make(map[string]wire.Handle),
	}
}

// Len returns the number of discovered variables. It is also the next
// handle discovery will query.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Name returns the name of handle h.
func (c *Catalog) Name(h wire.Handle) (string, bool) {
	if int(h) >= len(c.names) {
		return "", false
	}
	return c.names[h], true
}

// Lookup returns the handle of the variable called name. If the host
// reported the same name twice, the first handle wins.
func (c *Catalog) Lookup(name string) (wire.Handle, bool) {
	h, ok := c.index[name]
	return h, ok
}

// Names returns a copy of all names in handle order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Discover queries the host for variables beyond the current catalog size and
// appends every one it finds. It stops at the first handle the host does not
// know, or when the handle space is exhausted.
//
// emit reports whether a list dump should follow: true if at least one new
// variable was found or forceEmit is set.
func (c *Catalog) Discover(r NameResolver, forceEmit bool) (emit bool, added int) {
	for next := len(c.names); next <= wire.MaxHandle; next++ {
		name, ok := r.ResolveNameAt(wire.Handle(next))
		if !ok {
			break
		}
		c.append(name)
		added++
	}
	return added > 0 || forceEmit, added
}

func (c *Catalog) append(name string) {
	h := wire.Handle(len(c.names))
	c.names = append(c.names, name)
	if _, exists := c.index[name]; !exists {
		c.index[name] = h
	}
}

// Dump writes the full variable list: the start sentinel, one line per
// variable in handle order and the end sentinel. A failed line does not stop
// the dump; all failures are returned together.
func (c *Catalog) Dump(w LineWriter) error {
	var errs []error

	if err := w.WriteLine(wire.ListStart); err != nil {
		errs = append(errs, fmt.Errorf("list start: %w", err))
	}
	for h, name := range c.names {
		if err := w.WriteLine(name); err != nil {
			errs = append(errs, fmt.Errorf("variable %d: %w", h, err))
		}
	}
	if err := w.WriteLine(wire.ListEnd); err != nil {
		errs = append(errs, fmt.Errorf("list end: %w", err))
	}

	return errors.Join(errs...)
}
