package subscription

import (
	"math"
	"slices"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// Sentinel is the last value stored for a fresh subscription.
var Sentinel = math.Inf(1)

// Table maps subscribed handles to the value last delivered for them.
// It is not safe for concurrent use; the bridge engine owns it.
type Table struct {
	values map[wire.Handle]float64

	// order holds the subscribed handles in ascending order.
	order []wire.Handle
}

// NewTable creates an empty subscription table.
func NewTable() *Table {
	return &Table{
		values: make(map[wire.Handle]float64),
	}
}

// Subscribe adds h with the sentinel value. If h is already subscribed its
// stored value is reset to the sentinel.
func (t *Table) Subscribe(h wire.Handle) {
	if _, exists := t.values[h]; !exists {
		i, _ := slices.BinarySearch(t.order, h)
		t.order = slices.Insert(t.order, i, h)
	}
	t.values[h] = Sentinel
}

// Unsubscribe removes h. It reports whether h was subscribed; removing an
// absent handle is a no-op.
func (t *Table) Unsubscribe(h wire.Handle) bool {
	if _, exists := t.values[h]; !exists {
		return false
	}
	delete(t.values, h)
	if i, found := slices.BinarySearch(t.order, h); found {
		t.order = slices.Delete(t.order, i, i+1)
	}
	return true
}

// Clear removes every subscription.
func (t *Table) Clear() {
	clear(t.values)
	t.order = t.order[:0]
}

// Count returns the number of subscriptions.
func (t *Table) Count() int {
	return len(t.order)
}

// Has reports whether h is subscribed.
func (t *Table) Has(h wire.Handle) bool {
	_, ok := t.values[h]
	return ok
}

// LastValue returns the value last stored for h.
func (t *Table) LastValue(h wire.Handle) (float64, bool) {
	v, ok := t.values[h]
	return v, ok
}

// Handles returns the subscribed handles in ascending order.
func (t *Table) Handles() []wire.Handle {
	return slices.Clone(t.order)
}
