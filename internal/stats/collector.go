// Package stats exposes cache observability hooks.
package stats

// Collector receives cache events for export. Implementations must be
// safe for concurrent use; a no-op collector is the default.
type Collector interface {
	// Hit records a lookup served from the store.
	Hit()

	// Miss records a lookup that invoked the wrapped function.
	Miss()

	// Eviction records count entries removed by capacity eviction.
	Eviction(count int)

	// Size reports the current entry count after a store or eviction.
	Size(entries int)
}

// Noop discards all events.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = (*Noop)(nil)

// NewNoop creates a no-op collector.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Hit()               {}
func (n *Noop) Miss()              {}
func (n *Noop) Eviction(count int) {}
func (n *Noop) Size(entries int)   {}
