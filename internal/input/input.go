// Package input implements the InputCollector (spec.md §4.2): a bounded,
// drop-oldest event deque fed by a pumping worker, exposing the
// half-open-window drain_events(start, end) the Orchestrator calls once
// per step. The OS-specific half (registering for raw input and running
// the message pump) lives in input_windows.go / input_other.go; this
// file holds the platform-independent deque and state machine, so it is
// exercised directly by tests without a real window.
package input

import (
	"sync"
	"sync/atomic"

	"vlmcollector/internal/model"
)

// State is the pumping worker's lifecycle, per spec.md §4.2: Initializing
// → Ready → Pumping → (QuitRequested|Errored) → Joined.
type State int32

const (
	StateInitializing State = iota
	StateReady
	StatePumping
	StateQuitRequested
	StateErrored
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "Initializing"
	case StateReady:
		return "Ready"
	case StatePumping:
		return "Pumping"
	case StateQuitRequested:
		return "QuitRequested"
	case StateErrored:
		return "Errored"
	case StateJoined:
		return "Joined"
	default:
		return "Unknown"
	}
}

// Collector is the consumer side of the single-producer/single-consumer
// queue described in spec.md §5: the pump worker appends to inbox, the
// Orchestrator drains through DrainEvents. inbox is merged into the
// bounded deque lazily, on drain, rather than continuously, since nothing
// reads the deque between drains anyway.
type Collector struct {
	mu        sync.Mutex
	inbox     []model.InputEvent
	deque     []model.InputEvent
	maxEvents int
	dropped   uint64
	state     atomic.Int32
}

// NewCollector creates a Collector bounded at maxEvents (spec.md default
// 20,000). maxEvents <= 0 is replaced by the default.
func NewCollector(maxEvents int) *Collector {
	if maxEvents <= 0 {
		maxEvents = model.MaxEventsDefault
	}
	c := &Collector{maxEvents: maxEvents}
	c.state.Store(int32(StateInitializing))
	return c
}

// SetState records a worker lifecycle transition. Callers (the OS pump)
// use this to publish Ready/Pumping/QuitRequested/Errored/Joined.
func (c *Collector) SetState(s State) { c.state.Store(int32(s)) }

// State returns the worker's current lifecycle state.
func (c *Collector) State() State { return State(c.state.Load()) }

// Push enqueues one decoded event from the pump worker. Safe to call
// concurrently with DrainEvents.
func (c *Collector) Push(e model.InputEvent) {
	c.mu.Lock()
	c.inbox = append(c.inbox, e)
	c.mu.Unlock()
}

// Dropped returns the total count of events dropped for deque overflow
// so far.
func (c *Collector) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// DrainEvents implements spec.md §4.2's contract: merge pending events,
// enforce the max_events bound (dropping oldest), then return events with
// start <= tick < end, removing them (and anything older) from the deque.
func (c *Collector) DrainEvents(start, end model.Tick) []model.InputEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.inbox) > 0 {
		c.deque = append(c.deque, c.inbox...)
		c.inbox = c.inbox[:0]
	}

	if over := len(c.deque) - c.maxEvents; over > 0 {
		c.dropped += uint64(over)
		c.deque = c.deque[over:]
	}

	i := 0
	for i < len(c.deque) && c.deque[i].Tick < start {
		i++
	}
	c.deque = c.deque[i:]

	j := 0
	for j < len(c.deque) && c.deque[j].Tick < end {
		j++
	}
	if j == 0 {
		return nil
	}
	out := make([]model.InputEvent, j)
	copy(out, c.deque[:j])
	c.deque = c.deque[j:]
	return out
}

// Len reports how many events are held and not yet drained: those still
// in the inbox plus those already merged into the deque. Mainly useful
// for tests asserting P11's bound.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inbox) + len(c.deque)
}
