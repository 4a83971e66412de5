// Package sched owns the master cycle counter and the queue of future
// events that drives every timed component in the emulator.
package sched

import "fmt"

// Stamp is an absolute position on the master cycle counter.
type Stamp uint64

const (
	// Frequency is the least common denominator of the 13.5MHz SPG pixel
	// clock and the 200MHz SH4 clock, in Hz.
	Frequency = 5400000000

	// Timeslice is how far a single RunTimeslice call advances at most.
	Timeslice = Frequency / 400

	// CPUClockDiv converts SH4 cycles to master cycles.
	CPUClockDiv = 27
)

// Handler is called when an event comes due. The event has already been
// unlinked; the handler may re-schedule it.
type Handler func(ev *Event)

// Event is a node in the deadline queue. Callers own the storage; the
// scheduler only touches the link fields. An event must not be scheduled
// twice without being popped or canceled in between.
type Event struct {
	When    Stamp
	Handler Handler
	Arg     any

	// intrusive links, scheduler use only
	pprev **Event
	next  *Event
}

// Clock is a cycle counter plus the scheduler built on top of it. The CPU
// and every peripheral that generates events for it share one Clock.
type Clock struct {
	stamp  Stamp
	target Stamp

	head         *Event
	timesliceEnd Event

	// Dispatch runs guest instructions until the stamp meets TargetStamp.
	// It returns false if the emulator was asked to stop.
	Dispatch func() bool
}

func NewClock() *Clock {
	c := &Clock{}
	c.timesliceEnd.Handler = func(*Event) {}
	return c
}

// Cycles returns the current stamp.
func (c *Clock) Cycles() Stamp {
	return c.stamp
}

// AdvanceCycles moves the stamp forward. Only the dispatch callback and
// event processing may call this.
func (c *Clock) AdvanceCycles(n Stamp) {
	c.stamp += n
}

// TargetStamp is the deadline the dispatch callback must not run past:
// the fire time of the earliest scheduled event.
func (c *Clock) TargetStamp() Stamp {
	return c.target
}

// Schedule inserts an event into the queue. Scheduling an event in the
// past indicates a bug in the caller and panics.
func (c *Clock) Schedule(ev *Event) {
	if ev.When < c.stamp {
		panic(fmt.Sprintf("sched: event scheduled in the past (when=%d now=%d)", ev.When, c.stamp))
	}

	pprev := &c.head
	next := c.head
	for next != nil && next.When <= ev.When {
		pprev = &next.next
		next = next.next
	}

	ev.next = next
	ev.pprev = pprev
	*pprev = ev
	if next != nil {
		next.pprev = &ev.next
	}

	c.updateTarget()
}

// Cancel unlinks an event. The caller must know the event is currently
// scheduled; canceling an already-popped event corrupts the queue, so the
// links are checked and a stale cancel panics.
func (c *Clock) Cancel(ev *Event) {
	if ev.pprev == nil {
		panic("sched: cancel of an event that is not scheduled")
	}
	*ev.pprev = ev.next
	if ev.next != nil {
		ev.next.pprev = ev.pprev
	}
	ev.next = nil
	ev.pprev = nil

	c.updateTarget()
}

// Pop removes and returns the earliest event, or nil when the queue is
// empty.
func (c *Clock) Pop() *Event {
	ev := c.head
	if ev == nil {
		return nil
	}
	c.head = ev.next
	if c.head != nil {
		c.head.pprev = &c.head
	}
	ev.next = nil
	ev.pprev = nil

	c.updateTarget()
	return ev
}

// Peek returns the earliest event without unlinking it.
func (c *Clock) Peek() *Event {
	return c.head
}

// Scheduled reports whether ev is currently linked into the queue.
func (c *Clock) Scheduled(ev *Event) bool {
	return ev.pprev != nil
}

func (c *Clock) updateTarget() {
	if c.head != nil {
		c.target = c.head.When
	} else {
		// nothing due: run freely to the end of time
		c.target = ^Stamp(0)
	}
}

// RunTimeslice advances emulation by one bounded timeslice: it plants a
// sentinel event one Timeslice ahead, then alternates between the dispatch
// callback and due-event handlers until the sentinel is popped. Returns
// false if the dispatch callback asked to stop mid-slice.
func (c *Clock) RunTimeslice() bool {
	c.timesliceEnd.When = c.stamp + Timeslice
	c.Schedule(&c.timesliceEnd)

	for {
		if !c.Dispatch() {
			if c.Scheduled(&c.timesliceEnd) {
				c.Cancel(&c.timesliceEnd)
			}
			return false
		}

		// dispatch ran the CPU up to (or slightly past) the deadline:
		// fire everything that has come due
		for ev := c.Peek(); ev != nil && ev.When <= c.stamp; ev = c.Peek() {
			c.Pop()
			if ev == &c.timesliceEnd {
				return true
			}
			ev.Handler(ev)
		}
	}
}
