package scanner

import (
	"context"

	"github.com/dmitrijs2005/phishguard/internal/models"
)

type EventKind string

const (
	// EventScanning is published as soon as a scan starts.
	EventScanning EventKind = "scanning"
	// EventVerdict carries every final outcome.
	EventVerdict EventKind = "verdict"
	// EventWarning asks the presentation layer to interrupt the user with
	// the warnings of a malicious page that has not been accepted.
	EventWarning EventKind = "warning"
	// EventUpgrade signals that the monthly quota denied a scan.
	EventUpgrade EventKind = "upgrade"
)

type Event struct {
	Kind    EventKind      `json:"kind"`
	Outcome models.Outcome `json:"outcome"`
}

// Notifier receives scan events. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type NotifyFunc func(ctx context.Context, e Event)

func (f NotifyFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// ChanNotifier buffers events for a consumer that polls. When the buffer is
// full the oldest event is dropped.
type ChanNotifier struct {
	ch chan Event
}

func NewChanNotifier(size int) *ChanNotifier {
	return &ChanNotifier{ch: make(chan Event, max(size, 1))}
}

func (c *ChanNotifier) Notify(_ context.Context, e Event) {
	for {
		select {
		case c.ch <- e:
			return
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

func (c *ChanNotifier) Events() <-chan Event { return c.ch }

// Drain returns every pending event without waiting.
func (c *ChanNotifier) Drain() []Event {
	var out []Event
	for {
		select {
		case e := <-c.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
