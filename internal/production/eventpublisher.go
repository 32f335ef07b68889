package production

import (
	"context"
	"sync/atomic"

	"github.com/comalice/hsm/door"
)

// PublishedChange bundles a transition with the machine it happened on.
type PublishedChange struct {
	Machine string
	Change  door.Change
}

// ChannelPublisher forwards transitions to a Go channel. Publishing never
// blocks; changes are dropped when the channel is full.
type ChannelPublisher struct {
	ch      chan<- PublishedChange
	machine string
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(machine string, ch chan<- PublishedChange) *ChannelPublisher {
	return &ChannelPublisher{ch: ch, machine: machine}
}

// Publish sends ch without blocking.
func (p *ChannelPublisher) Publish(ctx context.Context, ch door.Change) error {
	select {
	case p.ch <- PublishedChange{Machine: p.machine, Change: ch}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped.Add(1)
		return nil
	}
}

// Observer adapts the publisher for door.WithObserver.
func (p *ChannelPublisher) Observer() door.Observer {
	return func(ch door.Change) {
		_ = p.Publish(context.Background(), ch)
	}
}

// Dropped returns how many changes were dropped on a full channel.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped.Load() }

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
