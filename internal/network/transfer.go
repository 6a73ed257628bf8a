package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Timing is the bead animation schedule. Bead k, counted from the channel
// boundary, arrives k*Stagger + Duration after the transfer starts.
type Timing struct {
	Duration time.Duration `json:"duration" yaml:"duration"`
	Stagger  time.Duration `json:"stagger" yaml:"stagger"`
}

// DefaultTiming matches the pace of the browser widget.
var DefaultTiming = Timing{
	Duration: time.Second,
	Stagger:  100 * time.Millisecond,
}

// delay returns the arrival offset of the k-th bead.
func (t Timing) delay(k int) time.Duration {
	return time.Duration(k)*t.Stagger + t.Duration
}

type transferConfig struct {
	onComplete func(error)
}

// TransferOption configures a single MoveBeads call.
type TransferOption func(*transferConfig)

// OnComplete registers a callback invoked exactly once when the transfer ends.
// The error is nil when every bead arrived.
func OnComplete(fn func(error)) TransferOption {
	return func(c *transferConfig) {
		c.onComplete = fn
	}
}

// Transfer is a running MoveBeads task.
type Transfer struct {
	ID        string
	ChannelID string
	From      string
	To        string
	Count     int
	// Indices are the bead indices selected at start, nearest the boundary first.
	Indices []int

	pending atomic.Int64
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	err     error
}

// Done is closed once the transfer has finished or was cancelled.
func (t *Transfer) Done() <-chan struct{} {
	return t.done
}

// Err returns the terminal error, or nil while running or after success.
func (t *Transfer) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the transfer ends or ctx is done.
func (t *Transfer) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops the transfer. Beads that already arrived stay applied.
func (t *Transfer) Cancel() {
	t.cancel()
}

// Pending returns the number of beads still in flight.
func (t *Transfer) Pending() int {
	return int(t.pending.Load())
}

// MoveBeads starts moving count beads across the channel between the two nodes.
// Beads travel from sourceID towards targetID regardless of how the channel was opened.
// The transfer lives until its last bead arrives, ctx is cancelled or Cancel is called.
func (n *Network) MoveBeads(ctx context.Context, sourceID, targetID string, count int, opts ...TransferOption) (*Transfer, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count %d: %w", count, domain.ErrInvalidArgument)
	}
	cfg := transferConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	n.mu.Lock()
	found := n.findChannels(sourceID, targetID)
	if len(found) == 0 {
		n.mu.Unlock()
		return nil, fmt.Errorf("channel %s-%s: %w", sourceID, targetID, domain.ErrNotFound)
	}
	ch := found[0]
	forward := ch.Source == sourceID

	indices := make([]int, count)
	if forward {
		if available := ch.SourceBalance - ch.reservedSource; count > available {
			n.mu.Unlock()
			return nil, fmt.Errorf("source side of channel %s has %d free beads, cannot move %d: %w",
				ch.ID, available, count, domain.ErrInsufficientFunds)
		}
		for k := range indices {
			indices[k] = ch.SourceBalance - 1 - ch.reservedSource - k
		}
		ch.reservedSource += count
	} else {
		if available := ch.TargetBalance - ch.reservedTarget; count > available {
			n.mu.Unlock()
			return nil, fmt.Errorf("target side of channel %s has %d free beads, cannot move %d: %w",
				ch.ID, available, count, domain.ErrInsufficientFunds)
		}
		for k := range indices {
			indices[k] = ch.SourceBalance + ch.reservedTarget + k
		}
		ch.reservedTarget += count
	}

	tctx, cancel := context.WithCancel(ctx)
	t := &Transfer{
		ID:        uuid.NewString(),
		ChannelID: ch.ID,
		From:      sourceID,
		To:        targetID,
		Count:     count,
		Indices:   indices,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	t.pending.Store(int64(count))

	// Timers are armed under the lock so arrivals follow the schedule even
	// when several transfers start back to back.
	timing := n.timing
	timers := make([]*clock.Timer, count)
	for k := range timers {
		timers[k] = n.clock.Timer(timing.delay(k))
	}
	n.transfers[t.ID] = t

	started := &domain.TransferEvent{
		EventBase:  n.base(domain.EventTransferStarted),
		TransferID: t.ID,
		ChannelID:  t.ChannelID,
		From:       t.From,
		To:         t.To,
		Count:      t.Count,
		Indices:    append([]int(nil), indices...),
		Duration:   timing.Duration,
		Stagger:    timing.Stagger,
	}
	n.mu.Unlock()

	n.logger.Debug("transfer started", "transfer_id", t.ID, "channel_id", t.ChannelID, "from", sourceID, "to", targetID, "count", count)
	n.publish(ctx, started)

	go n.run(tctx, t, ch, forward, timers, cfg)
	return t, nil
}

func (n *Network) run(ctx context.Context, t *Transfer, ch *channel, forward bool, timers []*clock.Timer, cfg transferConfig) {
	for k, timer := range timers {
		select {
		case <-ctx.Done():
			stopTimers(timers[k:])
			n.finish(ctx, t, ch, forward, len(timers)-k, ctx.Err(), cfg)
			return
		case <-timer.C:
		}

		if err := n.arrive(ctx, t, ch, forward, k); err != nil {
			stopTimers(timers[k+1:])
			n.finish(ctx, t, ch, forward, len(timers)-k-1, err, cfg)
			return
		}
	}
	n.finish(ctx, t, ch, forward, 0, nil, cfg)
}

// arrive applies the k-th bead of t.
func (n *Network) arrive(ctx context.Context, t *Transfer, ch *channel, forward bool, k int) error {
	n.mu.Lock()
	if ch.removed {
		n.mu.Unlock()
		return fmt.Errorf("channel %s was removed: %w", ch.ID, domain.ErrNotFound)
	}

	from, to := n.nodes[ch.Source], n.nodes[ch.Target]
	if forward {
		ch.SourceBalance--
		ch.TargetBalance++
		ch.reservedSource--
	} else {
		ch.SourceBalance++
		ch.TargetBalance--
		ch.reservedTarget--
		from, to = to, from
	}
	from.OffchainBalance--
	to.OffchainBalance++
	ch.rederive()
	t.pending.Add(-1)

	events := []domain.Event{
		&domain.TransferEvent{
			EventBase:  n.base(domain.EventBeadArrived),
			TransferID: t.ID,
			ChannelID:  t.ChannelID,
			From:       t.From,
			To:         t.To,
			Count:      t.Count,
			BeadIndex:  t.Indices[k],
		},
		n.channelEvent(domain.EventChannelUpdated, ch),
		n.nodeEvent(domain.EventNodeUpdated, *from),
		n.nodeEvent(domain.EventNodeUpdated, *to),
	}
	n.mu.Unlock()

	n.publish(ctx, events...)
	return nil
}

// finish releases the reservation of the beads that never arrived and signals completion.
func (n *Network) finish(ctx context.Context, t *Transfer, ch *channel, forward bool, remaining int, err error, cfg transferConfig) {
	t.once.Do(func() {
		n.mu.Lock()
		if remaining > 0 && !ch.removed {
			if forward {
				ch.reservedSource -= remaining
			} else {
				ch.reservedTarget -= remaining
			}
		}
		delete(n.transfers, t.ID)
		finished := &domain.TransferEvent{
			EventBase:  n.base(domain.EventTransferFinished),
			TransferID: t.ID,
			ChannelID:  t.ChannelID,
			From:       t.From,
			To:         t.To,
			Count:      t.Count,
		}
		if err != nil {
			finished.Error = err.Error()
		}
		n.mu.Unlock()

		t.pending.Store(0)
		t.err = err
		if err != nil {
			n.logger.Warn("transfer ended early", "transfer_id", t.ID, "arrived", t.Count-remaining, "err", err)
		} else {
			n.logger.Debug("transfer finished", "transfer_id", t.ID)
		}

		// ctx may already be cancelled here.
		n.publish(context.WithoutCancel(ctx), finished)
		if cfg.onComplete != nil {
			cfg.onComplete(err)
		}
		close(t.done)
		t.cancel()
	})
}

func stopTimers(timers []*clock.Timer) {
	for _, timer := range timers {
		timer.Stop()
	}
}

// Transfers returns the transfers still in flight.
func (n *Network) Transfers() []*Transfer {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Transfer, 0, len(n.transfers))
	for _, t := range n.transfers {
		out = append(out, t)
	}
	return out
}

// WaitTransfers blocks until no transfer is in flight, including transfers
// started while waiting. It returns the joined errors of the awaited transfers.
func (n *Network) WaitTransfers(ctx context.Context) error {
	var errs []error
	for {
		pending := n.Transfers()
		if len(pending) == 0 {
			return errors.Join(errs...)
		}
		for _, t := range pending {
			if err := t.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs = append(errs, fmt.Errorf("transfer %s: %w", t.ID, err))
			}
		}
	}
}

// CancelTransfers cancels every transfer in flight.
func (n *Network) CancelTransfers() {
	for _, t := range n.Transfers() {
		t.Cancel()
	}
}
