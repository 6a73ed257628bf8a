package network_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/beadnet/internal/network"
	"github.com/aretw0/beadnet/pkg/domain"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransferNetwork(t *testing.T) (*network.Network, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	n := newTestNetwork(t, network.WithClock(mock))
	addNodes(t, n, map[string]int{"alice": 10, "bob": 10})
	_, err := n.AddChannel(context.Background(), domain.ChannelSpec{Source: "alice", Target: "bob", SourceBalance: 5, TargetBalance: 2})
	require.NoError(t, err)
	return n, mock
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func channelBalances(t *testing.T, n *network.Network) (int, int) {
	t.Helper()
	chs := n.Channels("alice", "bob")
	require.Len(t, chs, 1)
	return chs[0].SourceBalance, chs[0].TargetBalance
}

func TestMoveBeads_Forward(t *testing.T) {
	n, mock := newTransferNetwork(t)

	var calls atomic.Int32
	var result error
	tr, err := n.MoveBeads(context.Background(), "alice", "bob", 3, network.OnComplete(func(err error) {
		calls.Add(1)
		result = err
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 2}, tr.Indices)
	assert.Equal(t, 3, tr.Pending())

	// First bead arrives after Duration
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return tr.Pending() == 2 }, time.Second, time.Millisecond)
	sb, tb := channelBalances(t, n)
	assert.Equal(t, 4, sb)
	assert.Equal(t, 3, tb)
	requireOffchainInvariant(t, n)

	mock.Add(time.Second)
	require.NoError(t, tr.Wait(waitCtx(t)))

	sb, tb = channelBalances(t, n)
	assert.Equal(t, 2, sb)
	assert.Equal(t, 5, tb)
	assert.Equal(t, int32(1), calls.Load())
	assert.NoError(t, result)
	assert.NoError(t, tr.Err())
	assert.Equal(t, 0, tr.Pending())
	assert.Empty(t, n.Transfers())
	requireOffchainInvariant(t, n)
}

func TestMoveBeads_Reverse(t *testing.T) {
	n, mock := newTransferNetwork(t)

	tr, err := n.MoveBeads(context.Background(), "bob", "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, tr.Indices)

	mock.Add(5 * time.Second)
	require.NoError(t, tr.Wait(waitCtx(t)))

	sb, tb := channelBalances(t, n)
	assert.Equal(t, 7, sb)
	assert.Equal(t, 0, tb)

	alice, _ := n.Node("alice")
	bob, _ := n.Node("bob")
	assert.Equal(t, 7, alice.OffchainBalance)
	assert.Equal(t, 0, bob.OffchainBalance)
	assert.Equal(t, 5, alice.Balance, "free balance never moves")
}

func TestMoveBeads_Rejects(t *testing.T) {
	n, _ := newTransferNetwork(t)
	ctx := context.Background()

	_, err := n.MoveBeads(ctx, "alice", "bob", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = n.MoveBeads(ctx, "alice", "carol", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = n.MoveBeads(ctx, "bob", "alice", 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestMoveBeads_OverlappingReservations(t *testing.T) {
	n, mock := newTransferNetwork(t)
	ctx := context.Background()

	first, err := n.MoveBeads(ctx, "alice", "bob", 3)
	require.NoError(t, err)

	_, err = n.MoveBeads(ctx, "alice", "bob", 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	second, err := n.MoveBeads(ctx, "alice", "bob", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, second.Indices)

	_, err = n.ChangeChannelSourceBalance(ctx, "alice", "bob", -1)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds, "reserved beads cannot be withdrawn")

	mock.Add(5 * time.Second)
	require.NoError(t, n.WaitTransfers(waitCtx(t)))
	assert.NoError(t, first.Err())

	sb, tb := channelBalances(t, n)
	assert.Equal(t, 0, sb)
	assert.Equal(t, 7, tb)
	requireOffchainInvariant(t, n)
}

func TestMoveBeads_Cancel(t *testing.T) {
	n, mock := newTransferNetwork(t)

	var calls atomic.Int32
	tr, err := n.MoveBeads(context.Background(), "alice", "bob", 3, network.OnComplete(func(error) { calls.Add(1) }))
	require.NoError(t, err)

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return tr.Pending() == 2 }, time.Second, time.Millisecond)

	tr.Cancel()
	err = tr.Wait(waitCtx(t))
	assert.ErrorIs(t, err, context.Canceled)
	tr.Cancel()

	mock.Add(5 * time.Second)
	sb, tb := channelBalances(t, n)
	assert.Equal(t, 4, sb, "arrived bead stays applied")
	assert.Equal(t, 3, tb)
	assert.Equal(t, int32(1), calls.Load())
	requireOffchainInvariant(t, n)

	// Reservations of the cancelled beads are released
	again, err := n.MoveBeads(context.Background(), "alice", "bob", 4)
	require.NoError(t, err)
	mock.Add(5 * time.Second)
	require.NoError(t, again.Wait(waitCtx(t)))
}

func TestMoveBeads_ContextCancel(t *testing.T) {
	n, _ := newTransferNetwork(t)
	ctx, cancel := context.WithCancel(context.Background())

	tr, err := n.MoveBeads(ctx, "alice", "bob", 2)
	require.NoError(t, err)
	cancel()

	assert.ErrorIs(t, tr.Wait(waitCtx(t)), context.Canceled)
	sb, tb := channelBalances(t, n)
	assert.Equal(t, 5, sb)
	assert.Equal(t, 2, tb)
}

func TestMoveBeads_ChannelRemoved(t *testing.T) {
	n, mock := newTransferNetwork(t)
	ctx := context.Background()

	tr, err := n.MoveBeads(ctx, "alice", "bob", 3)
	require.NoError(t, err)
	require.NoError(t, n.RemoveChannel(ctx, "alice", "bob"))

	mock.Add(5 * time.Second)
	assert.ErrorIs(t, tr.Wait(waitCtx(t)), domain.ErrNotFound)

	alice, _ := n.Node("alice")
	bob, _ := n.Node("bob")
	assert.Equal(t, 10, alice.Balance)
	assert.Equal(t, 10, bob.Balance)
	requireOffchainInvariant(t, n)
}

func TestMoveBeads_Events(t *testing.T) {
	n, mock := newTransferNetwork(t)
	events, unsubscribe := n.Subscribe(64)
	defer unsubscribe()

	tr, err := n.MoveBeads(context.Background(), "alice", "bob", 3)
	require.NoError(t, err)
	mock.Add(5 * time.Second)
	require.NoError(t, tr.Wait(waitCtx(t)))

	var arrived []int
	var started, finished bool
	var seen int
	for len(events) > 0 {
		e, ok := (<-events).(*domain.TransferEvent)
		if !ok {
			continue
		}
		seen++
		assert.Equal(t, tr.ID, e.TransferID)
		switch e.Type {
		case domain.EventTransferStarted:
			started = true
			assert.Equal(t, time.Second, e.Duration)
			assert.Equal(t, 100*time.Millisecond, e.Stagger)
		case domain.EventBeadArrived:
			require.True(t, started)
			arrived = append(arrived, e.BeadIndex)
		case domain.EventTransferFinished:
			finished = true
			assert.Empty(t, e.Error)
		}
	}
	assert.True(t, finished)
	assert.Equal(t, []int{4, 3, 2}, arrived)
	assert.Equal(t, 5, seen)
}

func TestTiming_Custom(t *testing.T) {
	mock := clock.NewMock()
	n := newTestNetwork(t, network.WithClock(mock), network.WithTiming(network.Timing{Duration: 10 * time.Millisecond}))
	addNodes(t, n, map[string]int{"alice": 10, "bob": 10})
	_, err := n.AddChannel(context.Background(), domain.ChannelSpec{Source: "alice", Target: "bob", SourceBalance: 3})
	require.NoError(t, err)

	tr, err := n.MoveBeads(context.Background(), "alice", "bob", 3)
	require.NoError(t, err)

	// Zero stagger: every bead is due at the same instant
	mock.Add(10 * time.Millisecond)
	require.NoError(t, tr.Wait(waitCtx(t)))
	sb, tb := channelBalances(t, n)
	assert.Equal(t, 0, sb)
	assert.Equal(t, 3, tb)
}
