package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carAt(id int, pos float64) *Elevator {
	e := newElevator(id, 8)
	e.Pos = pos
	return e
}

func TestRegistry_EnqueuePlacement(t *testing.T) {
	r := newCallRegistry(10)

	r.enqueue(newPassenger(2, 5, 0))
	r.enqueue(newPassenger(5, 1, 0))

	assert.Len(t, r.floor(2).up, 1)
	assert.Empty(t, r.floor(2).down)
	assert.Len(t, r.floor(5).down, 1)

	up, down := r.calls()
	require.Len(t, up, 1)
	require.Len(t, down, 1)
	assert.Equal(t, HallCall{Floor: 2, ClaimedBy: Unclaimed}, up[0])
	assert.Equal(t, HallCall{Floor: 5, ClaimedBy: Unclaimed}, down[0])
}

func TestRegistry_GrantPureCabTarget(t *testing.T) {
	r := newCallRegistry(10)
	e := carAt(0, 0)

	// No hall call at the floor: granted unconditionally, no claim made.
	assert.True(t, r.grant(e, 7))
	assert.Equal(t, Unclaimed, r.floor(7).upClaim)
	assert.Equal(t, Unclaimed, r.floor(7).downClaim)
}

func TestRegistry_GrantFirstClaimWins(t *testing.T) {
	r := newCallRegistry(10)
	r.enqueue(newPassenger(4, 8, 0))
	a := carAt(0, 0)
	b := carAt(1, 9)

	require.True(t, r.grant(a, 4))
	assert.Equal(t, 0, r.floor(4).upClaim)

	// Second car is refused while the first holds the claim.
	assert.False(t, r.grant(b, 4))

	// The owner itself is always granted.
	assert.True(t, r.grant(a, 4))
}

func TestRegistry_GrantBothDirectionsTieBreak(t *testing.T) {
	r := newCallRegistry(10)
	r.enqueue(newPassenger(4, 8, 0)) // up call at 4
	r.enqueue(newPassenger(4, 1, 0)) // down call at 4

	// Approaching from below arrives traveling up: claim the up call.
	below := carAt(0, 1)
	require.True(t, r.grant(below, 4))
	assert.Equal(t, 0, r.floor(4).upClaim)
	assert.Equal(t, Unclaimed, r.floor(4).downClaim)

	// The other direction stays claimable for a second car.
	above := carAt(1, 8)
	require.True(t, r.grant(above, 4))
	assert.Equal(t, 1, r.floor(4).downClaim)

	// Fully claimed now: a third car is refused.
	assert.False(t, r.grant(carAt(2, 4.5), 4))
}

func TestRegistry_GrantApproachFromAbove(t *testing.T) {
	r := newCallRegistry(10)
	r.enqueue(newPassenger(4, 8, 0))
	r.enqueue(newPassenger(4, 1, 0))

	require.True(t, r.grant(carAt(0, 8), 4))
	assert.Equal(t, 0, r.floor(4).downClaim)
	assert.Equal(t, Unclaimed, r.floor(4).upClaim)
}

func TestRegistry_ReconcileClearsEmptyQueueClaim(t *testing.T) {
	r := newCallRegistry(10)
	r.enqueue(newPassenger(3, 6, 0))
	e := carAt(0, 0)
	require.True(t, r.grant(e, 3))
	e.Targets[3] = true

	// Queue drains (boarded elsewhere in the pipeline).
	r.floor(3).up = nil
	r.reconcile([]*Elevator{e})
	assert.Equal(t, Unclaimed, r.floor(3).upClaim)
}

func TestRegistry_ReconcileClearsAbandonedAssignment(t *testing.T) {
	r := newCallRegistry(10)
	r.enqueue(newPassenger(3, 6, 0))
	e := carAt(0, 0)
	require.True(t, r.grant(e, 3))
	e.Targets[3] = true

	r.reconcile([]*Elevator{e})
	assert.Equal(t, 0, r.floor(3).upClaim, "live assignment survives reconcile")

	// The car dropped the target: the claim is stale and must clear.
	delete(e.Targets, 3)
	r.reconcile([]*Elevator{e})
	assert.Equal(t, Unclaimed, r.floor(3).upClaim)
}

func TestRegistry_ReleaseOnlyOwner(t *testing.T) {
	r := newCallRegistry(10)
	r.enqueue(newPassenger(4, 8, 0))
	r.enqueue(newPassenger(4, 1, 0))
	require.True(t, r.grant(carAt(0, 1), 4)) // up claim -> car 0
	require.True(t, r.grant(carAt(1, 8), 4)) // down claim -> car 1

	r.release(4, 0)
	assert.Equal(t, Unclaimed, r.floor(4).upClaim)
	assert.Equal(t, 1, r.floor(4).downClaim, "other owner's claim untouched")
}

func TestRegistry_Views(t *testing.T) {
	r := newCallRegistry(3)
	r.enqueue(newPassenger(1, 2, 0))
	r.enqueue(newPassenger(1, 0, 0))
	r.enqueue(newPassenger(1, 0, 0))

	views := r.views()
	require.Len(t, views, 3)
	assert.Equal(t, 1, views[1].UpWaiting)
	assert.Equal(t, 2, views[1].DownWaiting)
	assert.Equal(t, Unclaimed, views[1].UpClaim)
}
