package core

import (
	"testing"

	"go.uber.org/zap"
)

func newTestCoordinator(t *testing.T, shardCount int) (*Coordinator, []*Shard) {
	t.Helper()
	shards := make([]*Shard, shardCount)
	for i := range shards {
		shards[i] = NewShard(ShardID(i))
	}
	return NewCoordinator(shards, zap.NewNop()), shards
}

func alwaysFunded(Address, float64) bool { return true }
func neverFunded(Address, float64) bool  { return false }

// Scenario 3/5 support: same-shard submissions admit directly without
// invoking the two-phase protocol at all.
func TestCoordinatorSubmitSameShardAdmitsDirectly(t *testing.T) {
	coord, shards := newTestCoordinator(t, 4)
	alice, err := AddressFromHex("a1")
	if err != nil {
		t.Fatalf("AddressFromHex: %v", err)
	}
	bob, err := AddressFromHex("a2")
	if err != nil {
		t.Fatalf("AddressFromHex: %v", err)
	}
	senderShard, err := coord.ShardFor(alice)
	if err != nil {
		t.Fatalf("ShardFor: %v", err)
	}
	recipientShard, err := coord.ShardFor(bob)
	if err != nil {
		t.Fatalf("ShardFor: %v", err)
	}
	if senderShard.ID() != recipientShard.ID() {
		t.Fatalf("test fixture addresses route to different shards: %d vs %d", senderShard.ID(), recipientShard.ID())
	}

	tx, err := NewTransaction(alice, bob, 1, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	ok, err := coord.Submit(*tx, neverFunded) // balance check must not even run
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !ok {
		t.Fatal("Submit() = false for an intra-shard transaction")
	}
	if got := senderShard.PendingCount(); got != 1 {
		t.Errorf("sender shard PendingCount() = %d, want 1", got)
	}
	for _, s := range shards {
		if s.ID() != senderShard.ID() && s.PendingCount() != 0 {
			t.Errorf("shard %d unexpectedly has a pending transaction", s.ID())
		}
	}
}

// Scenario 5: a cross-shard commit appears in both participating shards'
// pending pools.
func TestCoordinatorCrossShardCommitAppearsInBothShards(t *testing.T) {
	coord, _ := newTestCoordinator(t, 4)
	a, err := AddressFromHex("a000")
	if err != nil {
		t.Fatalf("AddressFromHex: %v", err)
	}
	f, err := AddressFromHex("f000")
	if err != nil {
		t.Fatalf("AddressFromHex: %v", err)
	}
	sourceShard, err := coord.ShardFor(a)
	if err != nil {
		t.Fatalf("ShardFor: %v", err)
	}
	destShard, err := coord.ShardFor(f)
	if err != nil {
		t.Fatalf("ShardFor: %v", err)
	}
	if sourceShard.ID() == destShard.ID() {
		t.Fatalf("test fixture addresses route to the same shard: %d", sourceShard.ID())
	}

	tx, err := NewTransaction(a, f, 5, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	ok, err := coord.Submit(*tx, alwaysFunded)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !ok {
		t.Fatal("Submit() = false for a fundable cross-shard transaction")
	}
	if got := sourceShard.PendingCount(); got != 1 {
		t.Errorf("source shard PendingCount() = %d, want 1", got)
	}
	if got := destShard.PendingCount(); got != 1 {
		t.Errorf("dest shard PendingCount() = %d, want 1", got)
	}
}

// Prepare failure: neither shard records the transaction, and no error is
// returned — this is an abort, not a programmer error.
func TestCoordinatorCrossShardAbortLeavesNoTrace(t *testing.T) {
	coord, _ := newTestCoordinator(t, 4)
	a, err := AddressFromHex("a000")
	if err != nil {
		t.Fatalf("AddressFromHex: %v", err)
	}
	f, err := AddressFromHex("f000")
	if err != nil {
		t.Fatalf("AddressFromHex: %v", err)
	}
	sourceShard, err := coord.ShardFor(a)
	if err != nil {
		t.Fatalf("ShardFor: %v", err)
	}
	destShard, err := coord.ShardFor(f)
	if err != nil {
		t.Fatalf("ShardFor: %v", err)
	}

	tx, err := NewTransaction(a, f, 5, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	ok, err := coord.Submit(*tx, neverFunded)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ok {
		t.Fatal("Submit() = true despite prepare failure")
	}
	if got := sourceShard.PendingCount(); got != 0 {
		t.Errorf("source shard PendingCount() = %d, want 0 after abort", got)
	}
	if got := destShard.PendingCount(); got != 0 {
		t.Errorf("dest shard PendingCount() = %d, want 0 after abort", got)
	}
}
