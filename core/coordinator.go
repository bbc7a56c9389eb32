package core

// coordinator.go – deterministic routing and cross-shard two-phase commit.
//
// Grounded on the teacher's core/sharding.go ShardCoordinator
// (SubmitCrossShard/PullReceipts), collapsed from that file's asynchronous
// receipt-queue model into a single synchronous call the ledger façade
// makes inline, matching this system's single-process, single-actor
// scheduling model. Intent IDs use github.com/google/uuid, the same
// library the teacher's core/cross_chain_transactions.go uses for bridge
// transaction IDs; logging uses go.uber.org/zap, matching that file's
// zap.L().Sugar() convention rather than the logrus used elsewhere in
// this repo — the teacher itself mixes both loggers across packages.

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BalanceChecker reports whether sender currently has at least totalCost
// of balance available. The coordinator does not own the balance map
// itself (the ledger façade does); it calls back into the façade during
// the prepare phase.
type BalanceChecker func(sender Address, totalCost float64) bool

// Coordinator routes transactions to shards and drives the two-phase
// commit protocol for transactions whose endpoints live on different
// shards.
type Coordinator struct {
	shardCount int
	shards     []*Shard
	log        *zap.SugaredLogger
}

// NewCoordinator builds a coordinator over shards, indexed by ShardID. The
// slice is shared with the ledger façade, not copied.
func NewCoordinator(shards []*Shard, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		shardCount: len(shards),
		shards:     shards,
		log:        logger.Sugar().With("component", "coordinator"),
	}
}

// ShardFor resolves addr to its owning shard.
func (c *Coordinator) ShardFor(addr Address) (*Shard, error) {
	id, err := ShardForAddress(addr, c.shardCount)
	if err != nil {
		return nil, fmt.Errorf("route address: %w", err)
	}
	return c.shards[id], nil
}

// Submit routes tx by its sender and recipient addresses. If both route to
// the same shard, tx is admitted directly to that shard's pending pool.
// Otherwise the coordinator runs prepare/commit/abort: check checks
// whether the sender can cover tx.TotalCost(); if it cannot, Submit
// returns (false, nil) — an abort, not an error, matching the spec's
// "prepare failure is a rejected submission" error kind. On success the
// same transaction record is admitted to both the source and destination
// shard's pending pools, which the coordinator treats as a single
// transactional step: both appends happen before Submit returns, and
// neither is observable without the other.
func (c *Coordinator) Submit(tx Transaction, check BalanceChecker) (bool, error) {
	senderShard, err := c.ShardFor(tx.Sender)
	if err != nil {
		return false, err
	}
	recipientShard, err := c.ShardFor(tx.Recipient)
	if err != nil {
		return false, err
	}

	if senderShard.ID() == recipientShard.ID() {
		senderShard.Admit(tx)
		return true, nil
	}

	intentID := uuid.New()
	if !check(tx.Sender, tx.TotalCost()) {
		c.log.Infow("cross-shard prepare failed, aborting",
			"intent", intentID,
			"source_shard", senderShard.ID(),
			"dest_shard", recipientShard.ID(),
		)
		return false, nil
	}

	senderShard.Admit(tx)
	recipientShard.Admit(tx)
	c.log.Infow("cross-shard transaction committed",
		"intent", intentID,
		"source_shard", senderShard.ID(),
		"dest_shard", recipientShard.ID(),
	)
	return true, nil
}
