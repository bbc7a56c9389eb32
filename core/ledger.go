package core

// ledger.go – the single public entry point: transaction intake, mining,
// and balance queries.
//
// Grounded on the teacher's core/ledger.go Ledger struct and
// NewLedger/applyBlock shape, stripped of write-ahead-log persistence and
// the UTXO set (this system follows the spec's account/balance-map model
// exclusively, the same non-UTXO path the teacher's own TokenBalances map
// already supports). The façade owns the balance map and serializes every
// mutation behind a single mutex, per the teacher's Ledger.mu convention.

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// ErrMissingSenderKey is returned by Submit when a non-reward transaction
// is submitted without the sender's public key, which this façade needs
// to verify both the signature and that the key actually derives the
// claimed sender address (addresses are a one-way fingerprint of the
// public key, so the façade cannot recover it from the address alone).
var ErrMissingSenderKey = errors.New("sender public key required to verify transaction")

// ErrSenderKeyMismatch is returned when the supplied public key does not
// derive the transaction's claimed sender address.
var ErrSenderKeyMismatch = errors.New("public key does not match transaction sender")

// Ledger is the authoritative account-state façade: it validates and
// admits transactions, drives mining on a shard, and answers balance
// queries. Shard count and initial difficulty are fixed for the life of
// the ledger.
type Ledger struct {
	shardCount int
	shards     []*Shard
	consensus  *Engine
	coord      *Coordinator

	mu       sync.Mutex
	balances map[Address]map[string]float64
	burned   float64

	log *logrus.Entry
}

// NewLedger builds a ledger with shardCount partitions (each seeded with
// its own genesis block) and a consensus engine starting at
// initialDifficulty.
func NewLedger(shardCount int, initialDifficulty int) (*Ledger, error) {
	if shardCount < 1 {
		return nil, fmt.Errorf("shard count must be positive, got %d", shardCount)
	}
	shards := make([]*Shard, shardCount)
	for i := range shards {
		shards[i] = NewShard(ShardID(i))
	}
	l := &Ledger{
		shardCount: shardCount,
		shards:     shards,
		consensus:  NewEngine(initialDifficulty, TargetBlockTime, AdjustmentInterval),
		coord:      NewCoordinator(shards, zap.NewNop()),
		balances:   make(map[Address]map[string]float64),
		log:        logrus.WithField("component", "ledger"),
	}
	return l, nil
}

// Shard returns the shard at id, for chain inspection by callers (the
// client surface's fourth method: a read of a shard's chain).
func (l *Ledger) Shard(id ShardID) (*Shard, error) {
	if int(id) < 0 || int(id) >= l.shardCount {
		return nil, fmt.Errorf("shard id %d out of range [0,%d)", id, l.shardCount)
	}
	return l.shards[id], nil
}

// ShardCount returns the fixed number of partitions.
func (l *Ledger) ShardCount() int {
	return l.shardCount
}

// Consensus exposes the engine for read-only status queries (difficulty,
// sample counts) without granting mining access.
func (l *Ledger) Consensus() ConsensusStatus {
	return l.consensus.Status()
}

// SeedBalance sets address's balance of asset directly, bypassing
// transaction intake. It exists for genesis funding and tests; it is not
// part of the client-facing submit/mine/balance surface.
func (l *Ledger) SeedBalance(address Address, asset string, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setBalanceLocked(address, asset, amount)
}

// Balance returns address's current balance of asset, defaulting to zero
// for addresses the ledger has never seen.
func (l *Ledger) Balance(address Address, asset string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(address, asset)
}

func (l *Ledger) balanceLocked(address Address, asset string) float64 {
	byAsset, ok := l.balances[address]
	if !ok {
		return 0
	}
	return byAsset[asset]
}

func (l *Ledger) setBalanceLocked(address Address, asset string, amount float64) {
	byAsset, ok := l.balances[address]
	if !ok {
		byAsset = make(map[string]float64)
		l.balances[address] = byAsset
	}
	byAsset[asset] = amount
}

func (l *Ledger) debitLocked(address Address, asset string, amount float64) {
	l.setBalanceLocked(address, asset, l.balanceLocked(address, asset)-amount)
}

func (l *Ledger) creditLocked(address Address, asset string, amount float64) {
	l.setBalanceLocked(address, asset, l.balanceLocked(address, asset)+amount)
}

// Submit validates tx and, if it is well-formed, sufficiently funded, and
// accepted by the coordinator, admits it and applies its balance effects
// atomically. senderPub is required for every transaction except a
// synthetic network reward (see ErrMissingSenderKey); it is used both to
// verify the signature and to confirm it actually derives tx.Sender.
//
// Submit returns (false, nil) for a rejected-but-not-erroneous submission
// (non-positive amount, insufficient funds, invalid signature, or a
// cross-shard prepare failure) and (false, err) only for a caller
// programming error (missing or mismatched key, unroutable address).
func (l *Ledger) Submit(tx *Transaction, senderPub *rsa.PublicKey) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("nil transaction")
	}
	if tx.Amount <= 0 {
		return false, nil
	}

	if !tx.IsNetworkReward() {
		if senderPub == nil {
			return false, ErrMissingSenderKey
		}
		derived, err := AddressFromPublicKey(senderPub)
		if err != nil {
			return false, err
		}
		if derived != tx.Sender {
			return false, ErrSenderKeyMismatch
		}
		if !tx.Verify(senderPub) {
			l.log.WithField("sender", tx.Sender.Short()).Warn("rejected transaction with invalid signature")
			return false, nil
		}
	}

	totalCost := tx.TotalCost()

	l.mu.Lock()
	defer l.mu.Unlock()

	check := func(addr Address, total float64) bool {
		return l.balanceLocked(addr, tx.Asset) >= total
	}
	if !tx.IsNetworkReward() && !check(tx.Sender, totalCost) {
		return false, nil
	}

	accepted, err := l.coord.Submit(*tx, check)
	if err != nil {
		return false, err
	}
	if !accepted {
		return false, nil
	}

	if !tx.IsNetworkReward() {
		l.debitLocked(tx.Sender, tx.Asset, totalCost)
		// Fees are burned, not credited to anyone (open question 2): only
		// the transfer amount reaches the recipient.
		l.burned += tx.Fee
	}
	l.creditLocked(tx.Recipient, tx.Asset, tx.Amount)

	l.log.WithFields(logrus.Fields{
		"sender":    tx.Sender.Short(),
		"recipient": tx.Recipient.Short(),
		"amount":    tx.Amount,
		"asset":     tx.Asset,
	}).Info("transaction admitted")
	return true, nil
}

// Mine routes to minerAddress's shard, builds a candidate block over its
// pending pool (crediting minerAddress with the block subsidy), hands it
// to the consensus engine to mine, and appends the mined block to the
// shard. It returns (nil, nil) if the shard had no pending transactions.
// The reward transaction bypasses transaction intake entirely and is
// credited directly in the same critical section as the block append
// (open question 5, second alternative), so "Network" never needs to be a
// routable address.
func (l *Ledger) Mine(ctx context.Context, minerAddress Address) (*Block, error) {
	shardID, err := ShardForAddress(minerAddress, l.shardCount)
	if err != nil {
		return nil, err
	}
	shard := l.shards[shardID]

	if shard.PendingCount() == 0 {
		return nil, nil
	}

	reward := RewardForIndex(shard.Height())
	block, drained := shard.PrepareBlock(minerAddress, reward)

	if err := l.consensus.MineBlock(ctx, block); err != nil {
		shard.Requeue(drained)
		return nil, err
	}

	l.mu.Lock()
	l.creditLocked(minerAddress, NativeAsset, reward)
	shard.CommitBlock(block)
	l.mu.Unlock()
	return block, nil
}
