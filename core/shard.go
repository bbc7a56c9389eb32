package core

// shard.go – a single partition's chain and pending-transaction pool.
//
// Grounded on the teacher's core/sharding.go ShardID/shardOfAddr routing
// idiom, stripped of its gossip, reshard, and weighted-load-balancing
// machinery (no Non-goal here survives as dead code; those concerns belong
// to a multi-node deployment this single-process ledger doesn't have).

import (
	"context"
	"fmt"
	"sync"
)

// ShardID identifies one of the ledger's partitions.
type ShardID int

// ShardForAddress returns the partition addr routes to: the integer value
// of its first hex nibble, modulo shardCount. shardCount is fixed for the
// life of the owning ledger, but is a construction-time parameter rather
// than a package constant.
func ShardForAddress(addr Address, shardCount int) (ShardID, error) {
	nibble, err := addr.LeadingNibble()
	if err != nil {
		return 0, err
	}
	v, err := nibbleValue(nibble)
	if err != nil {
		return 0, err
	}
	return ShardID(v % shardCount), nil
}

func nibbleValue(c rune) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, nil
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, nil
	default:
		return 0, fmt.Errorf("non-hex leading nibble %q", c)
	}
}

// Shard owns one partition's chain (genesis plus every mined block) and its
// FIFO pool of pending, not-yet-mined transactions. All exported methods
// are safe for concurrent use.
type Shard struct {
	id      ShardID
	mu      sync.Mutex
	chain   []*Block
	pending []Transaction
}

// NewShard builds a shard seeded with its own genesis block.
func NewShard(id ShardID) *Shard {
	return &Shard{
		id:    id,
		chain: []*Block{NewGenesisBlock()},
	}
}

// ID returns the shard's identifier.
func (s *Shard) ID() ShardID {
	return s.id
}

// Latest returns the most recently appended block (genesis if nothing has
// been mined yet).
func (s *Shard) Latest() *Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain[len(s.chain)-1]
}

// Height returns the number of blocks in the chain, including genesis.
func (s *Shard) Height() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.chain))
}

// Admit appends tx to the pending pool. Callers are expected to have
// already validated signature, balance, and routing; Admit itself performs
// no validation.
func (s *Shard) Admit(tx Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, tx)
}

// PendingCount reports how many transactions are waiting to be mined.
func (s *Shard) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// drainPending removes and returns every pending transaction, in FIFO
// order, leaving the pool empty. Called while building a block so a
// failed or cancelled mine can be retried without losing transactions.
func (s *Shard) drainPending() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.pending
	s.pending = nil
	return drained
}

// requeue puts transactions back at the front of the pending pool. Used
// when a build is abandoned (for example, mining was cancelled) so the
// transactions are not lost.
func (s *Shard) requeue(txs []Transaction) {
	if len(txs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(txs, s.pending...)
}

// PrepareBlock drains the pending pool and constructs (but does not mine)
// the next unmined block, appending a reward transaction crediting miner.
// It returns both the candidate block and the drained user transactions,
// so a caller can requeue the latter if mining is later abandoned.
func (s *Shard) PrepareBlock(miner Address, reward float64) (*Block, []Transaction) {
	txs := s.drainPending()

	rewardTx := newRewardTransaction(miner, reward)
	blockTxs := append(append([]Transaction{}, txs...), *rewardTx)

	s.mu.Lock()
	prev := s.chain[len(s.chain)-1]
	index := int64(len(s.chain))
	s.mu.Unlock()

	return NewBlock(index, prev.Hash, blockTxs), txs
}

// Requeue puts previously drained user transactions back at the front of
// the pending pool. Exported so the ledger façade can recover a block
// whose mining was cancelled or otherwise abandoned.
func (s *Shard) Requeue(txs []Transaction) {
	s.requeue(txs)
}

// CommitBlock appends an already-mined block to the chain. The caller is
// responsible for having verified it extends the current tip and
// satisfies proof-of-work (see VerifyMined).
func (s *Shard) CommitBlock(block *Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chain = append(s.chain, block)
}

// Build drains the pending pool, mines a new block over it tagged with a
// reward transaction crediting miner, appends the block to the chain, and
// returns it. It is a direct, engine-free convenience for tests and
// callers that don't need the consensus engine's difficulty retargeting
// or reward bookkeeping. If ctx is cancelled before a valid nonce is
// found, the drained transactions (excluding the reward, which is never
// queued) are requeued and the chain is left unchanged.
func (s *Shard) Build(ctx context.Context, miner Address, difficulty int, reward float64, energySource EnergySource) (*Block, error) {
	block, txs := s.PrepareBlock(miner, reward)
	if _, err := block.Mine(ctx, difficulty, energySource); err != nil {
		s.Requeue(txs)
		return nil, err
	}
	s.CommitBlock(block)
	return block, nil
}

// Append validates block's chain linkage (previous hash matches the
// current tip) and proof-of-work, then appends it directly. Unlike
// CommitBlock it performs both checks itself; neither the ledger façade nor
// the coordinator calls it.
func (s *Shard) Append(block *Block, difficulty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tip := s.chain[len(s.chain)-1]
	if block.PrevHash != tip.Hash {
		return fmt.Errorf("block previous hash %q does not extend tip %q", block.PrevHash, tip.Hash)
	}
	if !block.VerifyMined(difficulty) {
		return fmt.Errorf("block %d fails proof-of-work at difficulty %d", block.Index, difficulty)
	}
	s.chain = append(s.chain, block)
	return nil
}

// Blocks returns a snapshot copy of the shard's chain.
func (s *Shard) Blocks() []*Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Block, len(s.chain))
	copy(out, s.chain)
	return out
}
