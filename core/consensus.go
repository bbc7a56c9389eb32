package core

// consensus.go – proof-of-work mining, adaptive difficulty, reward emission.
//
// Grounded on the teacher's core/consensus.go SealMainBlockPOW (nonce
// search loop) and retargetDifficulty/DistributeRewards shape, and on
// core/consensus_difficulty.go's ConsensusStatus read accessor. The
// teacher's hybrid PoH+PoS+PoW protocol and its proportional big.Float
// retarget and 30/30/40 validator reward split are not carried forward:
// this system has no sub-blocks and no validator set, so retargeting uses
// a simple +-1 step and the full reward goes to the miner.

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Consensus policy constants (spec section 6).
const (
	BaseReward         = 50
	HalvingInterval    = 210000
	InitialDifficulty  = 4
	TargetBlockTime    = 60 * time.Second
	AdjustmentInterval = 10
	TotalSupply        = 1_000_000_000
)

// ConsensusStatus is a point-in-time read of the engine's shared state.
type ConsensusStatus struct {
	Difficulty   int
	SampleCount  int
	SuccessfulMines int64
}

// Engine drives proof-of-work across every shard: it owns the single
// process-wide difficulty counter and the rolling sample window used to
// retarget it. Difficulty is shared state, not per-shard, per spec
// section 4.5 ("Difficulty is a single process-wide integer shared across
// all shards").
type Engine struct {
	mu                 sync.Mutex
	difficulty         int
	targetBlockTime    time.Duration
	adjustmentInterval int
	samples            []time.Duration
	successfulMines    int64

	log *logrus.Entry
}

// NewEngine builds a consensus engine starting at initialDifficulty,
// retargeting every adjustmentInterval successful mines toward
// targetBlockTime.
func NewEngine(initialDifficulty int, targetBlockTime time.Duration, adjustmentInterval int) *Engine {
	if initialDifficulty < 1 {
		initialDifficulty = 1
	}
	return &Engine{
		difficulty:         initialDifficulty,
		targetBlockTime:    targetBlockTime,
		adjustmentInterval: adjustmentInterval,
		log:                logrus.WithField("component", "consensus"),
	}
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.difficulty
}

// SetDifficulty is an operational escape hatch for tests and tooling that
// need to pin difficulty rather than let it drift through retargeting.
func (e *Engine) SetDifficulty(d int) {
	if d < 1 {
		d = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.difficulty = d
}

// Status returns a snapshot of the engine's shared counters.
func (e *Engine) Status() ConsensusStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ConsensusStatus{
		Difficulty:      e.difficulty,
		SampleCount:     len(e.samples),
		SuccessfulMines: e.successfulMines,
	}
}

// MineBlock selects an energy source uniformly at random, mines block at
// the current difficulty, records the search duration, and retargets
// difficulty if a full sample window has accumulated. It returns
// ErrMiningCancelled, unmodified, if ctx ends before a valid nonce is
// found.
func (e *Engine) MineBlock(ctx context.Context, block *Block) error {
	difficulty := e.Difficulty()
	source := e.randomEnergySource()

	start := time.Now()
	if _, err := block.Mine(ctx, difficulty, source); err != nil {
		return err
	}
	elapsed := time.Since(start)

	e.recordSample(elapsed)
	e.log.WithFields(logrus.Fields{
		"index":         block.Index,
		"difficulty":    difficulty,
		"energy_source": string(source),
		"elapsed":       elapsed,
	}).Info("block mined")
	return nil
}

func (e *Engine) randomEnergySource() EnergySource {
	return EnergySources[rand.Intn(len(EnergySources))]
}

// recordSample appends a mining duration to the rolling window and
// retargets difficulty once adjustmentInterval samples have accumulated.
func (e *Engine) recordSample(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.samples = append(e.samples, d)
	e.successfulMines++
	if len(e.samples) < e.adjustmentInterval {
		return
	}

	mean := meanDuration(e.samples)
	before := e.difficulty
	switch {
	case mean < e.targetBlockTime:
		e.difficulty++
	case mean > e.targetBlockTime:
		e.difficulty--
		if e.difficulty < 1 {
			e.difficulty = 1
		}
	}
	if e.difficulty != before {
		e.log.WithFields(logrus.Fields{
			"mean_duration": mean,
			"from":          before,
			"to":            e.difficulty,
		}).Info("difficulty retargeted")
	}
	e.samples = nil
}

func meanDuration(samples []time.Duration) time.Duration {
	var total time.Duration
	for _, s := range samples {
		total += s
	}
	return total / time.Duration(len(samples))
}

// RewardForIndex returns the block subsidy due at the given shard-local
// block index: max(1, BaseReward >> halvings), halvings = index /
// HalvingInterval.
func RewardForIndex(index int64) float64 {
	halvings := index / HalvingInterval
	reward := int64(BaseReward)
	if halvings > 0 {
		if halvings >= 63 {
			reward = 0
		} else {
			reward >>= uint(halvings)
		}
	}
	if reward < 1 {
		reward = 1
	}
	return float64(reward)
}
