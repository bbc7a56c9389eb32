package core

// block.go – immutable batch of transactions with a proof-of-work header.
//
// Grounded on the teacher's core/common_structs.go Block/BlockHeader split
// and BigBossBooling's core/block.go NewBlock/HeaderForSigning shape, but
// collapsed into a single struct (no sub-blocks, no proposer signature —
// this system's consensus is pure PoW, not the teacher's hybrid PoH+PoS).

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GenesisPrevHash is the literal previous-hash value stored on the
// shard's first block.
const GenesisPrevHash = "0"

// ErrMiningCancelled is returned by Block.Mine when ctx is cancelled
// before a valid nonce is found. The block is left unmodified.
var ErrMiningCancelled = errors.New("mining cancelled")

// Block is an ordered, immutable batch of transactions extending a shard's
// chain. Index 0 is always genesis, with PrevHash == GenesisPrevHash.
type Block struct {
	Index        int64         `json:"index"`
	Transactions []Transaction `json:"transactions"`
	PrevHash     string        `json:"previous_hash"`
	Nonce        uint64        `json:"nonce"`
	Timestamp    int64         `json:"timestamp"`
	Hash         string        `json:"hash"`
	EnergySource EnergySource  `json:"energy_source,omitempty"`
}

// NewBlock constructs an unmined block at index, extending prevHash, with
// the given frozen transaction list. Timestamp is stamped once, at
// construction, so mining is reproducible in tests that fix it afterward.
func NewBlock(index int64, prevHash string, transactions []Transaction) *Block {
	frozen := make([]Transaction, len(transactions))
	copy(frozen, transactions)
	return &Block{
		Index:        index,
		Transactions: frozen,
		PrevHash:     prevHash,
		Timestamp:    time.Now().Unix(),
	}
}

// NewGenesisBlock builds shard block 0: no transactions, no predecessor,
// hash computed with nonce 0 and no energy source. Genesis is never
// required to satisfy a difficulty target.
func NewGenesisBlock() *Block {
	b := &Block{
		Index:        0,
		Transactions: []Transaction{},
		PrevHash:     GenesisPrevHash,
		Timestamp:    time.Now().Unix(),
	}
	h := b.ComputeHash()
	b.Hash = h.Hex()
	return b
}

// ComputeHash returns the content digest over the block's header fields:
// index, transactions, previous hash, nonce, timestamp, and energy source.
// Folding the energy source into this single digest, rather than keeping a
// second separate "mined hash", keeps the proof-of-work target check and
// the stored block hash the same value.
func (b *Block) ComputeHash() Hash {
	fields := map[string]interface{}{
		"index":         b.Index,
		"transactions":  b.transactionDicts(),
		"previous_hash": b.PrevHash,
		"nonce":         b.Nonce,
		"timestamp":     b.Timestamp,
		"energy_source": string(b.EnergySource),
	}
	data, err := json.Marshal(fields)
	if err != nil {
		// fields above are all JSON-safe primitives; a marshal failure here
		// would indicate a programmer error, not a runtime condition.
		panic(fmt.Sprintf("compute block hash: %v", err))
	}
	return HashBytes(data)
}

func (b *Block) transactionDicts() []map[string]interface{} {
	out := make([]map[string]interface{}, len(b.Transactions))
	for i, tx := range b.Transactions {
		sender := tx.Sender.Hex()
		if tx.senderIsNetwork {
			sender = NetworkAddress
		}
		out[i] = map[string]interface{}{
			"sender":    sender,
			"recipient": tx.Recipient.Hex(),
			"amount":    tx.Amount,
			"asset":     tx.Asset,
			"timestamp": tx.Timestamp,
			"fee":       tx.Fee,
			"signature": tx.Signature,
		}
	}
	return out
}

// leadingHexZeros reports whether h's hex representation begins with n
// zero characters.
func leadingHexZeros(h Hash, n int) bool {
	if n <= 0 {
		return true
	}
	hex := h.Hex()
	if n > len(hex) {
		return false
	}
	return strings.Count(hex[:n], "0") == n
}

// Mine searches nonces, starting from 0, until
// ComputeHash's hex form begins with difficulty leading zero characters,
// tagging the attempt with energySource. It checks ctx for cancellation
// every few thousand iterations and returns ErrMiningCancelled, leaving the
// block unmodified, if the context ends first. On success it sets Nonce,
// EnergySource, and Hash and returns the mined hash.
func (b *Block) Mine(ctx context.Context, difficulty int, energySource EnergySource) (Hash, error) {
	const cancelCheckInterval = 4096

	original := *b
	b.EnergySource = energySource
	for nonce := uint64(0); ; nonce++ {
		if nonce%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				*b = original
				return Hash{}, ErrMiningCancelled
			default:
			}
		}
		b.Nonce = nonce
		h := b.ComputeHash()
		if leadingHexZeros(h, difficulty) {
			b.Hash = h.Hex()
			return h, nil
		}
	}
}

// VerifyMined reports whether the block's stored Hash, Nonce, and
// EnergySource are mutually consistent and satisfy difficulty: recomputing
// the digest reproduces Hash, the hash meets the difficulty target, and
// the energy source is one of the recognized tags.
func (b *Block) VerifyMined(difficulty int) bool {
	if !b.EnergySource.Valid() {
		return false
	}
	h := b.ComputeHash()
	if h.Hex() != b.Hash {
		return false
	}
	return leadingHexZeros(h, difficulty)
}

// HashHex decodes the block's stored Hash field back into a Hash value.
// Chain-linkage checks compare the hex strings directly and do not use it.
func (b *Block) HashHex() (Hash, error) {
	raw, err := hex.DecodeString(b.Hash)
	if err != nil {
		return Hash{}, fmt.Errorf("decode block hash: %w", err)
	}
	var h Hash
	if len(raw) != len(h) {
		return Hash{}, fmt.Errorf("block hash has wrong length %d", len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
