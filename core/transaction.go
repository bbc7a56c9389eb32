package core

// transaction.go – signed value-transfer transaction.
//
// Grounded on the teacher's core/transactions.go (HashTx/Sign/VerifySig
// shape: hash, then sign over the hash, then stash sender/signature) and on
// BigBossBooling's core/transaction.go canonical-payload-before-signature
// pattern, adapted to the spec's RSA-PSS primitive and key-sorted JSON
// canonical encoding instead of either teacher's ECDSA/ed25519 scheme. The
// signing algorithm itself lives in crypto.go.

import (
	"crypto/rsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// NativeAsset is the symbol of the chain's native token.
const NativeAsset = "QFC"

// FeeRate is the fixed transaction fee: 1% of the transferred amount. It is
// a protocol policy constant, never a user-supplied input.
const FeeRate = 0.01

// Sentinel errors surfaced by transaction construction and verification.
var (
	ErrNonPositiveAmount = errors.New("transaction amount must be positive")
	ErrAlreadySigned     = errors.New("transaction is already signed")
)

// Transaction is a signed transfer of amount+fee of asset from Sender to
// Recipient. It is immutable once Sign has set Signature. The content hash
// always treats Signature as the empty string, both when signing and when
// verifying, so the digest a signer produces matches the digest a verifier
// recomputes (see DESIGN.md, open question 1).
type Transaction struct {
	Sender    Address `json:"sender"`
	Recipient Address `json:"recipient"`
	Amount    float64 `json:"amount"`
	Asset     string  `json:"asset"`
	Timestamp int64   `json:"timestamp"`
	Fee       float64 `json:"fee"`
	Signature string  `json:"signature"`

	// senderIsNetwork marks a synthetic reward transaction whose sender is
	// the reserved "Network" pseudo-address; such transactions skip
	// signature verification entirely.
	senderIsNetwork bool
}

// NewTransaction constructs an unsigned transfer. The fee is computed from
// the fee-rate policy constant, not accepted from the caller.
func NewTransaction(sender, recipient Address, amount float64, asset string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if asset == "" {
		asset = NativeAsset
	}
	return &Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Asset:     asset,
		Timestamp: time.Now().Unix(),
		Fee:       amount * FeeRate,
	}, nil
}

// newRewardTransaction builds the synthetic "Network" -> miner subsidy
// transfer emitted after a successful mine. It carries no fee (the reward
// itself is the protocol issuing new supply, not a user transfer) and is
// pre-marked to bypass signature verification.
func newRewardTransaction(miner Address, amount float64) *Transaction {
	tx := &Transaction{
		Recipient:       miner,
		Amount:          amount,
		Asset:           NativeAsset,
		Timestamp:       time.Now().Unix(),
		senderIsNetwork: true,
	}
	return tx
}

// IsNetworkReward reports whether tx is a synthetic reward transaction from
// the reserved "Network" identity.
func (tx *Transaction) IsNetworkReward() bool {
	return tx.senderIsNetwork
}

// canonicalPayload returns the deterministic, key-sorted JSON encoding used
// for both content hashing and signing. The signature field is always
// serialized as the empty string: the digest used to produce a signature
// must match the digest recomputed to verify it.
func (tx *Transaction) canonicalPayload() ([]byte, error) {
	fields := map[string]interface{}{
		"sender":    tx.Sender.Hex(),
		"recipient": tx.Recipient.Hex(),
		"amount":    tx.Amount,
		"asset":     tx.Asset,
		"timestamp": tx.Timestamp,
		"fee":       tx.Fee,
		"signature": "",
	}
	if tx.senderIsNetwork {
		fields["sender"] = NetworkAddress
	}
	// encoding/json sorts map[string]interface{} keys alphabetically,
	// which is exactly the key-sorted canonical form this hash relies on.
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical transaction payload: %w", err)
	}
	return data, nil
}

// CalculateHash returns the content digest over every field except the
// signature (which is treated as the empty string for this purpose).
func (tx *Transaction) CalculateHash() (Hash, error) {
	data, err := tx.canonicalPayload()
	if err != nil {
		return Hash{}, err
	}
	return HashBytes(data), nil
}

// Sign computes the content hash and sets Signature. Signing is the
// terminal state transition for a transaction: once set, the transaction
// must not be mutated and re-signed.
func (tx *Transaction) Sign(priv *rsa.PrivateKey) error {
	if tx.Signature != "" {
		return ErrAlreadySigned
	}
	digest, err := tx.CalculateHash()
	if err != nil {
		return err
	}
	sig, err := Sign(priv, digest)
	if err != nil {
		return err
	}
	tx.Signature = hex.EncodeToString(sig)
	return nil
}

// Verify reports whether Signature is a valid RSA-PSS signature over the
// transaction's content hash under pub. It returns false (never an error)
// on any failure.
func (tx *Transaction) Verify(pub *rsa.PublicKey) bool {
	if tx.Signature == "" {
		return false
	}
	sig, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return false
	}
	digest, err := tx.CalculateHash()
	if err != nil {
		return false
	}
	return Verify(pub, digest, sig)
}

// TotalCost returns amount plus the policy fee: amount * 1.01.
func (tx *Transaction) TotalCost() float64 {
	return tx.Amount + tx.Fee
}
