package core

import (
	"crypto/rsa"
	"testing"
)

type testKey struct {
	priv *rsa.PrivateKey
	addr Address
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	addr, err := AddressFromPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("AddressFromPublicKey: %v", err)
	}
	return testKey{priv: priv, addr: addr}
}

func TestNewTransactionRejectsNonPositiveAmount(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)

	cases := []float64{0, -1, -100}
	for _, amount := range cases {
		if _, err := NewTransaction(alice.addr, bob.addr, amount, ""); err != ErrNonPositiveAmount {
			t.Errorf("amount=%v: got err %v, want ErrNonPositiveAmount", amount, err)
		}
	}
}

func TestNewTransactionDefaultsAssetAndFee(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)

	tx, err := NewTransaction(alice.addr, bob.addr, 10, "")
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if tx.Asset != NativeAsset {
		t.Errorf("Asset = %q, want %q", tx.Asset, NativeAsset)
	}
	if tx.Fee != 0.1 {
		t.Errorf("Fee = %v, want 0.1", tx.Fee)
	}
	if got, want := tx.TotalCost(), 10.1; got != want {
		t.Errorf("TotalCost() = %v, want %v", got, want)
	}
}

// Property 1: content addressing — equal logical fields produce equal
// hashes, regardless of signature state.
func TestCalculateHashContentAddressing(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)

	tx1, err := NewTransaction(alice.addr, bob.addr, 10, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	tx2 := *tx1 // same fields by value

	h1, err := tx1.CalculateHash()
	if err != nil {
		t.Fatalf("CalculateHash: %v", err)
	}
	h2, err := tx2.CalculateHash()
	if err != nil {
		t.Fatalf("CalculateHash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("equal transactions produced different hashes: %s vs %s", h1.Hex(), h2.Hex())
	}

	if err := tx1.Sign(alice.priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	h3, err := tx1.CalculateHash()
	if err != nil {
		t.Fatalf("CalculateHash after sign: %v", err)
	}
	if h3 != h1 {
		t.Errorf("hash changed after signing: %s vs %s (signature must hash as empty string)", h3.Hex(), h1.Hex())
	}

	tx4, err := NewTransaction(alice.addr, bob.addr, 11, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	h4, err := tx4.CalculateHash()
	if err != nil {
		t.Fatalf("CalculateHash: %v", err)
	}
	if h4 == h1 {
		t.Errorf("different amounts produced the same hash")
	}
}

// Property 2: signature round-trip.
func TestSignVerifyRoundTrip(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)

	tx, err := NewTransaction(alice.addr, bob.addr, 5, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Sign(alice.priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !tx.Verify(&alice.priv.PublicKey) {
		t.Error("Verify() = false, want true for a freshly signed transaction")
	}
}

// Scenario 6: signature rejection under an unrelated key.
func TestVerifyRejectsWrongKey(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)
	mallory := newTestKey(t)

	tx, err := NewTransaction(alice.addr, bob.addr, 5, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Sign(alice.priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if tx.Verify(&mallory.priv.PublicKey) {
		t.Error("Verify() = true under an unrelated public key, want false")
	}
}

func TestSignTwiceFails(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)

	tx, err := NewTransaction(alice.addr, bob.addr, 5, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Sign(alice.priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := tx.Sign(alice.priv); err != ErrAlreadySigned {
		t.Errorf("second Sign() = %v, want ErrAlreadySigned", err)
	}
}

func TestVerifyUnsignedTransactionFails(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)

	tx, err := NewTransaction(alice.addr, bob.addr, 5, NativeAsset)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if tx.Verify(&alice.priv.PublicKey) {
		t.Error("Verify() = true for an unsigned transaction, want false")
	}
}

func TestRewardTransactionBypassesVerification(t *testing.T) {
	miner := newTestKey(t)
	reward := newRewardTransaction(miner.addr, 50)
	if !reward.IsNetworkReward() {
		t.Fatal("IsNetworkReward() = false for a reward transaction")
	}
	if reward.Fee != 0 {
		t.Errorf("reward Fee = %v, want 0", reward.Fee)
	}
}
