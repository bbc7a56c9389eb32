package core

// wallet.go – deterministic key material for reproducible wallets.
//
// Grounded on the teacher's core/wallet.go HD wallet: BIP-39 mnemonic
// generation (github.com/tyler-smith/go-bip39) feeding a deterministic
// seed, and a SHA-256 -> RIPEMD-160 fingerprint chain
// (golang.org/x/crypto/ripemd160) used there to derive the wallet's
// address. This repo's canonical Address is instead the RSA public key
// fingerprint used throughout core/crypto.go, so the RIPEMD-160 chain is
// kept as a secondary, human-facing wallet fingerprint (distinct from the
// routable Address) rather than replacing the routing identity.

import (
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ripemd160"
)

// MnemonicEntropyBits is the entropy size used for generated mnemonics
// (256 bits -> a 24-word phrase), matching the teacher's HD wallet.
const MnemonicEntropyBits = 256

// NewMnemonic generates a fresh BIP-39 mnemonic phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("derive mnemonic: %w", err)
	}
	return mnemonic, nil
}

// GenerateKeyFromMnemonic deterministically derives an RSA signing key
// from a BIP-39 mnemonic and passphrase: the mnemonic's 512-bit seed feeds
// an HMAC-SHA256 counter-mode stream that stands in for the random reader
// rsa.GenerateKey normally draws from, so the same mnemonic and
// passphrase always yield the same key pair. This is the one deterministic
// key-derivation path in this package; GenerateKey remains the default for
// callers that don't need reproducibility.
func GenerateKeyFromMnemonic(mnemonic, passphrase string) (*rsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	priv, err := rsa.GenerateKey(newSeededReader(seed), RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("derive key from mnemonic: %w", err)
	}
	return priv, nil
}

// seededReader is a deterministic io.Reader expanding a fixed seed into an
// arbitrarily long keystream via HMAC-SHA256 counter mode.
type seededReader struct {
	seed    []byte
	counter uint64
	buf     []byte
}

func newSeededReader(seed []byte) *seededReader {
	return &seededReader{seed: seed}
}

func (r *seededReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.buf) == 0 {
			var ctr [8]byte
			binary.BigEndian.PutUint64(ctr[:], r.counter)
			r.counter++
			mac := hmac.New(sha256.New, r.seed)
			mac.Write(ctr[:])
			r.buf = mac.Sum(nil)
		}
		c := copy(p[n:], r.buf)
		r.buf = r.buf[c:]
		n += c
	}
	return n, nil
}

var _ io.Reader = (*seededReader)(nil)

// Fingerprint returns a human-facing wallet identifier for pub: the
// RIPEMD-160 digest of the SHA-256 digest of its DER encoding, hex
// encoded. It is for display only — the ledger's routable Address is
// AddressFromPublicKey, not this value.
func Fingerprint(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sha := sha256.Sum256(der)
	ripemd := ripemd160.New()
	if _, err := ripemd.Write(sha[:]); err != nil {
		return "", fmt.Errorf("ripemd160 digest: %w", err)
	}
	return hex.EncodeToString(ripemd.Sum(nil)), nil
}
