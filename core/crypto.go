package core

// crypto.go – content hashing and signature primitives.
//
// Grounded on the teacher's core/wallet.go key-material conventions (key
// generation, deterministic hashing helpers) but using SHA-256 content
// digests and RSA-PSS (maximum salt length) signatures instead of the
// teacher's own ed25519 scheme. No repo in the retrieval pack implements
// RSA-PSS; see DESIGN.md for why this primitive is built directly on
// crypto/rsa rather than adapted from an example.

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
)

// RSAKeyBits is the modulus size used for generated signing keys.
const RSAKeyBits = 2048

// HashBytes returns the SHA-256 digest of data.
func HashBytes(data []byte) Hash {
	return sha256.Sum256(data)
}

// GenerateKey creates a fresh RSA signing key pair.
func GenerateKey() (*rsa.PrivateKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return priv, nil
}

// AddressFromPublicKey derives an Address from the DER encoding of an RSA
// public key: Address = SHA-256(DER)[:20].
func AddressFromPublicKey(pub *rsa.PublicKey) (Address, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return Address{}, fmt.Errorf("marshal public key: %w", err)
	}
	digest := sha256.Sum256(der)
	var addr Address
	copy(addr[:], digest[:len(addr)])
	return addr, nil
}

// pssOptions returns the RSA-PSS options this chain standardizes on:
// SHA-256 hash and the maximum possible salt length.
func pssOptions() *rsa.PSSOptions {
	return &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
}

// Sign produces an RSA-PSS signature over digest using priv.
func Sign(priv *rsa.PrivateKey, digest Hash) ([]byte, error) {
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], pssOptions())
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid RSA-PSS signature over digest under
// pub. It never returns an error to the caller: an invalid signature is a
// boolean false, never a bubbled exception.
func Verify(pub *rsa.PublicKey, digest Hash, sig []byte) bool {
	if pub == nil || len(sig) == 0 {
		return false
	}
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, pssOptions()) == nil
}
