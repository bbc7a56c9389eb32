package core

import (
	"encoding/hex"
	"fmt"
)

// Address is an opaque 20-byte party identifier. Routing only ever looks at
// the first hex nibble of its string form, per the coordinator's routing
// rule; the remaining bytes are never interpreted structurally.
type Address [20]byte

// AddressFromHex decodes a lowercase hex string into an Address. Inputs
// shorter than 40 hex characters are zero-padded on the right so short test
// fixtures such as "a1" remain legal addresses.
func AddressFromHex(s string) (Address, error) {
	var a Address
	if len(s) == 0 {
		return a, fmt.Errorf("empty address")
	}
	for _, c := range s {
		if !isHexChar(c) {
			return a, fmt.Errorf("non-hex character %q in address %q", c, s)
		}
	}
	padded := s
	for len(padded) < 2*len(a) {
		padded += "0"
	}
	if len(padded) > 2*len(a) {
		padded = padded[:2*len(a)]
	}
	raw, err := hex.DecodeString(padded)
	if err != nil {
		return a, fmt.Errorf("decode address %q: %w", s, err)
	}
	copy(a[:], raw)
	return a, nil
}

func isHexChar(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}

// Hex returns the full lowercase hexadecimal representation of the address.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// LeadingNibble returns the first hex character of the address, used by the
// coordinator to route transactions to shards.
func (a Address) LeadingNibble() (rune, error) {
	h := a.Hex()
	if len(h) == 0 {
		return 0, fmt.Errorf("empty address")
	}
	return rune(h[0]), nil
}

// Short returns an abbreviated form (first 4 + last 4 hex chars) for logging.
func (a Address) Short() string {
	full := a.Hex()
	if len(full) <= 8 {
		return full
	}
	return fmt.Sprintf("%s..%s", full[:4], full[len(full)-4:])
}

// NetworkAddress is the reserved pseudo-sender identity used for reward
// transactions. It is never a legal external address and its balance is
// never checked by submit.
const NetworkAddress = "Network"

// Hash is a 32-byte SHA-256 content digest.
type Hash [32]byte

// Hex returns the lowercase hex form of the hash.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Short returns an abbreviated hex form for logging.
func (h Hash) Short() string {
	full := h.Hex()
	if len(full) <= 8 {
		return full
	}
	return fmt.Sprintf("%s..%s", full[:4], full[len(full)-4:])
}

// IsZero reports whether the hash is all zero bytes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// EnergySource is a symbolic tag mixed into the proof-of-work digest,
// chosen by a miner from a fixed renewable set.
type EnergySource string

const (
	EnergySolar      EnergySource = "solar"
	EnergyWind       EnergySource = "wind"
	EnergyHydro      EnergySource = "hydro"
	EnergyGeothermal EnergySource = "geothermal"
)

// EnergySources lists every recognized tag, in the fixed order the
// consensus engine samples from.
var EnergySources = []EnergySource{EnergySolar, EnergyWind, EnergyHydro, EnergyGeothermal}

// Valid reports whether e is a recognized energy-source tag.
func (e EnergySource) Valid() bool {
	for _, s := range EnergySources {
		if s == e {
			return true
		}
	}
	return false
}
