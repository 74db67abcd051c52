package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Keyring derives deterministic per-agent signing keys from a master seed
// using HKDF-SHA256. Each agent id maps to a unique, reproducible Ed25519
// keypair, which keeps dev deployments and test fixtures stable without
// storing key material per agent.
type Keyring struct {
	seed []byte
}

// NewKeyring creates a keyring from a 32-byte master seed.
func NewKeyring(seed []byte) (*Keyring, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	k := &Keyring{seed: make([]byte, len(seed))}
	copy(k.seed, seed)
	return k, nil
}

// DeriveSigner derives the signer for an agent id.
func (k *Keyring) DeriveSigner(agentID string) (*Ed25519Signer, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agentID must not be empty")
	}
	r := hkdf.New(sha256.New, k.seed, nil, []byte("veristake/agent-key/"+agentID))
	derived := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, fmt.Errorf("hkdf derive: %w", err)
	}
	return NewEd25519SignerFromKey(ed25519.NewKeyFromSeed(derived)), nil
}
