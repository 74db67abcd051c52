package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Signer signs attestation digests on behalf of one principal.
type Signer interface {
	Sign(digest []byte) []byte
	PublicKey() ed25519.PublicKey
	PublicKeyHex() string
}

// Ed25519Signer implementation.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func NewEd25519Signer() (*Ed25519Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("key generation failed: %w", err)
	}
	return &Ed25519Signer{priv: priv, pub: pub}, nil
}

func NewEd25519SignerFromKey(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}
}

func (s *Ed25519Signer) Sign(digest []byte) []byte {
	return ed25519.Sign(s.priv, digest)
}

func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.pub
}

func (s *Ed25519Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.pub)
}

// Verify verifies a signature over a digest against a public key.
func Verify(pub ed25519.PublicKey, digest, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, digest, sig)
}

// ParsePublicKeyHex decodes a hex-encoded Ed25519 public key.
func ParsePublicKeyHex(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid public key hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key size: %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
