package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionDigestDeterministic(t *testing.T) {
	a := DecisionDigest(5, true, "oracle-1", "testnet")
	b := DecisionDigest(5, true, "oracle-1", "testnet")
	assert.Equal(t, a, b)
}

func TestDecisionDigestSeparatesInputs(t *testing.T) {
	base := DecisionDigest(5, true, "oracle-1", "testnet")
	assert.NotEqual(t, base, DecisionDigest(6, true, "oracle-1", "testnet"))
	assert.NotEqual(t, base, DecisionDigest(5, false, "oracle-1", "testnet"))
	assert.NotEqual(t, base, DecisionDigest(5, true, "oracle-2", "testnet"))
	assert.NotEqual(t, base, DecisionDigest(5, true, "oracle-1", "mainnet"))
}

func TestSignAndVerify(t *testing.T) {
	s, err := NewEd25519Signer()
	require.NoError(t, err)

	digest := DecisionDigest(1, true, "oracle-1", "testnet")
	sig := s.Sign(digest[:])
	assert.True(t, Verify(s.PublicKey(), digest[:], sig))

	other := DecisionDigest(2, true, "oracle-1", "testnet")
	assert.False(t, Verify(s.PublicKey(), other[:], sig))
}

func TestParsePublicKeyHex(t *testing.T) {
	s, err := NewEd25519Signer()
	require.NoError(t, err)

	pub, err := ParsePublicKeyHex(s.PublicKeyHex())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(s.PublicKey(), pub))

	_, err = ParsePublicKeyHex("not-hex")
	assert.Error(t, err)
	_, err = ParsePublicKeyHex("abcd")
	assert.Error(t, err)
}

func TestKeyringDeterministicDerivation(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)
	k1, err := NewKeyring(seed)
	require.NoError(t, err)
	k2, err := NewKeyring(seed)
	require.NoError(t, err)

	a, err := k1.DeriveSigner("agent-a")
	require.NoError(t, err)
	b, err := k2.DeriveSigner("agent-a")
	require.NoError(t, err)
	assert.Equal(t, a.PublicKeyHex(), b.PublicKeyHex())

	c, err := k1.DeriveSigner("agent-b")
	require.NoError(t, err)
	assert.NotEqual(t, a.PublicKeyHex(), c.PublicKeyHex())

	_, err = k1.DeriveSigner("")
	assert.Error(t, err)
	_, err = NewKeyring([]byte("short"))
	assert.Error(t, err)
}
