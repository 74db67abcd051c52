// Package crypto implements the attestation signature scheme used by the
// trust oracle: domain-separated SHA-256 digests over the decision tuple,
// signed with Ed25519.
package crypto

import (
	"crypto/sha256"
	"encoding/binary"
)

// domainTag separates attestation digests from any other signed payload.
const domainTag = "veristake/attest/v1"

// DecisionDigest computes the message an agent signs to decide a claim:
// SHA-256(domainTag ‖ claimID ‖ decision ‖ oracleID ‖ networkID).
// The oracle instance id and network id bind a signature to one deployment
// so it cannot be replayed elsewhere.
func DecisionDigest(claimID uint64, approve bool, oracleID, networkID string) [32]byte {
	h := sha256.New()
	h.Write([]byte(domainTag))

	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], claimID)
	h.Write(idBuf[:])

	if approve {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write([]byte(oracleID))
	h.Write([]byte(networkID))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
