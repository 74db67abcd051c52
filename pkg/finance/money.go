// Package finance holds the integer money arithmetic shared by the vault
// and the token ledger. All amounts are minor units; no floats anywhere.
package finance

import (
	"errors"
	"fmt"
)

// Money represents a monetary value of a specific asset.
// It uses integer math (minor units) to avoid floating point errors.
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Asset       string `json:"asset"`
}

// NewMoney creates a new Money instance.
func NewMoney(amount int64, asset string) Money {
	return Money{AmountMinor: amount, Asset: asset}
}

// Add adds two Money amounts. Returns error on asset mismatch.
func (m Money) Add(other Money) (Money, error) {
	if m.Asset != other.Asset {
		return Money{}, fmt.Errorf("asset mismatch: %s vs %s", m.Asset, other.Asset)
	}
	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Asset: m.Asset}, nil
}

// Sub subtracts other Money from m. Returns error on asset mismatch.
func (m Money) Sub(other Money) (Money, error) {
	if m.Asset != other.Asset {
		return Money{}, fmt.Errorf("asset mismatch: %s vs %s", m.Asset, other.Asset)
	}
	return Money{AmountMinor: m.AmountMinor - other.AmountMinor, Asset: m.Asset}, nil
}

// IsZero returns true if the amount is 0.
func (m Money) IsZero() bool {
	return m.AmountMinor == 0
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.AmountMinor, m.Asset)
}

// ErrBadPercent is returned for fee percentages outside [0, 100].
var ErrBadPercent = errors.New("percent out of range")

// SplitFee divides amount into the recipient share and the fee slice for a
// whole-number fee percent. The split is exact: share + fee == amount, with
// rounding in the recipient's favor going to the fee (share is the floor of
// amount*(100-feePct)/100).
func SplitFee(amount int64, feePct int) (share, fee int64, err error) {
	if feePct < 0 || feePct > 100 {
		return 0, 0, ErrBadPercent
	}
	share = amount * int64(100-feePct) / 100
	fee = amount - share
	return share, fee, nil
}
