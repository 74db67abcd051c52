// Package exchange is the price-quote collaborator used by the vault's
// buyback leg. Production deployments point it at a real venue; tests use
// the fixed-rate table.
package exchange

import (
	"fmt"
	"sync"
)

// Quoter converts an input amount of one asset into another.
type Quoter interface {
	Quote(amountIn int64, assetIn, assetOut string) (int64, error)
}

// Rate expresses a price as a ratio so the math stays in integers.
type Rate struct {
	Num int64
	Den int64
}

// FixedRate is a Quoter backed by a static rate table.
type FixedRate struct {
	mu    sync.RWMutex
	rates map[string]Rate // "in/out" -> rate
}

func NewFixedRate() *FixedRate {
	return &FixedRate{rates: make(map[string]Rate)}
}

// SetRate installs the conversion rate from assetIn to assetOut.
func (f *FixedRate) SetRate(assetIn, assetOut string, r Rate) error {
	if r.Num <= 0 || r.Den <= 0 {
		return fmt.Errorf("rate must be positive: %d/%d", r.Num, r.Den)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates[assetIn+"/"+assetOut] = r
	return nil
}

func (f *FixedRate) Quote(amountIn int64, assetIn, assetOut string) (int64, error) {
	if amountIn <= 0 {
		return 0, fmt.Errorf("amountIn must be positive")
	}
	f.mu.RLock()
	r, ok := f.rates[assetIn+"/"+assetOut]
	f.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("no rate for %s/%s", assetIn, assetOut)
	}
	return amountIn * r.Num / r.Den, nil
}
