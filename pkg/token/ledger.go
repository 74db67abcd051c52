// Package token is a minimal fungible ledger for the bonding asset and the
// payout asset. The oracle parks stakes in it and the vault holds pool
// custody in it; Burn implements the destroy leg of buyback.
package token

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrZeroAmount          = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownAsset        = errors.New("unknown asset")
)

// Ledger tracks balances per (asset, account).
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]map[string]int64 // asset -> account -> balance
	supply   map[string]int64            // asset -> total supply
	burned   map[string]int64            // asset -> cumulative burned
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]map[string]int64),
		supply:   make(map[string]int64),
		burned:   make(map[string]int64),
	}
}

// Mint creates amount units of asset in account.
func (l *Ledger) Mint(asset, account string, amount int64) error {
	if amount <= 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(asset, account, amount)
	l.supply[asset] += amount
	return nil
}

// Burn destroys amount units of asset held by account.
func (l *Ledger) Burn(asset, account string, amount int64) error {
	if amount <= 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.debit(asset, account, amount); err != nil {
		return err
	}
	l.supply[asset] -= amount
	l.burned[asset] += amount
	return nil
}

// Transfer moves amount units of asset between accounts atomically.
func (l *Ledger) Transfer(asset, from, to string, amount int64) error {
	if amount <= 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.debit(asset, from, amount); err != nil {
		return err
	}
	l.credit(asset, to, amount)
	return nil
}

// BalanceOf returns the balance of account in asset.
func (l *Ledger) BalanceOf(asset, account string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[asset][account]
}

// TotalSupply returns the circulating supply of asset.
func (l *Ledger) TotalSupply(asset string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply[asset]
}

// TotalBurned returns the cumulative amount of asset ever destroyed.
func (l *Ledger) TotalBurned(asset string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.burned[asset]
}

func (l *Ledger) credit(asset, account string, amount int64) {
	accounts, ok := l.balances[asset]
	if !ok {
		accounts = make(map[string]int64)
		l.balances[asset] = accounts
	}
	accounts[account] += amount
}

func (l *Ledger) debit(asset, account string, amount int64) error {
	accounts, ok := l.balances[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if accounts[account] < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientBalance, account, accounts[account], amount)
	}
	accounts[account] -= amount
	return nil
}
