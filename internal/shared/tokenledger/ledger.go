package tokenledger

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
)

var (
	ErrInsufficientFunds = errors.New("insufficient token balance")
	ErrInvalidAccount    = errors.New("invalid token account")
	ErrBalanceOverflow   = errors.New("token balance overflow")
)

// Ledger is the in-process token custody collaborator. Each Transfer/MintTo
// call applies atomically under the ledger lock: a failed precondition leaves
// every balance untouched. Real custody lives outside this engine; the
// accounting core only depends on the atomic, fail-clean contract.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

func New() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

// NewSeeded builds a ledger with initial balances, used by tests and the
// in-memory bootstrap.
func NewSeeded(seed map[string]uint64) *Ledger {
	ledger := New()
	for account, amount := range seed {
		ledger.balances[strings.TrimSpace(account)] = amount
	}
	return ledger
}

func (l *Ledger) Transfer(_ context.Context, from string, to string, amount uint64) error {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" || from == to {
		return ErrInvalidAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	source := l.balances[from]
	if source < amount {
		return ErrInsufficientFunds
	}
	dest := l.balances[to]
	if amount > math.MaxUint64-dest {
		return ErrBalanceOverflow
	}
	l.balances[from] = source - amount
	l.balances[to] = dest + amount
	return nil
}

func (l *Ledger) MintTo(_ context.Context, to string, amount uint64) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrInvalidAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	dest := l.balances[to]
	if amount > math.MaxUint64-dest {
		return ErrBalanceOverflow
	}
	l.balances[to] = dest + amount
	return nil
}

func (l *Ledger) BalanceOf(_ context.Context, account string) (uint64, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return 0, ErrInvalidAccount
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account], nil
}
