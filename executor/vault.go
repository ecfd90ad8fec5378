// Copyright 2025 The strata Authors
// This file is part of the strata library.
//
// The strata library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The strata library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the strata library. If not, see <http://www.gnu.org/licenses/>.

package executor

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stratadao/strata/envelope"
)

// Vault errors
var (
	ErrInsufficientVaultBalance = errors.New("vault balance is insufficient")
	ErrTargetReverted           = errors.New("target call reverted")
)

// CallHandler simulates a target account reacting to a call from the
// vault. Returning an error models a reverting target.
type CallHandler func(value *uint256.Int, data []byte, op envelope.Operation) error

// ModuleVault implements Vault in memory. It tracks a balance, dispatches
// calls to registered per-target handlers and records everything it
// executed, which is enough for embeddings and tests that run without a
// real chain account.
type ModuleVault struct {
	mu       sync.Mutex
	balance  *uint256.Int
	handlers map[common.Address]CallHandler
	executed []envelope.Transaction
}

// NewModuleVault creates a vault with the given starting balance
func NewModuleVault(balance *uint256.Int) *ModuleVault {
	if balance == nil {
		balance = uint256.NewInt(0)
	}
	return &ModuleVault{
		balance:  balance.Clone(),
		handlers: make(map[common.Address]CallHandler),
	}
}

// SetHandler registers the handler invoked for calls to a target
func (v *ModuleVault) SetHandler(target common.Address, h CallHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handlers[target] = h
}

// ExecTransactionFromModule implements Vault
func (v *ModuleVault) ExecTransactionFromModule(to common.Address, value *uint256.Int, data []byte, op envelope.Operation) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if value == nil {
		value = uint256.NewInt(0)
	}
	if v.balance.Cmp(value) < 0 {
		return ErrInsufficientVaultBalance
	}
	if h, ok := v.handlers[to]; ok {
		if err := h(value, data, op); err != nil {
			return err
		}
	}
	v.balance.Sub(v.balance, value)
	v.executed = append(v.executed, envelope.Transaction{
		To: to, Value: value.Clone(), Data: append([]byte(nil), data...), Operation: op,
	})
	return nil
}

// Balance returns the remaining vault balance
func (v *ModuleVault) Balance() *uint256.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance.Clone()
}

// Executed returns a copy of every transaction the vault performed
func (v *ModuleVault) Executed() []envelope.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]envelope.Transaction(nil), v.executed...)
}
