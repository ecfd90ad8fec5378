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

// Package executor is the transaction-execution gateway: a controller that
// owns the vault reference and an optional guard, and performs every
// guarded call on behalf of the governance core.
package executor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/stratadao/strata/envelope"
)

// Executor errors
var (
	ErrGuardRejected          = errors.New("guard rejected the transaction")
	ErrGuardLocked            = errors.New("guard configuration is locked")
	ErrNoGuard                = errors.New("no guard is set")
	ErrUnauthorized           = errors.New("caller may not change the guard")
	ErrParentApprovalRequired = errors.New("guard removal requires the vault or the parent")
	ErrVaultRejected          = errors.New("vault rejected the transaction")
)

// Vault is the account that actually holds funds and permissions. The core
// only ever uses its module-execution entry point.
type Vault interface {
	// ExecTransactionFromModule performs a call on behalf of an enabled
	// module
	ExecTransactionFromModule(to common.Address, value *uint256.Int, data []byte, op envelope.Operation) error
}

// Guard is a pluggable pre/post execution hook. The pre-check sees the
// full call parameters plus the immediate caller and may reject
// unconditionally; the post-check sees only the outcome.
type Guard interface {
	CheckTransaction(to common.Address, value *uint256.Int, data []byte, op envelope.Operation, sender common.Address) error
	CheckAfterExecution(success bool) error
}

// Controller owns a vault and target plus an optional guard and executes
// single guarded transactions. Guard mutation follows the vault-protection
// rules: the configuration can be locked permanently, and once a parent
// organization is registered, removing a guard needs the vault itself or
// the parent, so a compromised child vault cannot silently shed its
// safety guard.
type Controller struct {
	mu          sync.RWMutex
	vault       Vault
	vaultAddr   common.Address // 金库地址
	target      common.Address // 执行目标（通常等于金库）
	parent      common.Address // 父组织地址（可选）
	module      common.Address // 已授权调用方（治理模块）
	guard       Guard
	guardLocked bool
}

// NewController creates a controller for the given vault. Target defaults
// to the vault address when zero.
func NewController(vault Vault, vaultAddr, target common.Address) *Controller {
	if target == (common.Address{}) {
		target = vaultAddr
	}
	return &Controller{
		vault:     vault,
		vaultAddr: vaultAddr,
		target:    target,
	}
}

// BindModule registers the governance module whose identity is reported to
// the guard as the immediate caller
func (c *Controller) BindModule(module common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.module = module
}

// SetParent registers the parent organization address
func (c *Controller) SetParent(parent common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parent = parent
}

// Target returns the execution target address
func (c *Controller) Target() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// Exec performs one guarded transaction: guard pre-check, vault module
// execution, guard post-check with the outcome.
func (c *Controller) Exec(to common.Address, value *uint256.Int, data []byte, op envelope.Operation) error {
	c.mu.RLock()
	guard := c.guard
	sender := c.module
	c.mu.RUnlock()

	if guard != nil {
		if err := guard.CheckTransaction(to, value, data, op, sender); err != nil {
			log.Warn("Guard rejected transaction", "to", to, "err", err)
			return fmt.Errorf("%w: %w", ErrGuardRejected, err)
		}
	}

	execErr := c.vault.ExecTransactionFromModule(to, value, data, op)

	if guard != nil {
		if err := guard.CheckAfterExecution(execErr == nil); err != nil {
			return err
		}
	}
	if execErr != nil {
		return fmt.Errorf("%w: %w", ErrVaultRejected, execErr)
	}

	log.Debug("Transaction executed", "to", to, "value", value, "operation", op)
	return nil
}

// SetGuard installs a guard. Vault only; rejected once the configuration
// is locked.
func (c *Controller) SetGuard(caller common.Address, g Guard) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.guardLocked {
		return ErrGuardLocked
	}
	if caller != c.vaultAddr {
		return ErrUnauthorized
	}
	c.guard = g
	log.Info("Guard set", "vault", c.vaultAddr)
	return nil
}

// RemoveGuard removes the current guard. With a parent registered, only
// the vault itself or the parent may remove it.
func (c *Controller) RemoveGuard(caller common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.guardLocked {
		return ErrGuardLocked
	}
	if c.guard == nil {
		return ErrNoGuard
	}
	if c.parent != (common.Address{}) {
		if caller != c.vaultAddr && caller != c.parent {
			return ErrParentApprovalRequired
		}
	} else if caller != c.vaultAddr {
		return ErrUnauthorized
	}
	c.guard = nil
	log.Info("Guard removed", "vault", c.vaultAddr, "by", caller)
	return nil
}

// LockGuard permanently freezes the guard configuration. One-way; vault
// only.
func (c *Controller) LockGuard(caller common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.vaultAddr {
		return ErrUnauthorized
	}
	c.guardLocked = true
	log.Info("Guard configuration locked", "vault", c.vaultAddr)
	return nil
}

// GuardLocked reports whether the guard configuration is immutable
func (c *Controller) GuardLocked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guardLocked
}
