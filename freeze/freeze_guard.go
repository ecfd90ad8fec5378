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

package freeze

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/stratadao/strata/envelope"
)

// Freezer is the surface the guard consumes from the voting subsystem.
type Freezer interface {
	IsFrozen() bool
	LastFreezeTime() uint64
}

// Guard is the executor pre-hook: while the DAO is frozen it blocks every
// transaction unconditionally, regardless of the transaction's own
// governance outcome.
type Guard struct {
	freezer Freezer
}

// NewGuard creates a freeze guard over the given freezer
func NewGuard(freezer Freezer) *Guard {
	return &Guard{freezer: freezer}
}

// CheckTransaction implements the executor guard pre-check
func (g *Guard) CheckTransaction(to common.Address, value *uint256.Int, data []byte, op envelope.Operation, sender common.Address) error {
	if g.freezer.IsFrozen() {
		log.Warn("Freeze guard blocked transaction", "to", to, "sender", sender)
		return ErrDAOFrozen
	}
	return nil
}

// CheckAfterExecution implements the executor guard post-check
func (g *Guard) CheckAfterExecution(success bool) error {
	return nil
}

// CheckTimelock rejects any transaction whose timelock clock started
// before the most recent freeze. The rule is permanent: it keeps holding
// after the freeze itself lifts, which is why LastFreezeTime is never
// reset.
func (g *Guard) CheckTimelock(timelockStart uint64) error {
	if timelockStart < g.freezer.LastFreezeTime() {
		return ErrStaleTimelock
	}
	return nil
}
