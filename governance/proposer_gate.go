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

package governance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ThresholdProposerGate implements ProposerGate as a pure threshold check
// against current delegated weight.
type ThresholdProposerGate struct {
	token     VoteToken
	threshold *uint256.Int
}

// NewThresholdProposerGate creates a gate requiring at least threshold
// delegated weight to propose
func NewThresholdProposerGate(token VoteToken, threshold *uint256.Int) *ThresholdProposerGate {
	return &ThresholdProposerGate{token: token, threshold: threshold}
}

// IsProposer returns true if the address holds at least the configured
// delegated weight. The adapter data is unused by this gate.
func (g *ThresholdProposerGate) IsProposer(addr common.Address, data []byte) bool {
	return g.token.GetVotes(addr).Cmp(g.threshold) >= 0
}
