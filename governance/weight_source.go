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

// VotesWeigher reads a voter's weight from a vote token. When the token
// keeps checkpoint history the weight is looked up at the snapshot, so
// balance changes after the snapshot instant never count; otherwise the
// live balance is used as the fallback.
type VotesWeigher struct {
	token VoteToken
}

// NewVotesWeigher creates a weigher over the given token
func NewVotesWeigher(token VoteToken) *VotesWeigher {
	return &VotesWeigher{token: token}
}

// CalculateWeight implements WeightSource. The adapter data is passed
// through unchanged for the vote tracker.
func (w *VotesWeigher) CalculateWeight(voter common.Address, snapshot uint64, data []byte) (*uint256.Int, []byte, error) {
	if ct, ok := w.token.(CheckpointToken); ok {
		return ct.GetPastVotes(voter, snapshot), data, nil
	}
	return w.token.BalanceOf(voter), data, nil
}

// WeightAt implements PaymasterWeightSource. It only walks checkpoint
// history keyed by the supplied timestamp; a token without history cannot
// serve the paymaster path because its live balance is not a function of
// the timestamp.
func (w *VotesWeigher) WeightAt(voter common.Address, timestamp uint64, data []byte) (*uint256.Int, error) {
	ct, ok := w.token.(CheckpointToken)
	if !ok {
		return nil, ErrPaymasterUnsupported
	}
	return ct.GetPastVotes(voter, timestamp), nil
}
