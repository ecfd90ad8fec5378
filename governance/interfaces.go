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

	"github.com/stratadao/strata/envelope"
)

// Clock provides the ledger's view of current time and block height. The
// paymaster-safe voting path deliberately never touches it.
type Clock interface {
	// Now returns the current unix timestamp in seconds
	Now() uint64

	// BlockNumber returns the current block height
	BlockNumber() uint64
}

// VoteToken is the narrow surface the core consumes from an ERC-20-like
// vote source. Token bookkeeping itself lives outside the core.
type VoteToken interface {
	// BalanceOf returns the current balance of an account
	BalanceOf(account common.Address) *uint256.Int

	// GetVotes returns the current delegated voting weight of an account
	GetVotes(account common.Address) *uint256.Int
}

// CheckpointToken is the optional historical-lookup capability of a vote
// token. Weight sources fall back to live balances when a token does not
// implement it.
type CheckpointToken interface {
	// GetPastVotes returns the voting weight of an account at a past
	// snapshot (block height or timestamp, depending on the caller)
	GetPastVotes(account common.Address, snapshot uint64) *uint256.Int
}

// WeightSource computes a voter's weight at a past snapshot. Must be
// reproducible: the same inputs always yield the same weight, regardless of
// balance changes after the snapshot instant.
type WeightSource interface {
	// CalculateWeight returns the voter's weight at the snapshot together
	// with the processed adapter data handed to the vote tracker
	CalculateWeight(voter common.Address, snapshot uint64, data []byte) (*uint256.Int, []byte, error)
}

// PaymasterWeightSource is the read-only counterpart of WeightSource used
// during signature validation for fee-sponsored votes. It takes an explicit
// timestamp instead of consulting the live clock.
type PaymasterWeightSource interface {
	// WeightAt returns the voter's weight at the given timestamp
	WeightAt(voter common.Address, timestamp uint64, data []byte) (*uint256.Int, error)
}

// VoteTracker records that an identity voted on a proposal and rejects
// duplicates for the same (proposal, voter, data) tuple.
type VoteTracker interface {
	// RecordVote records a vote, failing with ErrAlreadyVoted on a repeat
	RecordVote(proposalID uint64, voter common.Address, data []byte) error

	// HasVoted reports whether the tuple was already recorded
	HasVoted(proposalID uint64, voter common.Address, data []byte) bool
}

// ProposerGate decides whether an address may submit proposals.
type ProposerGate interface {
	// IsProposer returns true if the address meets the proposer threshold
	IsProposer(addr common.Address, data []byte) bool
}

// SignerResolver derives the deterministic proxy account of an owner so a
// vote submitted through the proxy can be credited to the owner's weight.
type SignerResolver interface {
	// Derive returns the proxy address for (owner, index)
	Derive(owner common.Address, index uint64) common.Address
}

// Strategy is the voting charter consulted by the governor. Implementations
// own the voting records; the governor owns the proposals.
type Strategy interface {
	// InitializeProposal opens the voting window for a proposal. Called by
	// the governor exactly once per proposal.
	InitializeProposal(proposalID uint64) error

	// IsPassed reports whether voting ended with quorum and basis met
	IsPassed(proposalID uint64) bool

	// VotingEnd returns the end timestamp of the proposal's voting window
	VotingEnd(proposalID uint64) (uint64, error)

	// IsProposer checks proposer eligibility for the governor
	IsProposer(addr common.Address, data []byte) bool
}

// TransactionExecutor routes an approved transaction through the guarded
// vault gateway.
type TransactionExecutor interface {
	// Exec performs a single guarded transaction
	Exec(to common.Address, value *uint256.Int, data []byte, op envelope.Operation) error
}
