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

import "errors"

// Eligibility errors
var (
	ErrNotProposer    = errors.New("proposer does not meet the eligibility threshold")
	ErrUnknownAdapter = errors.New("ballot references an unregistered adapter configuration")
	ErrNoVotingWeight = errors.New("voter has no weight at the proposal snapshot")
)

// State errors
var (
	ErrNotConfigured          = errors.New("governor and strategy are not fully wired")
	ErrProposalNotFound       = errors.New("proposal not found")
	ErrProposalNotInitialized = errors.New("voting record not initialized for proposal")
	ErrAlreadyInitialized     = errors.New("voting record already initialized for proposal")
	ErrVotingNotStarted       = errors.New("voting has not started")
	ErrVotingClosed           = errors.New("voting period has ended")
	ErrAlreadyVoted           = errors.New("voter has already voted on this proposal")
	ErrProposalNotExecutable  = errors.New("proposal is not in an executable state")
	ErrProposalCanceled       = errors.New("proposal has been canceled")
	ErrOnlyOwner              = errors.New("caller is not the governor owner")
	ErrReentrantCall          = errors.New("reentrant call into the governor")
)

// Integrity errors
var (
	ErrInvalidTxHash    = errors.New("transaction hash does not match the stored batch")
	ErrInvalidVoteType  = errors.New("invalid vote type")
	ErrInvalidSignature = errors.New("invalid vote signature")
	ErrInvalidAlias     = errors.New("account is not derived from the claimed owner")
)

// Execution errors
var (
	ErrEmptyBatch           = errors.New("transaction batch is empty")
	ErrBatchOverflow        = errors.New("batch extends past the stored transaction list")
	ErrExecutionFailed      = errors.New("downstream transaction execution failed")
	ErrPaymasterUnsupported = errors.New("weight source has no paymaster-safe accessor")
)
