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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type voteKey struct {
	proposal uint64
	voter    common.Address
	data     common.Hash
}

// MemoryVoteTracker implements VoteTracker with in-memory storage. The
// adapter data is folded into the key by hash, so two votes with the same
// (proposal, voter) but different adapter payloads count as distinct
// tuples, exactly as the strategy requires for multi-source casts.
type MemoryVoteTracker struct {
	mu   sync.Mutex
	seen map[voteKey]struct{}
}

// NewMemoryVoteTracker creates a new in-memory vote tracker
func NewMemoryVoteTracker() *MemoryVoteTracker {
	return &MemoryVoteTracker{
		seen: make(map[voteKey]struct{}),
	}
}

// RecordVote atomically records the tuple, failing on a duplicate
func (t *MemoryVoteTracker) RecordVote(proposalID uint64, voter common.Address, data []byte) error {
	key := voteKey{proposal: proposalID, voter: voter, data: crypto.Keccak256Hash(data)}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.seen[key]; exists {
		return ErrAlreadyVoted
	}
	t.seen[key] = struct{}{}
	return nil
}

// HasVoted reports whether the tuple was already recorded
func (t *MemoryVoteTracker) HasVoted(proposalID uint64, voter common.Address, data []byte) bool {
	key := voteKey{proposal: proposalID, voter: voter, data: crypto.Keccak256Hash(data)}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.seen[key]
	return exists
}
