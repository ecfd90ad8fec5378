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

// Package freeze implements the emergency-halt subsystem: a parent
// organization's token holders vote to freeze a child organization's
// execution rights, independent of the child's own governance outcomes.
package freeze

import (
	"errors"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/stratadao/strata/governance"
)

// Freeze errors
var (
	ErrAlreadyFreezeVoted = errors.New("voter already voted in the current freeze round")
	ErrNoFreezeWeight     = errors.New("voter has no weight at the freeze snapshot")
	ErrOnlyFreezeOwner    = errors.New("caller is not the freeze owner")
	ErrDAOFrozen          = errors.New("DAO is frozen, execution is halted")
	ErrStaleTimelock      = errors.New("timelock predates the most recent freeze")
)

// Config holds the freeze-vote parameters
type Config struct {
	Threshold      *uint256.Int // 冻结所需累计权重
	ProposalPeriod uint64       // 冻结提案有效期（秒）
	FreezePeriod   uint64       // 冻结持续期（秒，0 表示不自动解除）
}

// DefaultConfig returns the default freeze configuration
func DefaultConfig() *Config {
	return &Config{
		Threshold:      uint256.NewInt(1000),
		ProposalPeriod: 7 * 24 * 3600, // 约 7 天
		FreezePeriod:   14 * 24 * 3600,
	}
}

// FreezeVoteEvent is emitted for every accepted freeze vote.
type FreezeVoteEvent struct {
	Round  uint64
	Voter  common.Address
	Weight *uint256.Int
}

// FrozenEvent is emitted when the accumulated weight crosses the threshold.
type FrozenEvent struct {
	Round  uint64
	Frozen uint64 // 冻结时间戳
}

// Voting accumulates weighted freeze votes from the parent token's holders.
// Freeze proposals are versioned by an incrementing round id; an expired
// round is replaced wholesale on the next vote, so per-voter flags from an
// old round can never bleed into a new one.
//
// lastFreeze is a security invariant: monotonically non-decreasing and
// never cleared, even by unfreezing, because downstream guards use it to
// permanently invalidate any timelocked transaction whose clock started
// before the most recent freeze.
type Voting struct {
	mu     sync.Mutex
	config *Config
	clock  governance.Clock
	token  governance.VoteToken // 父组织代币
	owner  common.Address

	round        uint64
	roundCreated uint64 // 当前冻结提案快照时间戳
	accumulated  *uint256.Int
	voted        mapset.Set[common.Address]
	frozen       bool
	lastFreeze   uint64

	voteFeed   event.FeedOf[FreezeVoteEvent]
	frozenFeed event.FeedOf[FrozenEvent]
}

// NewVoting creates a freeze-voting instance over the parent token
func NewVoting(config *Config, clock governance.Clock, token governance.VoteToken, owner common.Address) *Voting {
	return &Voting{
		config:      config,
		clock:       clock,
		token:       token,
		owner:       owner,
		accumulated: uint256.NewInt(0),
		voted:       mapset.NewThreadUnsafeSet[common.Address](),
	}
}

// CastFreezeVote records one weighted freeze vote. If the current round
// has expired (or none exists) a fresh round opens implicitly, snapshotted
// one second in the past so historical weight lookups land strictly before
// now. Crossing the threshold freezes the DAO within the same call.
func (v *Voting) CastFreezeVote(voter common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()
	if v.roundCreated == 0 || now > v.roundCreated+v.config.ProposalPeriod {
		v.round++
		v.roundCreated = now - 1
		v.accumulated = uint256.NewInt(0)
		v.voted = mapset.NewThreadUnsafeSet[common.Address]()
		log.Info("Freeze proposal opened", "round", v.round, "snapshot", v.roundCreated)
	}

	if v.voted.Contains(voter) {
		return ErrAlreadyFreezeVoted
	}

	weight := v.weightAt(voter, v.roundCreated)
	if weight.IsZero() {
		return ErrNoFreezeWeight
	}

	v.voted.Add(voter)
	v.accumulated.Add(v.accumulated, weight)

	v.voteFeed.Send(FreezeVoteEvent{Round: v.round, Voter: voter, Weight: weight.Clone()})
	log.Info("Freeze vote cast", "round", v.round, "voter", voter,
		"weight", weight, "accumulated", v.accumulated)

	if v.accumulated.Cmp(v.config.Threshold) >= 0 && !v.isFrozen(now) {
		v.frozen = true
		if now > v.lastFreeze {
			v.lastFreeze = now
		}
		v.frozenFeed.Send(FrozenEvent{Round: v.round, Frozen: v.lastFreeze})
		log.Warn("DAO frozen", "round", v.round, "at", v.lastFreeze)
	}
	return nil
}

// weightAt looks up historical weight at the round snapshot, falling back
// to the live balance when the token keeps no checkpoint history.
func (v *Voting) weightAt(voter common.Address, snapshot uint64) *uint256.Int {
	if ct, ok := v.token.(governance.CheckpointToken); ok {
		return ct.GetPastVotes(voter, snapshot)
	}
	return v.token.BalanceOf(voter)
}

// IsFrozen reports whether execution is currently halted. A freeze with a
// configured duration lifts by itself once the period elapses; no explicit
// unfreeze is needed.
func (v *Voting) IsFrozen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isFrozen(v.clock.Now())
}

func (v *Voting) isFrozen(now uint64) bool {
	if !v.frozen {
		return false
	}
	if v.config.FreezePeriod == 0 {
		return true
	}
	return now <= v.lastFreeze+v.config.FreezePeriod
}

// Unfreeze clears the frozen flag ahead of the natural expiry. Owner only.
// lastFreeze is deliberately left untouched.
func (v *Voting) Unfreeze(caller common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.owner {
		return ErrOnlyFreezeOwner
	}
	v.frozen = false
	log.Info("DAO unfrozen", "round", v.round, "lastFreeze", v.lastFreeze)
	return nil
}

// LastFreezeTime returns the monotone timestamp of the most recent freeze
func (v *Voting) LastFreezeTime() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastFreeze
}

// Round returns the current freeze-proposal round id
func (v *Voting) Round() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.round
}

// AccumulatedWeight returns the weight gathered by the current round
func (v *Voting) AccumulatedWeight() *uint256.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.accumulated.Clone()
}

// SubscribeVotes subscribes to freeze-vote events
func (v *Voting) SubscribeVotes(ch chan<- FreezeVoteEvent) event.Subscription {
	return v.voteFeed.Subscribe(ch)
}

// SubscribeFrozen subscribes to freeze-activation events
func (v *Voting) SubscribeFrozen(ch chan<- FrozenEvent) event.Subscription {
	return v.frozenFeed.Subscribe(ch)
}
