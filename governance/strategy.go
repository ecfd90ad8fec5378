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
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/stratadao/strata/envelope"
)

// LinearStrategy implements Strategy with linear (one token, one vote)
// weight accumulation over pluggable adapters. It owns the voting records;
// the governor owns the proposals and is the only caller of
// InitializeProposal.
//
// The voting window is deliberately offset forward: the weight snapshot at
// StartBlock reflects balances fixed before the proposal existed, so weight
// borrowed in the block a proposal appears is worth nothing.
type LinearStrategy struct {
	mu       sync.RWMutex
	config   *StrategyConfig
	clock    Clock
	domain   common.Hash
	governor *Governor

	records  map[uint64]*VotingRecord
	adapters []AdapterConfig
	gate     ProposerGate
	resolver SignerResolver

	voteFeed event.FeedOf[VoteCastEvent]
	initFeed event.FeedOf[VotingInitializedEvent]
}

// NewLinearStrategy creates a strategy. The governor reference is wired
// afterwards via BindGovernor; until then the strategy rejects all
// proposal-scoped operations.
func NewLinearStrategy(config *StrategyConfig, clock Clock, domain common.Hash, gate ProposerGate) *LinearStrategy {
	return &LinearStrategy{
		config:  config,
		clock:   clock,
		domain:  domain,
		gate:    gate,
		records: make(map[uint64]*VotingRecord),
	}
}

// BindGovernor completes the two-phase construction. The governor and the
// strategy each need the other before either is usable, so both are built
// unbound and wired here.
func (s *LinearStrategy) BindGovernor(g *Governor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.governor = g
}

// SetResolver installs the proxy-account resolver used for alias votes
func (s *LinearStrategy) SetResolver(r SignerResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver = r
}

// RegisterAdapter adds an adapter configuration and returns its index.
// Ballots reference configurations by this index.
func (s *LinearStrategy) RegisterAdapter(cfg AdapterConfig) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapters = append(s.adapters, cfg)
	return len(s.adapters) - 1
}

// InitializeProposal opens the voting window for a proposal. Called by the
// governor during submission; re-initialization is detected through the
// non-zero end timestamp and rejected.
func (s *LinearStrategy) InitializeProposal(proposalID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.governor == nil {
		return ErrNotConfigured
	}
	if rec, exists := s.records[proposalID]; exists && rec.VotingEnd != 0 {
		return ErrAlreadyInitialized
	}

	now := s.clock.Now()
	start := now + s.config.VotingDelay
	rec := &VotingRecord{
		VotingStart:   start,
		VotingEnd:     start + s.config.VotingPeriod,
		StartBlock:    s.clock.BlockNumber() + s.config.VotingDelayBlocks,
		NoWeight:      uint256.NewInt(0),
		YesWeight:     uint256.NewInt(0),
		AbstainWeight: uint256.NewInt(0),
	}
	s.records[proposalID] = rec

	s.initFeed.Send(VotingInitializedEvent{
		ProposalID:  proposalID,
		VotingStart: rec.VotingStart,
		VotingEnd:   rec.VotingEnd,
		StartBlock:  rec.StartBlock,
	})
	log.Info("Voting window initialized", "proposal", proposalID,
		"start", rec.VotingStart, "end", rec.VotingEnd, "snapshotBlock", rec.StartBlock)
	return nil
}

// CastVote records a vote from caller. If owner is non-zero the vote is an
// alias vote: caller must be the proxy account derived from (owner,
// aliasIndex), and the owner's weight is used.
//
// A vote arriving after the window closed is swallowed silently exactly
// once per proposal (the late-vote marker consumed by gasless relayers to
// detect stale submissions); every later attempt fails with
// ErrVotingClosed.
func (s *LinearStrategy) CastVote(caller common.Address, proposalID uint64, choice VoteType, ballots []Ballot, owner common.Address, aliasIndex uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.castVote(caller, proposalID, choice, ballots, owner, aliasIndex)
}

// CastSignedVote records a vote relayed on behalf of a signer. The voter
// identity is recovered from the signature over the domain-separated vote
// digest, so the relayer itself needs no standing.
func (s *LinearStrategy) CastSignedVote(proposalID uint64, choice VoteType, ballots []Ballot, sig []byte) error {
	digest := envelope.VoteDigest(s.domain, proposalID, uint8(choice))
	pubkey, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return ErrInvalidSignature
	}
	voter := crypto.PubkeyToAddress(*pubkey)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.castVote(voter, proposalID, choice, ballots, common.Address{}, 0)
}

func (s *LinearStrategy) castVote(caller common.Address, proposalID uint64, choice VoteType, ballots []Ballot, owner common.Address, aliasIndex uint64) error {
	rec, exists := s.records[proposalID]
	if !exists || rec.VotingEnd == 0 {
		return ErrProposalNotInitialized
	}

	now := s.clock.Now()
	if now < rec.VotingStart {
		return ErrVotingNotStarted
	}
	if now > rec.VotingEnd {
		if !rec.LateVoteSeen {
			rec.LateVoteSeen = true
			log.Warn("Late vote observed", "proposal", proposalID, "voter", caller)
			return nil
		}
		return ErrVotingClosed
	}

	voter, err := s.resolveVoter(caller, owner, aliasIndex)
	if err != nil {
		return err
	}

	var tally *uint256.Int
	switch choice {
	case VoteNo:
		tally = rec.NoWeight
	case VoteYes:
		tally = rec.YesWeight
	case VoteAbstain:
		tally = rec.AbstainWeight
	default:
		return ErrInvalidVoteType
	}

	// Validate every ballot before recording any of them. A rejected cast
	// must leave no tracker record behind, or the voter's retry with the
	// valid ballots alone would be refused as a duplicate.
	type pendingVote struct {
		tracker   VoteTracker
		processed []byte
	}
	type castKey struct {
		adapter int
		data    string
	}
	pending := make([]pendingVote, 0, len(ballots))
	seen := make(map[castKey]struct{}, len(ballots))
	total := uint256.NewInt(0)
	for _, b := range ballots {
		if b.AdapterIndex < 0 || b.AdapterIndex >= len(s.adapters) {
			return ErrUnknownAdapter
		}
		ad := s.adapters[b.AdapterIndex]

		weight, processed, err := ad.Weigher.CalculateWeight(voter, rec.StartBlock, b.Data)
		if err != nil {
			return err
		}
		if weight.IsZero() {
			return ErrNoVotingWeight
		}
		if ad.Tracker.HasVoted(proposalID, voter, processed) {
			return ErrAlreadyVoted
		}
		key := castKey{adapter: b.AdapterIndex, data: string(processed)}
		if _, dup := seen[key]; dup {
			return ErrAlreadyVoted
		}
		seen[key] = struct{}{}

		pending = append(pending, pendingVote{tracker: ad.Tracker, processed: processed})
		total.Add(total, weight)
	}
	if total.IsZero() {
		return ErrNoVotingWeight
	}

	// All ballots validated under the strategy lock; recording cannot
	// observe a duplicate the checks above missed.
	for _, pv := range pending {
		if err := pv.tracker.RecordVote(proposalID, voter, pv.processed); err != nil {
			return err
		}
	}

	tally.Add(tally, total)

	s.voteFeed.Send(VoteCastEvent{
		ProposalID: proposalID,
		Voter:      voter,
		Choice:     choice,
		Weight:     total.Clone(),
	})
	log.Debug("Vote cast", "proposal", proposalID, "voter", voter,
		"choice", choice, "weight", total)
	return nil
}

// resolveVoter returns the effective voter identity. Alias votes prove the
// caller is the owner's deterministically derived proxy.
func (s *LinearStrategy) resolveVoter(caller, owner common.Address, aliasIndex uint64) (common.Address, error) {
	if owner == (common.Address{}) {
		return caller, nil
	}
	if s.resolver == nil || s.resolver.Derive(owner, aliasIndex) != caller {
		return common.Address{}, ErrInvalidAlias
	}
	return owner, nil
}

// ValidVote is the paymaster-safe variant of the vote checks: it reads no
// clock and mutates nothing, so it is usable from signature-validation
// contexts that forbid time and height access. The caller supplies the
// reference timestamp explicitly.
func (s *LinearStrategy) ValidVote(proposalID uint64, voter common.Address, timestamp uint64, ballots []Ballot) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.records[proposalID]; !exists {
		return false, ErrProposalNotInitialized
	}

	for _, b := range ballots {
		if b.AdapterIndex < 0 || b.AdapterIndex >= len(s.adapters) {
			return false, ErrUnknownAdapter
		}
		ad := s.adapters[b.AdapterIndex]

		pw, ok := ad.Weigher.(PaymasterWeightSource)
		if !ok {
			return false, ErrPaymasterUnsupported
		}
		weight, err := pw.WeightAt(voter, timestamp, b.Data)
		if err != nil {
			return false, err
		}
		if weight.IsZero() {
			return false, nil
		}
		if ad.Tracker.HasVoted(proposalID, voter, b.Data) {
			return false, nil
		}
	}
	return len(ballots) > 0, nil
}

// IsQuorumMet reports whether participating weight reached the quorum
// threshold. NO votes deliberately do not count: an abstention is
// "present", a rejection is "absent", so organized no-voting cannot starve
// quorum.
func (s *LinearStrategy) IsQuorumMet(proposalID uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[proposalID]
	if !exists {
		return false
	}
	return s.quorumMet(rec)
}

func (s *LinearStrategy) quorumMet(rec *VotingRecord) bool {
	participating := new(uint256.Int).Add(rec.YesWeight, rec.AbstainWeight)
	return participating.Cmp(s.config.QuorumThreshold) >= 0
}

// IsBasisMet reports whether the YES share of (YES+NO) strictly exceeds the
// configured basis. A tie fails.
func (s *LinearStrategy) IsBasisMet(proposalID uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[proposalID]
	if !exists {
		return false
	}
	return s.basisMet(rec)
}

func (s *LinearStrategy) basisMet(rec *VotingRecord) bool {
	// yes * DENOM > (yes + no) * numerator, in 256-bit arithmetic; the
	// products overflow uint64 for realistic token supplies.
	lhs := new(uint256.Int).Mul(rec.YesWeight, uint256.NewInt(BasisDenominator))
	contested := new(uint256.Int).Add(rec.YesWeight, rec.NoWeight)
	rhs := contested.Mul(contested, uint256.NewInt(s.config.BasisNumerator))
	return lhs.Cmp(rhs) > 0
}

// IsPassed reports whether voting ended with both quorum and basis met
func (s *LinearStrategy) IsPassed(proposalID uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[proposalID]
	if !exists || rec.VotingEnd == 0 {
		return false
	}
	if s.clock.Now() <= rec.VotingEnd {
		return false
	}
	return s.quorumMet(rec) && s.basisMet(rec)
}

// VotingEnd returns the end timestamp of the proposal's voting window
func (s *LinearStrategy) VotingEnd(proposalID uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[proposalID]
	if !exists || rec.VotingEnd == 0 {
		return 0, ErrProposalNotInitialized
	}
	return rec.VotingEnd, nil
}

// IsProposer delegates proposer eligibility to the configured gate
func (s *LinearStrategy) IsProposer(addr common.Address, data []byte) bool {
	s.mu.RLock()
	gate := s.gate
	s.mu.RUnlock()

	if gate == nil {
		return false
	}
	return gate.IsProposer(addr, data)
}

// Record returns a copy of the proposal's voting record
func (s *LinearStrategy) Record(proposalID uint64) (*VotingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[proposalID]
	if !exists {
		return nil, ErrProposalNotInitialized
	}
	cp := &VotingRecord{
		VotingStart:   rec.VotingStart,
		VotingEnd:     rec.VotingEnd,
		StartBlock:    rec.StartBlock,
		NoWeight:      rec.NoWeight.Clone(),
		YesWeight:     rec.YesWeight.Clone(),
		AbstainWeight: rec.AbstainWeight.Clone(),
		LateVoteSeen:  rec.LateVoteSeen,
	}
	return cp, nil
}

// SubscribeVotes subscribes to vote events
func (s *LinearStrategy) SubscribeVotes(ch chan<- VoteCastEvent) event.Subscription {
	return s.voteFeed.Subscribe(ch)
}

// SubscribeVotingInitialized subscribes to voting-window events
func (s *LinearStrategy) SubscribeVotingInitialized(ch chan<- VotingInitializedEvent) event.Subscription {
	return s.initFeed.Subscribe(ch)
}
