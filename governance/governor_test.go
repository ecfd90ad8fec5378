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
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/stratadao/strata/envelope"
	"github.com/stratadao/strata/executor"
)

var govOwner = common.HexToAddress("0x0123")

// fakeExecutor records executed transactions and can be told to fail the
// n-th call
type fakeExecutor struct {
	calls  []envelope.Transaction
	failAt int // 1-based call number to fail, 0 = never
}

func (e *fakeExecutor) Exec(to common.Address, value *uint256.Int, data []byte, op envelope.Operation) error {
	if e.failAt != 0 && len(e.calls)+1 == e.failAt {
		return errors.New("target reverted")
	}
	e.calls = append(e.calls, envelope.Transaction{To: to, Value: value, Data: data, Operation: op})
	return nil
}

// newTestGovernor wires a governor and strategy the two-phase way and
// registers one token adapter. Timelock 500s, execution window 1000s.
func newTestGovernor(t *testing.T) (*Governor, *LinearStrategy, *checkpointToken, *fakeClock, *fakeExecutor) {
	t.Helper()

	clock := &fakeClock{now: 1000, block: 100}
	token := newCheckpointToken()
	exec := &fakeExecutor{}

	cfg := &GovernorConfig{TimelockPeriod: 500, ExecutionPeriod: 1000}
	gov := NewGovernor(cfg, clock, govOwner, common.HexToAddress("0x5e1f"), 1, exec)

	gate := NewThresholdProposerGate(token, uint256.NewInt(100))
	s := NewLinearStrategy(testStrategyConfig(), clock, gov.Domain(), gate)
	s.BindGovernor(gov)
	s.RegisterAdapter(AdapterConfig{
		Weigher: NewVotesWeigher(token),
		Tracker: NewMemoryVoteTracker(),
	})
	gov.Bind(s)
	return gov, s, token, clock, exec
}

func sampleBatch() []envelope.Transaction {
	return []envelope.Transaction{
		{To: common.HexToAddress("0xaa"), Value: uint256.NewInt(10)},
		{To: common.HexToAddress("0xbb"), Value: uint256.NewInt(20)},
		{To: common.HexToAddress("0xcc"), Value: uint256.NewInt(30), Data: []byte{0x01}},
	}
}

// passProposal submits the sample batch, votes it through with yes=600
// no=300 and closes the window. Quorum 500 and basis 50% are met.
func passProposal(t *testing.T, gov *Governor, s *LinearStrategy, token *checkpointToken, clock *fakeClock) uint64 {
	t.Helper()

	token.mint(alice, 600, 1)
	token.mint(bob, 300, 1)

	id, err := gov.SubmitProposal(alice, sampleBatch(), "treasury refill", nil)
	require.NoError(t, err)

	clock.advance(200)
	require.NoError(t, s.CastVote(alice, id, VoteYes, ballot(), common.Address{}, 0))
	require.NoError(t, s.CastVote(bob, id, VoteNo, ballot(), common.Address{}, 0))
	return id
}

func TestGovernor_ScenarioA_FullLifecycle(t *testing.T) {
	gov, s, token, clock, exec := newTestGovernor(t)
	id := passProposal(t, gov, s, token, clock)

	state, err := gov.ProposalState(id)
	require.NoError(t, err)
	require.Equal(t, StateActive, state)

	// Voting ends at 2100; quorum 600+0 >= 500, basis 600e6 > 900*5e5.
	clock.now = 2101
	state, _ = gov.ProposalState(id)
	require.Equal(t, StateTimelocked, state)

	// Timelock ends at 2600.
	clock.now = 2601
	state, _ = gov.ProposalState(id)
	require.Equal(t, StateExecutable, state)

	// Partial execution: 2 of 3 leaves the cursor at 2, still executable.
	batch := sampleBatch()
	require.NoError(t, gov.ExecuteProposal(id, batch[:2]))
	p, err := gov.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, uint64(2), p.Executed)
	state, _ = gov.ProposalState(id)
	require.Equal(t, StateExecutable, state)

	// The third completes the proposal.
	require.NoError(t, gov.ExecuteProposal(id, batch[2:]))
	state, _ = gov.ProposalState(id)
	require.Equal(t, StateExecuted, state)
	require.Len(t, exec.calls, 3)
	require.Equal(t, batch[2].To, exec.calls[2].To)
}

func TestGovernor_ScenarioB_BasisFailure(t *testing.T) {
	gov, s, token, clock, _ := newTestGovernor(t)
	token.mint(alice, 600, 1)
	token.mint(bob, 700, 1)

	id, err := gov.SubmitProposal(alice, sampleBatch(), "", nil)
	require.NoError(t, err)

	clock.advance(200)
	require.NoError(t, s.CastVote(alice, id, VoteYes, ballot(), common.Address{}, 0))
	require.NoError(t, s.CastVote(bob, id, VoteNo, ballot(), common.Address{}, 0))

	// 600e6 <= 1300 * 5e5: basis fails however long we wait.
	clock.now = 5000
	state, err := gov.ProposalState(id)
	require.NoError(t, err)
	require.Equal(t, StateFailed, state)

	err = gov.ExecuteProposal(id, sampleBatch())
	require.ErrorIs(t, err, ErrProposalNotExecutable)
}

func TestGovernor_RejectsReorderedBatch(t *testing.T) {
	gov, s, token, clock, _ := newTestGovernor(t)
	id := passProposal(t, gov, s, token, clock)
	clock.now = 2601

	batch := sampleBatch()
	err := gov.ExecuteProposal(id, batch[1:2])
	require.ErrorIs(t, err, ErrInvalidTxHash)

	// Cursor untouched; the correct order still executes.
	p, _ := gov.GetProposal(id)
	require.Equal(t, uint64(0), p.Executed)
	require.NoError(t, gov.ExecuteProposal(id, batch))
}

func TestGovernor_ExecutionFailureCommitsCompletedSlots(t *testing.T) {
	gov, s, token, clock, exec := newTestGovernor(t)
	id := passProposal(t, gov, s, token, clock)
	clock.now = 2601

	exec.failAt = 2
	batch := sampleBatch()
	err := gov.ExecuteProposal(id, batch)
	require.ErrorIs(t, err, ErrExecutionFailed)

	// The first transaction went through the vault; the cursor lands on
	// the failed slot so nothing already paid out can run again.
	p, _ := gov.GetProposal(id)
	require.Equal(t, uint64(1), p.Executed)
	require.Len(t, exec.calls, 1)

	// Resubmitting the full batch is refused at the cursor position.
	exec.failAt = 0
	require.ErrorIs(t, gov.ExecuteProposal(id, batch), ErrInvalidTxHash)
	require.Len(t, exec.calls, 1)

	// The retry resumes with the remaining suffix only.
	require.NoError(t, gov.ExecuteProposal(id, batch[1:]))
	p, _ = gov.GetProposal(id)
	require.Equal(t, uint64(3), p.Executed)
	require.Len(t, exec.calls, 3)
	require.Equal(t, batch[0].To, exec.calls[0].To)
	require.Equal(t, batch[1].To, exec.calls[1].To)
}

func TestGovernor_NoDoubleSpendOnRetry(t *testing.T) {
	clock := &fakeClock{now: 1000, block: 100}
	token := newCheckpointToken()

	vaultAddr := common.HexToAddress("0x5afe")
	vault := executor.NewModuleVault(uint256.NewInt(100))
	ctrl := executor.NewController(vault, vaultAddr, common.Address{})

	cfg := &GovernorConfig{TimelockPeriod: 500, ExecutionPeriod: 1000}
	gov := NewGovernor(cfg, clock, govOwner, common.HexToAddress("0x5e1f"), 1, ctrl)
	ctrl.BindModule(gov.Address())

	gate := NewThresholdProposerGate(token, uint256.NewInt(100))
	s := NewLinearStrategy(testStrategyConfig(), clock, gov.Domain(), gate)
	s.BindGovernor(gov)
	s.RegisterAdapter(AdapterConfig{
		Weigher: NewVotesWeigher(token),
		Tracker: NewMemoryVoteTracker(),
	})
	gov.Bind(s)

	// The second target reverts once, then recovers.
	flaky := common.HexToAddress("0xbb")
	failures := 1
	vault.SetHandler(flaky, func(value *uint256.Int, data []byte, op envelope.Operation) error {
		if failures > 0 {
			failures--
			return errors.New("transfer reverted")
		}
		return nil
	})

	batch := []envelope.Transaction{
		{To: common.HexToAddress("0xaa"), Value: uint256.NewInt(10)},
		{To: flaky, Value: uint256.NewInt(10)},
	}
	token.mint(alice, 600, 1)
	id, err := gov.SubmitProposal(alice, batch, "", nil)
	require.NoError(t, err)
	clock.advance(200)
	require.NoError(t, s.CastVote(alice, id, VoteYes, ballot(), common.Address{}, 0))
	clock.now = 2601

	require.ErrorIs(t, gov.ExecuteProposal(id, batch), ErrExecutionFailed)
	require.Equal(t, uint64(90), vault.Balance().Uint64())

	require.NoError(t, gov.ExecuteProposal(id, batch[1:]))

	// Each slot paid out exactly once across the failed call and the retry.
	require.Equal(t, uint64(80), vault.Balance().Uint64())
	require.Len(t, vault.Executed(), 2)

	state, _ := gov.ProposalState(id)
	require.Equal(t, StateExecuted, state)
}

func TestGovernor_BatchBounds(t *testing.T) {
	gov, s, token, clock, _ := newTestGovernor(t)
	id := passProposal(t, gov, s, token, clock)
	clock.now = 2601

	require.ErrorIs(t, gov.ExecuteProposal(id, nil), ErrEmptyBatch)

	long := append(sampleBatch(), envelope.Transaction{To: common.HexToAddress("0xdd")})
	require.ErrorIs(t, gov.ExecuteProposal(id, long), ErrBatchOverflow)
}

func TestGovernor_ExecutionWindowExpiry(t *testing.T) {
	gov, s, token, clock, _ := newTestGovernor(t)
	id := passProposal(t, gov, s, token, clock)

	// Past votingEnd + timelock + execution window (2100+500+1000).
	clock.now = 3601
	state, err := gov.ProposalState(id)
	require.NoError(t, err)
	require.Equal(t, StateExpired, state)

	err = gov.ExecuteProposal(id, sampleBatch())
	require.ErrorIs(t, err, ErrProposalNotExecutable)
}

func TestGovernor_ProposerEligibility(t *testing.T) {
	gov, _, _, _, _ := newTestGovernor(t)

	// carol holds nothing, the gate threshold is 100.
	_, err := gov.SubmitProposal(carol, sampleBatch(), "", nil)
	require.ErrorIs(t, err, ErrNotProposer)
}

func TestGovernor_RequiresStrategy(t *testing.T) {
	clock := &fakeClock{now: 1000, block: 100}
	gov := NewGovernor(DefaultGovernorConfig(), clock, govOwner, common.HexToAddress("0x5e1f"), 1, &fakeExecutor{})

	_, err := gov.SubmitProposal(alice, sampleBatch(), "", nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGovernor_Cancel(t *testing.T) {
	gov, s, token, clock, _ := newTestGovernor(t)
	id := passProposal(t, gov, s, token, clock)
	clock.now = 2601

	require.ErrorIs(t, gov.CancelProposal(carol, id), ErrOnlyOwner)
	require.NoError(t, gov.CancelProposal(govOwner, id))

	state, err := gov.ProposalState(id)
	require.NoError(t, err)
	require.Equal(t, StateCanceled, state)

	// Terminal: execution is refused and a second cancel is rejected.
	require.ErrorIs(t, gov.ExecuteProposal(id, sampleBatch()), ErrProposalNotExecutable)
	require.ErrorIs(t, gov.CancelProposal(govOwner, id), ErrProposalCanceled)
}

func TestGovernor_CreationEventCarriesBatch(t *testing.T) {
	gov, _, token, _, _ := newTestGovernor(t)
	token.mint(alice, 600, 1)

	ch := make(chan ProposalCreatedEvent, 1)
	sub := gov.SubscribeCreated(ch)
	defer sub.Unsubscribe()

	batch := sampleBatch()
	id, err := gov.SubmitProposal(alice, batch, "indexed", nil)
	require.NoError(t, err)

	ev := <-ch
	require.Equal(t, id, ev.ProposalID)
	require.Equal(t, alice, ev.Proposer)
	require.Len(t, ev.Transactions, len(batch))
	require.Equal(t, "indexed", ev.Metadata)

	// The ledger itself keeps only the hashes.
	p, _ := gov.GetProposal(id)
	require.Len(t, p.TxHashes, len(batch))
	require.Equal(t, envelope.TxHash(gov.Domain(), batch[0]), p.TxHashes[0])
}

func TestGovernor_MonotonicIDs(t *testing.T) {
	gov, _, token, _, _ := newTestGovernor(t)
	token.mint(alice, 600, 1)

	id0, err := gov.SubmitProposal(alice, sampleBatch(), "", nil)
	require.NoError(t, err)
	id1, err := gov.SubmitProposal(alice, sampleBatch(), "", nil)
	require.NoError(t, err)

	require.Equal(t, uint64(0), id0)
	require.Equal(t, uint64(1), id1)
	require.Equal(t, uint64(2), gov.ProposalCount())
}
