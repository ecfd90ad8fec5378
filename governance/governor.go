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
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/stratadao/strata/envelope"
)

// Governor is the proposal ledger and state machine. It stores hashed
// transaction batches, delegates voting to its strategy and drives guarded
// execution through the executor. Proposal state is computed from the
// strategy outcome and the timelock/execution-window arithmetic, never
// stored.
type Governor struct {
	mu       sync.Mutex
	config   *GovernorConfig
	clock    Clock
	owner    common.Address
	self     common.Address
	domain   common.Hash
	executor TransactionExecutor
	strategy Strategy

	counter   uint64
	proposals map[uint64]*Proposal
	executing bool // 重入保护

	createdFeed  event.FeedOf[ProposalCreatedEvent]
	executedFeed event.FeedOf[ProposalExecutedEvent]
	canceledFeed event.FeedOf[ProposalCanceledEvent]
}

// NewGovernor creates a governor bound to a chain identity and executor.
// The strategy is wired afterwards via Bind (two-phase construction, see
// LinearStrategy.BindGovernor); until then submissions are rejected.
func NewGovernor(config *GovernorConfig, clock Clock, owner, self common.Address, chainID uint64, executor TransactionExecutor) *Governor {
	return &Governor{
		config:    config,
		clock:     clock,
		owner:     owner,
		self:      self,
		domain:    envelope.DomainSeparator(chainID, self),
		executor:  executor,
		proposals: make(map[uint64]*Proposal),
	}
}

// Bind installs the voting strategy
func (g *Governor) Bind(s Strategy) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.strategy = s
}

// Domain returns the digest domain separator of this governor instance
func (g *Governor) Domain() common.Hash {
	return g.domain
}

// Address returns the governor's own module identity
func (g *Governor) Address() common.Address {
	return g.self
}

// SubmitProposal stores a new proposal after the strategy accepts the
// proposer, hashes the batch in execution order and opens the voting
// window. The full batch is carried on the creation event only.
func (g *Governor) SubmitProposal(proposer common.Address, txs []envelope.Transaction, metadata string, proposerData []byte) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.strategy == nil {
		return 0, ErrNotConfigured
	}
	if len(txs) == 0 {
		return 0, ErrEmptyBatch
	}
	if !g.strategy.IsProposer(proposer, proposerData) {
		return 0, ErrNotProposer
	}

	id := g.counter
	proposal := &Proposal{
		ID:              id,
		Proposer:        proposer,
		TxHashes:        envelope.HashBatch(g.domain, txs),
		TimelockPeriod:  g.config.TimelockPeriod,
		ExecutionPeriod: g.config.ExecutionPeriod,
		Metadata:        metadata,
		strategy:        g.strategy,
	}

	if err := g.strategy.InitializeProposal(id); err != nil {
		return 0, err
	}
	g.proposals[id] = proposal
	g.counter++

	g.createdFeed.Send(ProposalCreatedEvent{
		ProposalID:   id,
		Proposer:     proposer,
		Transactions: txs,
		Metadata:     metadata,
	})
	log.Info("Proposal submitted", "proposal", id, "proposer", proposer,
		"transactions", len(txs))
	return id, nil
}

// ProposalState derives the current lifecycle state of a proposal
func (g *Governor) ProposalState(proposalID uint64) (ProposalState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.proposalState(proposalID)
}

func (g *Governor) proposalState(proposalID uint64) (ProposalState, error) {
	p, exists := g.proposals[proposalID]
	if !exists {
		return 0, ErrProposalNotFound
	}
	if p.Canceled {
		return StateCanceled, nil
	}

	end, err := p.strategy.VotingEnd(proposalID)
	if err != nil {
		return 0, err
	}
	now := g.clock.Now()

	switch {
	case now <= end:
		return StateActive, nil
	case !p.strategy.IsPassed(proposalID):
		return StateFailed, nil
	case p.Executed == uint64(len(p.TxHashes)):
		return StateExecuted, nil
	case now <= end+p.TimelockPeriod:
		return StateTimelocked, nil
	case now <= end+p.TimelockPeriod+p.ExecutionPeriod:
		return StateExecutable, nil
	default:
		return StateExpired, nil
	}
}

// ExecuteProposal executes a contiguous suffix of the stored batch starting
// at the current execution cursor. Large batches may be split across calls;
// the proposal state is re-checked before every transaction because the
// execution window can lapse mid-batch.
//
// The cursor is advanced before the executor is invoked, so a reentrant
// call through the vault can never execute the same slot twice. On a
// downstream failure the transactions already performed stay committed
// and the cursor settles on the first unexecuted slot: the vault's
// side effects are real, so rolling the cursor past them would re-pay
// those slots on retry.
func (g *Governor) ExecuteProposal(proposalID uint64, txs []envelope.Transaction) error {
	g.mu.Lock()
	if g.executing {
		g.mu.Unlock()
		return ErrReentrantCall
	}
	g.executing = true

	p, exists := g.proposals[proposalID]
	if !exists {
		g.executing = false
		g.mu.Unlock()
		return ErrProposalNotFound
	}
	if len(txs) == 0 {
		g.executing = false
		g.mu.Unlock()
		return ErrEmptyBatch
	}
	if p.Executed+uint64(len(txs)) > uint64(len(p.TxHashes)) {
		g.executing = false
		g.mu.Unlock()
		return ErrBatchOverflow
	}
	start := p.Executed
	g.mu.Unlock()

	executed := make([]common.Hash, 0, len(txs))
	defer func() {
		g.mu.Lock()
		g.executing = false
		// The cursor lands on the first unexecuted slot. Completed
		// transactions are committed even when a later one failed; a
		// retry resumes exactly where the vault stopped.
		p.Executed = start + uint64(len(executed))
		g.mu.Unlock()
		if len(executed) > 0 {
			g.executedFeed.Send(ProposalExecutedEvent{
				ProposalID: proposalID,
				TxHashes:   executed,
			})
		}
	}()

	for _, tx := range txs {
		g.mu.Lock()
		state, err := g.proposalState(proposalID)
		if err != nil {
			g.mu.Unlock()
			return err
		}
		if state != StateExecutable {
			g.mu.Unlock()
			return fmt.Errorf("%w: state is %s", ErrProposalNotExecutable, state)
		}

		hash := envelope.TxHash(g.domain, tx)
		if hash != p.TxHashes[p.Executed] {
			g.mu.Unlock()
			return fmt.Errorf("%w: position %d", ErrInvalidTxHash, p.Executed)
		}

		// Cursor moves before the external call.
		p.Executed++
		g.mu.Unlock()

		if err := g.executor.Exec(tx.To, tx.Value, tx.Data, tx.Operation); err != nil {
			log.Warn("Proposal execution stopped", "proposal", proposalID,
				"completed", len(executed), "err", err)
			return fmt.Errorf("%w: %w", ErrExecutionFailed, err)
		}
		executed = append(executed, hash)
	}

	log.Info("Proposal transactions executed", "proposal", proposalID,
		"count", len(executed), "cursor", start+uint64(len(executed)))
	return nil
}

// CancelProposal marks a not-yet-executed proposal as permanently canceled.
// Owner only.
func (g *Governor) CancelProposal(caller common.Address, proposalID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if caller != g.owner {
		return ErrOnlyOwner
	}
	p, exists := g.proposals[proposalID]
	if !exists {
		return ErrProposalNotFound
	}
	if p.Canceled {
		return ErrProposalCanceled
	}
	if p.Executed == uint64(len(p.TxHashes)) {
		return ErrProposalNotExecutable
	}
	p.Canceled = true

	g.canceledFeed.Send(ProposalCanceledEvent{ProposalID: proposalID})
	log.Info("Proposal canceled", "proposal", proposalID)
	return nil
}

// GetProposal returns a copy of a proposal record
func (g *Governor) GetProposal(proposalID uint64) (*Proposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, exists := g.proposals[proposalID]
	if !exists {
		return nil, ErrProposalNotFound
	}
	cp := *p
	cp.TxHashes = append([]common.Hash(nil), p.TxHashes...)
	return &cp, nil
}

// ProposalCount returns the number of proposals ever submitted
func (g *Governor) ProposalCount() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// SubscribeCreated subscribes to proposal-creation events
func (g *Governor) SubscribeCreated(ch chan<- ProposalCreatedEvent) event.Subscription {
	return g.createdFeed.Subscribe(ch)
}

// SubscribeExecuted subscribes to execution events
func (g *Governor) SubscribeExecuted(ch chan<- ProposalExecutedEvent) event.Subscription {
	return g.executedFeed.Subscribe(ch)
}

// SubscribeCanceled subscribes to cancelation events
func (g *Governor) SubscribeCanceled(ch chan<- ProposalCanceledEvent) event.Subscription {
	return g.canceledFeed.Subscribe(ch)
}
