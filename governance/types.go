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

// VoteType represents the choice cast on a proposal
type VoteType uint8

const (
	VoteNo      VoteType = 0x00 // 反对
	VoteYes     VoteType = 0x01 // 赞成
	VoteAbstain VoteType = 0x02 // 弃权
)

// ProposalState represents the computed lifecycle state of a proposal
type ProposalState uint8

const (
	StateActive     ProposalState = 0x00 // 投票中
	StateTimelocked ProposalState = 0x01 // 时间锁定
	StateExecutable ProposalState = 0x02 // 可执行
	StateExecuted   ProposalState = 0x03 // 已执行
	StateCanceled   ProposalState = 0x04 // 已取消
	StateFailed     ProposalState = 0x05 // 未通过
	StateExpired    ProposalState = 0x06 // 已过期
)

// String implements fmt.Stringer for log output.
func (s ProposalState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTimelocked:
		return "timelocked"
	case StateExecutable:
		return "executable"
	case StateExecuted:
		return "executed"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// BasisDenominator is the fixed denominator for the basis (approval) ratio.
// A numerator of 500000 therefore means a strict-majority requirement with
// six decimal places of precision.
const BasisDenominator = 1_000_000

// Proposal is a permanent ledger entry. The full transaction payloads are
// emitted on the creation event only; the ledger retains the ordered hashes
// and the execution cursor.
type Proposal struct {
	ID              uint64         // 提案 ID
	Proposer        common.Address // 提案者
	TxHashes        []common.Hash  // 交易哈希（按执行顺序）
	TimelockPeriod  uint64         // 时间锁（秒）
	ExecutionPeriod uint64         // 执行窗口（秒）
	Executed        uint64         // 已执行交易数（游标）
	Canceled        bool           // 是否已取消
	Metadata        string         // 描述
	strategy        Strategy       // 管辖本提案投票的策略实例
}

// Strategy returns the charter instance that governed this proposal's vote.
func (p *Proposal) Strategy() Strategy {
	return p.strategy
}

// VotingRecord holds the per-proposal voting window and tallies. Owned
// exclusively by the strategy; created exactly once per proposal.
type VotingRecord struct {
	VotingStart   uint64       // 投票开始时间戳
	VotingEnd     uint64       // 投票截止时间戳
	StartBlock    uint64       // 权重快照区块
	NoWeight      *uint256.Int // 反对票权重
	YesWeight     *uint256.Int // 赞成票权重
	AbstainWeight *uint256.Int // 弃权票权重
	LateVoteSeen  bool         // 截止后首次投票标记
}

// Ballot selects one registered adapter configuration and carries the
// opaque data that adapter needs to compute the caster's weight.
type Ballot struct {
	AdapterIndex int    // 适配器配置索引
	Data         []byte // 适配器自定义数据
}

// AdapterConfig pairs a weight source with the tracker that rejects
// duplicate votes for it. Registered on a strategy at configuration time
// and referenced by index from each ballot.
type AdapterConfig struct {
	Weigher WeightSource
	Tracker VoteTracker
}

// StrategyConfig holds the voting-window and pass-criteria parameters of a
// linear strategy.
type StrategyConfig struct {
	VotingPeriod      uint64       // 投票期限（秒）
	VotingDelay       uint64       // 投票开始前置延迟（秒）
	VotingDelayBlocks uint64       // 快照区块前置偏移
	QuorumThreshold   *uint256.Int // 法定参与权重
	BasisNumerator    uint64       // 通过比例分子（分母 BasisDenominator）
}

// DefaultStrategyConfig returns the default strategy configuration
func DefaultStrategyConfig() *StrategyConfig {
	return &StrategyConfig{
		VotingPeriod:      7 * 24 * 3600, // 约 7 天
		VotingDelay:       3600,          // 1 小时
		VotingDelayBlocks: 300,           // 约 1 小时（12s/块）
		QuorumThreshold:   uint256.NewInt(500),
		BasisNumerator:    500_000, // 简单多数
	}
}

// GovernorConfig holds the timelock and execution-window parameters applied
// to every proposal the ledger accepts.
type GovernorConfig struct {
	TimelockPeriod  uint64 // 通过后锁定期（秒）
	ExecutionPeriod uint64 // 锁定期后的执行窗口（秒）
}

// DefaultGovernorConfig returns the default governor configuration
func DefaultGovernorConfig() *GovernorConfig {
	return &GovernorConfig{
		TimelockPeriod:  24 * 3600,     // 约 1 天
		ExecutionPeriod: 7 * 24 * 3600, // 约 7 天
	}
}

// ProposalCreatedEvent carries the full batch for off-chain indexing; the
// ledger itself only retains the hashes.
type ProposalCreatedEvent struct {
	ProposalID   uint64
	Proposer     common.Address
	Transactions []envelope.Transaction
	Metadata     string
}

// VoteCastEvent is emitted for every accepted vote.
type VoteCastEvent struct {
	ProposalID uint64
	Voter      common.Address
	Choice     VoteType
	Weight     *uint256.Int
}

// VotingInitializedEvent is emitted when a strategy opens a voting window.
type VotingInitializedEvent struct {
	ProposalID  uint64
	VotingStart uint64
	VotingEnd   uint64
	StartBlock  uint64
}

// ProposalExecutedEvent is emitted after every successful (possibly
// partial) execution call.
type ProposalExecutedEvent struct {
	ProposalID uint64
	TxHashes   []common.Hash // 本次调用执行的交易哈希
}

// ProposalCanceledEvent is emitted when the owner cancels a proposal.
type ProposalCanceledEvent struct {
	ProposalID uint64
}
