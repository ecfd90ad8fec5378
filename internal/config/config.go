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

// Package config loads and validates the deployment parameters of a
// governance instance from TOML. Thresholds are decimal strings because
// realistic 18-decimal token amounts exceed TOML's integer range.
package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pelletier/go-toml/v2"

	"github.com/stratadao/strata/freeze"
	"github.com/stratadao/strata/governance"
)

// Params is the full parameter set of one organization.
type Params struct {
	ChainID  uint64         `toml:"chain_id"`
	Owner    common.Address `toml:"owner"`
	Governor GovernorParams `toml:"governor"`
	Strategy StrategyParams `toml:"strategy"`
	Freeze   FreezeParams   `toml:"freeze"`
}

// GovernorParams configures the proposal ledger.
type GovernorParams struct {
	TimelockPeriod  uint64 `toml:"timelock_period"`
	ExecutionPeriod uint64 `toml:"execution_period"`
}

// StrategyParams configures the linear voting strategy.
type StrategyParams struct {
	VotingPeriod      uint64 `toml:"voting_period"`
	VotingDelay       uint64 `toml:"voting_delay"`
	VotingDelayBlocks uint64 `toml:"voting_delay_blocks"`
	QuorumThreshold   string `toml:"quorum_threshold"`
	BasisNumerator    uint64 `toml:"basis_numerator"`
}

// FreezeParams configures the freeze subsystem.
type FreezeParams struct {
	Threshold      string `toml:"threshold"`
	ProposalPeriod uint64 `toml:"proposal_period"`
	FreezePeriod   uint64 `toml:"freeze_period"`
}

// Default returns parameters mirroring the package defaults of the domain
// packages.
func Default() *Params {
	g := governance.DefaultGovernorConfig()
	s := governance.DefaultStrategyConfig()
	f := freeze.DefaultConfig()
	return &Params{
		ChainID: 1,
		Governor: GovernorParams{
			TimelockPeriod:  g.TimelockPeriod,
			ExecutionPeriod: g.ExecutionPeriod,
		},
		Strategy: StrategyParams{
			VotingPeriod:      s.VotingPeriod,
			VotingDelay:       s.VotingDelay,
			VotingDelayBlocks: s.VotingDelayBlocks,
			QuorumThreshold:   s.QuorumThreshold.Dec(),
			BasisNumerator:    s.BasisNumerator,
		},
		Freeze: FreezeParams{
			Threshold:      f.Threshold.Dec(),
			ProposalPeriod: f.ProposalPeriod,
			FreezePeriod:   f.FreezePeriod,
		},
	}
}

// Load decodes TOML over the defaults and validates the result
func Load(data []byte) (*Params, error) {
	p := Default()
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode governance parameters: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile reads and decodes a TOML parameter file
func LoadFile(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read governance parameters: %w", err)
	}
	return Load(data)
}

// Validate checks parameter sanity. Every violation names the offending
// field so operators can map it straight to their file.
func (p *Params) Validate() error {
	if p.Strategy.VotingPeriod == 0 {
		return fmt.Errorf("strategy.voting_period must be non-zero")
	}
	if p.Governor.ExecutionPeriod == 0 {
		return fmt.Errorf("governor.execution_period must be non-zero")
	}
	if p.Strategy.BasisNumerator == 0 || p.Strategy.BasisNumerator > governance.BasisDenominator {
		return fmt.Errorf(
			"strategy.basis_numerator must be in (0, %d], got %d",
			governance.BasisDenominator, p.Strategy.BasisNumerator,
		)
	}
	if _, err := uint256.FromDecimal(p.Strategy.QuorumThreshold); err != nil {
		return fmt.Errorf("strategy.quorum_threshold: %w", err)
	}
	if _, err := uint256.FromDecimal(p.Freeze.Threshold); err != nil {
		return fmt.Errorf("freeze.threshold: %w", err)
	}
	if p.Freeze.ProposalPeriod == 0 {
		return fmt.Errorf("freeze.proposal_period must be non-zero")
	}
	return nil
}

// GovernorConfig converts the governor section
func (p *Params) GovernorConfig() *governance.GovernorConfig {
	return &governance.GovernorConfig{
		TimelockPeriod:  p.Governor.TimelockPeriod,
		ExecutionPeriod: p.Governor.ExecutionPeriod,
	}
}

// StrategyConfig converts the strategy section. Validate must have
// accepted the parameters first.
func (p *Params) StrategyConfig() *governance.StrategyConfig {
	quorum, _ := uint256.FromDecimal(p.Strategy.QuorumThreshold)
	return &governance.StrategyConfig{
		VotingPeriod:      p.Strategy.VotingPeriod,
		VotingDelay:       p.Strategy.VotingDelay,
		VotingDelayBlocks: p.Strategy.VotingDelayBlocks,
		QuorumThreshold:   quorum,
		BasisNumerator:    p.Strategy.BasisNumerator,
	}
}

// FreezeConfig converts the freeze section. Validate must have accepted
// the parameters first.
func (p *Params) FreezeConfig() *freeze.Config {
	threshold, _ := uint256.FromDecimal(p.Freeze.Threshold)
	return &freeze.Config{
		Threshold:      threshold,
		ProposalPeriod: p.Freeze.ProposalPeriod,
		FreezePeriod:   p.Freeze.FreezePeriod,
	}
}
