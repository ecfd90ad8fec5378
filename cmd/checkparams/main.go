package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stratadao/strata/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <params.toml>\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\nValidates a governance parameter file and prints the effective values.\n")
		os.Exit(1)
	}

	path := os.Args[1]
	fmt.Printf("Reading parameters: %s\n", path)
	p, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nParameters OK")
	fmt.Printf("  chain_id:            %d\n", p.ChainID)
	fmt.Printf("  owner:               %s\n", p.Owner.Hex())
	fmt.Printf("  timelock_period:     %ds\n", p.Governor.TimelockPeriod)
	fmt.Printf("  execution_period:    %ds\n", p.Governor.ExecutionPeriod)
	fmt.Printf("  voting_period:       %ds\n", p.Strategy.VotingPeriod)
	fmt.Printf("  voting_delay:        %ds (%d blocks)\n", p.Strategy.VotingDelay, p.Strategy.VotingDelayBlocks)
	fmt.Printf("  quorum_threshold:    %s\n", p.Strategy.QuorumThreshold)
	fmt.Printf("  basis_numerator:     %d / 1000000\n", p.Strategy.BasisNumerator)
	fmt.Printf("  freeze threshold:    %s\n", p.Freeze.Threshold)
	fmt.Printf("  freeze proposal:     %ds\n", p.Freeze.ProposalPeriod)
	if p.Freeze.FreezePeriod == 0 {
		fmt.Printf("  freeze period:       indefinite\n")
	} else {
		fmt.Printf("  freeze period:       %ds\n", p.Freeze.FreezePeriod)
	}
}
