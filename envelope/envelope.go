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

// Package envelope implements the canonical encoding of governance
// transactions and the domain-separated digests derived from them. All
// functions are pure; the digest scheme follows the EIP-712 layout
// (0x19 0x01 prefix, domain separator bound to chain id and verifier
// address, keccak struct hashes) so off-chain tooling can reproduce every
// hash the ledger stores.
package envelope

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Operation selects how the vault performs a call.
type Operation uint8

const (
	Call         Operation = 0x00 // 普通调用
	DelegateCall Operation = 0x01 // 委托调用
)

// Transaction is a single governed call. Immutable once hashed; the ledger
// stores only the digest and relies on the caller to resupply the full
// payload at execution time.
type Transaction struct {
	To        common.Address // 目标地址
	Value     *uint256.Int   // 转账金额
	Data      []byte         // 调用数据
	Operation Operation      // 调用类型
}

var (
	domainTypeHash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(uint256 chainId,address verifyingContract)"),
	)
	txTypeHash = crypto.Keccak256Hash(
		[]byte("Transaction(address to,uint256 value,bytes data,uint8 operation)"),
	)
	voteTypeHash = crypto.Keccak256Hash(
		[]byte("Vote(uint64 proposalId,uint8 support)"),
	)
)

// DomainSeparator binds digests to one chain and one verifying instance so
// a transaction hashed for one organization can never be replayed against
// another.
func DomainSeparator(chainID uint64, verifier common.Address) common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		uint64Word(chainID),
		common.LeftPadBytes(verifier.Bytes(), 32),
	)
}

// TxHash returns the integrity digest of tx under the given domain:
// keccak(0x19 0x01 || domain || keccak(typeHash, to, value, keccak(data), op)).
func TxHash(domain common.Hash, tx Transaction) common.Hash {
	value := tx.Value
	if value == nil {
		value = uint256.NewInt(0)
	}
	valueWord := value.Bytes32()
	structHash := crypto.Keccak256Hash(
		txTypeHash.Bytes(),
		common.LeftPadBytes(tx.To.Bytes(), 32),
		valueWord[:],
		crypto.Keccak256(tx.Data),
		common.LeftPadBytes([]byte{byte(tx.Operation)}, 32),
	)
	return finalize(domain, structHash)
}

// HashBatch hashes every transaction in order. Order is significant: the
// ledger compares executed transactions position by position.
func HashBatch(domain common.Hash, txs []Transaction) []common.Hash {
	hashes := make([]common.Hash, len(txs))
	for i, tx := range txs {
		hashes[i] = TxHash(domain, tx)
	}
	return hashes
}

// VoteDigest is the signing digest for an off-chain relayed vote. The voter
// is recovered from the signature, so the payload carries only the proposal
// id and the choice.
func VoteDigest(domain common.Hash, proposalID uint64, support uint8) common.Hash {
	structHash := crypto.Keccak256Hash(
		voteTypeHash.Bytes(),
		uint64Word(proposalID),
		common.LeftPadBytes([]byte{support}, 32),
	)
	return finalize(domain, structHash)
}

func finalize(domain, structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		domain.Bytes(),
		structHash.Bytes(),
	)
}

func uint64Word(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return common.LeftPadBytes(buf[:], 32)
}
