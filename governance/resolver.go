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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LightAccountResolver implements SignerResolver for factory-deployed proxy
// accounts. The proxy address is a pure function of (factory, owner, index,
// proxy code hash), so proving "this account belongs to that owner" is a
// single CREATE2 derivation with no on-chain lookup.
type LightAccountResolver struct {
	factory  common.Address // 账户工厂地址
	codeHash common.Hash    // 代理初始化代码哈希
}

// NewLightAccountResolver creates a resolver for the given factory and
// proxy init-code hash
func NewLightAccountResolver(factory common.Address, codeHash common.Hash) *LightAccountResolver {
	return &LightAccountResolver{factory: factory, codeHash: codeHash}
}

// Derive returns the deterministic proxy address for (owner, index)
func (r *LightAccountResolver) Derive(owner common.Address, index uint64) common.Address {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	salt := crypto.Keccak256Hash(owner.Bytes(), idx[:])
	return crypto.CreateAddress2(r.factory, salt, r.codeHash.Bytes())
}
