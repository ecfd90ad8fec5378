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

import "time"

// WallClock implements Clock over the system clock for embeddings that run
// without a chain. Block height is derived from elapsed wall time at a
// fixed interval, which keeps snapshot arithmetic meaningful off-chain.
type WallClock struct {
	Genesis       uint64 // 创世时间戳
	BlockInterval uint64 // 出块间隔（秒）
}

// NewWallClock creates a wall clock anchored at now with the given block
// interval
func NewWallClock(interval uint64) *WallClock {
	if interval == 0 {
		interval = 12
	}
	return &WallClock{
		Genesis:       uint64(time.Now().Unix()),
		BlockInterval: interval,
	}
}

// Now returns the current unix timestamp
func (c *WallClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// BlockNumber returns the derived block height
func (c *WallClock) BlockNumber() uint64 {
	now := c.Now()
	if now <= c.Genesis {
		return 0
	}
	return (now - c.Genesis) / c.BlockInterval
}
