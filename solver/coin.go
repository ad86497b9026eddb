// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package solver

import (
	"fmt"
	"strings"
)

// Coin is an opaque coin identifier as shown on the puzzle page.
type Coin string

// CoinSet is an ordered list of coins. The first coin is the reference coin
// for the linear scan.
type CoinSet []Coin

// DefaultCoins is the coin alphabet of the puzzle page.
var DefaultCoins = CoinSet{"0", "1", "2", "3", "4", "5", "6", "7", "8"}

// ParseCoinSet parses a comma separated list of coin identifiers.
func ParseCoinSet(s string) (CoinSet, error) {
	var coins CoinSet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		coins = append(coins, Coin(part))
	}
	if err := coins.Validate(); err != nil {
		return nil, err
	}
	return coins, nil
}

// Validate checks that the set is non-empty and has no empty or duplicate ids.
func (cs CoinSet) Validate() error {
	if len(cs) == 0 {
		return fmt.Errorf("%w: no coins", ErrInvalidCoinSet)
	}
	seen := make(map[Coin]bool, len(cs))
	for _, c := range cs {
		if c == "" {
			return fmt.Errorf("%w: empty coin id", ErrInvalidCoinSet)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate coin %q", ErrInvalidCoinSet, c)
		}
		seen[c] = true
	}
	return nil
}

// Strings returns the coin ids as plain strings.
func (cs CoinSet) Strings() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func (cs CoinSet) String() string {
	return strings.Join(cs.Strings(), ",")
}

func coinsOf(ids []string) CoinSet {
	out := make(CoinSet, len(ids))
	for i, id := range ids {
		out[i] = Coin(id)
	}
	return out
}
