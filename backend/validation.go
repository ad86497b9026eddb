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

package backend

import (
	"errors"
	"fmt"
	"regexp"
)

// uuidRegex is a regex for standard UUIDs (8-4-4-4-12 hex digits)
var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// isValidUUID checks if the string is a valid UUID.
func isValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

var errEmptyPan = errors.New("both pans need at least one coin")

func validateCoin(coins, coin int) error {
	if coin < 0 || coin >= coins {
		return fmt.Errorf("coin %d out of range [0,%d)", coin, coins)
	}
	return nil
}

// validatePans checks that every coin exists and is used at most once.
func validatePans(coins int, left, right []int) error {
	if len(left) == 0 || len(right) == 0 {
		return errEmptyPan
	}
	seen := make(map[int]bool, len(left)+len(right))
	for _, pan := range [][]int{left, right} {
		for _, c := range pan {
			if err := validateCoin(coins, c); err != nil {
				return err
			}
			if seen[c] {
				return fmt.Errorf("coin %d is used more than once", c)
			}
			seen[c] = true
		}
	}
	return nil
}
