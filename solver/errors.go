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

import "errors"

var (
	// ErrPollingTimeout is returned in strict mode when the weighing log did
	// not grow within the polling budget.
	ErrPollingTimeout = errors.New("weighing result did not appear")

	// ErrMalformedRecord is returned when a weighing record cannot be parsed
	// and the caller asked not to fall back to a default coin.
	ErrMalformedRecord = errors.New("malformed weighing record")

	// ErrNoDialog is returned when clicking a coin did not open a dialog in time.
	ErrNoDialog = errors.New("no confirmation dialog")

	// ErrUnexpectedTitle is returned when the puzzle page has the wrong title.
	ErrUnexpectedTitle = errors.New("unexpected page title")

	// ErrInvalidCoinSet is returned for empty coin sets or duplicate coins.
	ErrInvalidCoinSet = errors.New("invalid coin set")
)
