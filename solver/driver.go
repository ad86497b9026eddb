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
	"context"
	"fmt"
)

// Driver is the UI automation surface the solver needs. Element ids are
// given without the leading '#'.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	SetField(ctx context.Context, id, value string) error
	Click(ctx context.Context, id string) error
	// TextList returns the text content of every element matching the CSS selector.
	TextList(ctx context.Context, selector string) ([]string, error)
	// ExpectDialog subscribes to the next JavaScript dialog. The first dialog
	// message is delivered on the channel, the dialog is accepted and the
	// channel is closed. The subscription ends when ctx is done.
	ExpectDialog(ctx context.Context) (<-chan string, error)
	Close() error
}

// Side is one pan of the balance.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Selectors holds the locators of the puzzle page.
type Selectors struct {
	Weigh      string // id of the weigh button
	Reset      string // id of the reset button
	LeftField  string // format of the left pan cell ids, indexed from 0
	RightField string // format of the right pan cell ids, indexed from 0
	Coin       string // format of the coin button ids
	Results    string // CSS selector of the weighing log entries
}

// DefaultSelectors matches the puzzle page layout.
var DefaultSelectors = Selectors{
	Weigh:      "weigh",
	Reset:      "reset",
	LeftField:  "left_%d",
	RightField: "right_%d",
	Coin:       "coin_%s",
	Results:    ".game-info li",
}

// Field returns the id of cell i of the given pan.
func (s Selectors) Field(side Side, i int) string {
	if side == Left {
		return fmt.Sprintf(s.LeftField, i)
	}
	return fmt.Sprintf(s.RightField, i)
}

// CoinID returns the id of the button of coin c.
func (s Selectors) CoinID(c Coin) string {
	return fmt.Sprintf(s.Coin, c)
}
